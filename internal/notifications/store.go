package notifications

import "context"

// Store is a tree of JSON values addressed by slash separated paths.
// Writing nil or an empty object removes the node.
type Store interface {
	// Get decodes the value at path into dest. found is false when nothing is stored there.
	Get(ctx context.Context, path string, dest interface{}) (found bool, err error)
	Set(ctx context.Context, path string, value interface{}) error
	// Update sets each child of path named by a key of fields. Keys may contain slashes.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Push stores value under a new generated key and returns the key
	Push(ctx context.Context, path string, value interface{}) (string, error)
	Delete(ctx context.Context, path string) error
}
