package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for development and tests.
// Values are kept as decoded JSON so reads behave like the remote backends.
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]interface{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: map[string]interface{}{}}
}

func (s *MemoryStore) Get(_ context.Context, path string, dest interface{}) (bool, error) {
	s.mu.RLock()
	node, ok := s.lookup(splitPath(path))
	var raw []byte
	var err error
	if ok {
		raw, err = json.Marshal(node)
	}
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *MemoryStore) Set(_ context.Context, path string, value interface{}) error {
	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("memory set %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(splitPath(path), normalized)
}

func (s *MemoryStore) Update(_ context.Context, path string, fields map[string]interface{}) error {
	base := splitPath(path)
	values := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		normalized, err := normalize(value)
		if err != nil {
			return fmt.Errorf("memory update %s/%s: %w", path, key, err)
		}
		values[key] = normalized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		if err := s.put(append(append([]string{}, base...), splitPath(key)...), value); err != nil {
			return err
		}
	}
	return nil
}

// Push keys are UUIDv7 strings, which sort by creation time
func (s *MemoryStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	key := id.String()
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(splitPath(path), nil)
}

func (s *MemoryStore) lookup(segments []string) (interface{}, bool) {
	var node interface{} = s.root
	for _, seg := range segments {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if node, ok = m[seg]; !ok {
			return nil, false
		}
	}
	if m, ok := node.(map[string]interface{}); ok && len(m) == 0 {
		return nil, false
	}
	return node, true
}

// put writes value at segments, creating parents, and prunes emptied parents
// when value is nil.
func (s *MemoryStore) put(segments []string, value interface{}) error {
	if len(segments) == 0 {
		m, ok := value.(map[string]interface{})
		if value != nil && !ok {
			return fmt.Errorf("root must be an object")
		}
		if m == nil {
			m = map[string]interface{}{}
		}
		s.root = m
		return nil
	}
	for _, seg := range segments {
		if !validKey(seg) {
			return fmt.Errorf("invalid key %q", seg)
		}
	}

	parents := make([]map[string]interface{}, 0, len(segments))
	node := s.root
	for _, seg := range segments[:len(segments)-1] {
		parents = append(parents, node)
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			if value == nil {
				return nil
			}
			child = map[string]interface{}{}
			node[seg] = child
		}
		node = child
	}

	last := segments[len(segments)-1]
	if value != nil {
		node[last] = value
		return nil
	}

	delete(node, last)
	for i := len(parents) - 1; i >= 0 && len(node) == 0; i-- {
		delete(parents[i], segments[i])
		node = parents[i]
	}
	return nil
}

// normalize round-trips value through JSON. Empty objects become nil.
func normalize(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if m, ok := out.(map[string]interface{}); ok && len(m) == 0 {
		return nil, nil
	}
	return out, nil
}
