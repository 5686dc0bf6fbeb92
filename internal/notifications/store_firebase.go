package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"firebase.google.com/go/v4/db"
)

// FirebaseStore keeps notification state in the Firebase Realtime Database
type FirebaseStore struct {
	client *db.Client
}

var _ Store = (*FirebaseStore)(nil)

// NewFirebaseStore creates a new FirebaseStore
func NewFirebaseStore(client *db.Client) *FirebaseStore {
	return &FirebaseStore{client: client}
}

func (s *FirebaseStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	var raw json.RawMessage
	if err := s.client.NewRef(path).Get(ctx, &raw); err != nil {
		return false, fmt.Errorf("rtdb get %s: %w", path, err)
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// RTDB returns objects with mostly sequential integer keys as arrays
		fixed, ferr := arraysToObjects(raw)
		if ferr != nil || json.Unmarshal(fixed, dest) != nil {
			return false, fmt.Errorf("rtdb decode %s: %w", path, err)
		}
	}
	return true, nil
}

func arraysToObjects(raw []byte) ([]byte, error) {
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(objectify(tree))
}

func objectify(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		m := make(map[string]interface{}, len(t))
		for i, item := range t {
			if item != nil {
				m[strconv.Itoa(i)] = objectify(item)
			}
		}
		return m
	case map[string]interface{}:
		for k, item := range t {
			t[k] = objectify(item)
		}
		return t
	default:
		return v
	}
}

func (s *FirebaseStore) Set(ctx context.Context, path string, value interface{}) error {
	if err := s.client.NewRef(path).Set(ctx, value); err != nil {
		return fmt.Errorf("rtdb set %s: %w", path, err)
	}
	return nil
}

func (s *FirebaseStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.NewRef(path).Update(ctx, fields); err != nil {
		return fmt.Errorf("rtdb update %s: %w", path, err)
	}
	return nil
}

func (s *FirebaseStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	ref, err := s.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", fmt.Errorf("rtdb push %s: %w", path, err)
	}
	return ref.Key, nil
}

func (s *FirebaseStore) Delete(ctx context.Context, path string) error {
	if err := s.client.NewRef(path).Delete(ctx); err != nil {
		return fmt.Errorf("rtdb delete %s: %w", path, err)
	}
	return nil
}
