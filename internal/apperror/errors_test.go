package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", NotFound("post not found"), ErrNotFound},
		{"conflict", Conflict("already following"), ErrConflict},
		{"unauthorized", Unauthorized("not the author"), ErrUnauthorized},
		{"invalid", InvalidOperation("cannot follow yourself"), ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.kind)
			for _, other := range []error{ErrNotFound, ErrConflict, ErrUnauthorized, ErrInvalidOperation} {
				if other != tt.kind {
					assert.False(t, errors.Is(tt.err, other))
				}
			}
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "post not found", NotFound("post not found").Error())
	assert.Equal(t, "not found", NotFound("").Error())
}

func TestFields(t *testing.T) {
	err := ConflictFields("user exists", map[string]string{"email": "already taken"})
	assert.Equal(t, map[string]string{"email": "already taken"}, Fields(fmt.Errorf("x: %w", err)))
	assert.Nil(t, Fields(errors.New("plain")))
}
