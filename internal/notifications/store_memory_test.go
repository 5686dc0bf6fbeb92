package notifications

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		var v bool
		found, err := s.Get(ctx, "/notifications/1/preferences/FOLLOW", &v)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("set and get nested", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "/notifications/1/preferences/NEW_POST/2", true))
		require.NoError(t, s.Set(ctx, "/notifications/1/preferences/FOLLOW", false))

		var prefs models.NotificationPreferences
		found, err := s.Get(ctx, PreferencesPath(1), &prefs)
		require.NoError(t, err)
		require.True(t, found)
		require.NotNil(t, prefs.Follow)
		assert.False(t, *prefs.Follow)
		assert.Equal(t, map[string]bool{"2": true}, prefs.NewPost)
	})

	t.Run("update merges children", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, "/notifications/3/tokens/abc", map[string]interface{}{"timestamp": "t1"}))
		require.NoError(t, s.Update(ctx, "/notifications/3", map[string]interface{}{"tokens/def/timestamp": "t2"}))

		tokens := map[string]models.DeviceToken{}
		found, err := s.Get(ctx, TokensPath(3), &tokens)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, map[string]models.DeviceToken{"abc": {Timestamp: "t1"}, "def": {Timestamp: "t2"}}, tokens)
	})

	t.Run("push generates distinct keys", func(t *testing.T) {
		k1, err := s.Push(ctx, ReceivedPath(4), models.Notification{Type: models.NotificationFollow})
		require.NoError(t, err)
		k2, err := s.Push(ctx, ReceivedPath(4), models.Notification{Type: models.NotificationFollow})
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)

		received := map[string]models.Notification{}
		_, err = s.Get(ctx, ReceivedPath(4), &received)
		require.NoError(t, err)
		assert.Len(t, received, 2)
	})

	t.Run("delete prunes empty parents", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "/notifications/1/preferences/NEW_POST/2"))
		var m map[string]interface{}
		found, err := s.Get(ctx, "/notifications/1/preferences/NEW_POST", &m)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, s.Delete(ctx, "/notifications/1/preferences/FOLLOW"))
		found, err = s.Get(ctx, "/notifications/1", &m)
		require.NoError(t, err)
		assert.False(t, found)

		assert.NoError(t, s.Delete(ctx, "/notifications/99/tokens/x"))
	})

	t.Run("setting nil removes", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "/notifications/5/x", "y"))
		require.NoError(t, s.Set(ctx, "/notifications/5/x", nil))
		var v string
		found, err := s.Get(ctx, "/notifications/5/x", &v)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("invalid key", func(t *testing.T) {
		assert.Error(t, s.Set(ctx, "/notifications/5/a.b", true))
	})
}

func TestObjectify(t *testing.T) {
	fixed, err := arraysToObjects([]byte(`{"NEW_POST":[null,true,false]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"NEW_POST":{"1":true,"2":false}}`, string(fixed))
}
