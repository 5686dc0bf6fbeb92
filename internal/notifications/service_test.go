package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryStore, *mockPusher) {
	t.Helper()
	store := NewMemoryStore()
	pusher := &mockPusher{}
	svc := NewService(store, pusher)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { pusher.AssertExpectations(t) })
	return svc, store, pusher
}

func TestSendFollowNotification(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{ID: 1, ProfileName: "alice"}

	t.Run("records and pushes to every token", func(t *testing.T) {
		svc, store, pusher := newTestService(t)
		require.NoError(t, store.Set(ctx, tokenPath(2, "tok-b"), models.DeviceToken{Timestamp: "t"}))
		require.NoError(t, store.Set(ctx, tokenPath(2, "tok-a"), models.DeviceToken{Timestamp: "t"}))

		pusher.On("SendMulticast", mock.Anything, []string{"tok-a", "tok-b"}, mock.MatchedBy(func(m Message) bool {
			return m.Body == "@alice is now following you" &&
				m.Data["type"] == "FOLLOW" &&
				m.Data["followerId"] == "1" &&
				m.Data["followerProfileName"] == "alice" &&
				m.Data["read"] == "false"
		})).Return(nil).Once()

		require.NoError(t, svc.SendFollowNotification(ctx, alice, 2))

		list, err := svc.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.NotificationFollow, list[0].Type)
		require.NotNil(t, list[0].FollowerID)
		assert.EqualValues(t, 1, *list[0].FollowerID)
		assert.False(t, list[0].Read)
	})

	t.Run("opted out records without push", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		require.NoError(t, store.Set(ctx, tokenPath(2, "tok"), models.DeviceToken{Timestamp: "t"}))
		require.NoError(t, svc.UpdateFollowPreference(ctx, 2, false))

		require.NoError(t, svc.SendFollowNotification(ctx, alice, 2))

		list, err := svc.List(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("explicit opt in pushes", func(t *testing.T) {
		svc, store, pusher := newTestService(t)
		require.NoError(t, store.Set(ctx, tokenPath(2, "tok"), models.DeviceToken{Timestamp: "t"}))
		require.NoError(t, svc.UpdateFollowPreference(ctx, 2, true))
		pusher.On("SendMulticast", mock.Anything, []string{"tok"}, mock.Anything).Return(nil).Once()

		require.NoError(t, svc.SendFollowNotification(ctx, alice, 2))
	})

	t.Run("no tokens is a no-op", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		require.NoError(t, svc.SendFollowNotification(ctx, alice, 2))
	})
}

func TestSendPostNotification(t *testing.T) {
	ctx := context.Background()
	bob := &models.User{ID: 2, ProfileName: "bob"}

	tests := []struct {
		caption string
		title   string
	}{
		{"hi", "New post from @bob: hi"},
		{"", "New post from @bob"},
	}
	for _, tt := range tests {
		svc, _, pusher := newTestService(t)
		pusher.On("SendTopic", mock.Anything, "2-NEW_POST", mock.MatchedBy(func(m Message) bool {
			return m.Title == tt.title && m.Data["postId"] == "7" && m.Data["authorId"] == "2" && m.Data["type"] == "NEW_POST"
		})).Return(nil).Once()

		require.NoError(t, svc.SendPostNotification(ctx, bob, &models.Post{ID: 7, Caption: tt.caption}))
	}
}

func TestUpdatePostPreference(t *testing.T) {
	ctx := context.Background()
	svc, store, pusher := newTestService(t)

	// no tokens: only the preference changes
	require.NoError(t, svc.UpdatePostPreference(ctx, 1, 2, true))
	prefs, err := svc.Preferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2": true}, prefs.NewPost)

	require.NoError(t, store.Set(ctx, tokenPath(1, "t1"), models.DeviceToken{Timestamp: "t"}))
	require.NoError(t, store.Set(ctx, tokenPath(1, "t2"), models.DeviceToken{Timestamp: "t"}))

	pusher.On("UnsubscribeFromTopic", mock.Anything, []string{"t1", "t2"}, "2-NEW_POST").Return(nil).Once()
	require.NoError(t, svc.UpdatePostPreference(ctx, 1, 2, false))

	prefs, err = svc.Preferences(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, prefs.NewPost)

	pusher.On("SubscribeToTopic", mock.Anything, []string{"t1", "t2"}, "3-NEW_POST").Return(errors.New("fcm down")).Once()
	assert.Error(t, svc.UpdatePostPreference(ctx, 1, 3, true))
	prefs, err = svc.Preferences(ctx, 1)
	require.NoError(t, err)
	assert.True(t, prefs.NewPost["3"], "preference is written before the subscription")
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, pusher := newTestService(t)

	require.NoError(t, svc.UpdatePostPreference(ctx, 1, 2, true))
	require.NoError(t, svc.UpdatePostPreference(ctx, 1, 3, true))

	pusher.On("SubscribeToTopic", mock.Anything, []string{"tok"}, "2-NEW_POST").Return(nil).Once()
	pusher.On("SubscribeToTopic", mock.Anything, []string{"tok"}, "3-NEW_POST").Return(nil).Once()
	dt, err := svc.StoreToken(ctx, 1, "tok")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", dt.Timestamp)

	tokens, err := svc.tokens(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, tokens)

	pusher.On("UnsubscribeFromTopic", mock.Anything, []string{"tok"}, "2-NEW_POST").Return(nil).Once()
	pusher.On("UnsubscribeFromTopic", mock.Anything, []string{"tok"}, "3-NEW_POST").Return(nil).Once()
	require.NoError(t, svc.DeleteToken(ctx, 1, "tok"))

	tokens, err = svc.tokens(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	_, err = svc.StoreToken(ctx, 1, "bad/token")
	assert.ErrorIs(t, err, apperror.ErrInvalidOperation)
}

func TestReadFlags(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	first, err := store.Push(ctx, ReceivedPath(1), models.Notification{Type: models.NotificationFollow, Timestamp: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)
	second, err := store.Push(ctx, ReceivedPath(1), models.Notification{Type: models.NotificationFollow, Timestamp: "2024-01-02T00:00:00Z"})
	require.NoError(t, err)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID, "newest first")

	n, err := svc.MarkAsRead(ctx, 1, first)
	require.NoError(t, err)
	assert.True(t, n.Read)
	got, err := svc.Get(ctx, 1, first)
	require.NoError(t, err)
	assert.True(t, got.Read)

	_, err = svc.MarkAsRead(ctx, 1, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	all, err := svc.MarkAllAsRead(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	got, err = svc.Get(ctx, 1, second)
	require.NoError(t, err)
	assert.True(t, got.Read)

	empty, err := svc.MarkAllAsRead(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
