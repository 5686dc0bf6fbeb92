package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUnfollow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	_, err := e.graph.Follow(ctx, alice, "bob")
	require.NoError(t, err)

	ok, err := e.graph.IsFollowing(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.graph.IsFollowing(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "follow edges are directed")

	require.NoError(t, e.graph.Unfollow(ctx, alice, "bob"))
	ok, err = e.graph.IsFollowing(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")

	t.Run("self follow", func(t *testing.T) {
		_, err := e.graph.Follow(ctx, alice, "alice")
		assert.ErrorIs(t, err, apperror.ErrInvalidOperation)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := e.graph.Follow(ctx, alice, "nobody")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.ErrorIs(t, e.graph.Unfollow(ctx, alice, "nobody"), apperror.ErrNotFound)
		_, err = e.graph.IsFollowing(ctx, alice.ID, "nobody")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("unfollow without follow", func(t *testing.T) {
		assert.ErrorIs(t, e.graph.Unfollow(ctx, alice, "bob"), apperror.ErrInvalidOperation)
		var n int64
		require.NoError(t, e.db.Model(&models.Follow{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("follow twice", func(t *testing.T) {
		_, err := e.graph.Follow(ctx, alice, "bob")
		require.NoError(t, err)
		_, err = e.graph.Follow(ctx, alice, "bob")
		assert.ErrorIs(t, err, apperror.ErrConflict)

		var n int64
		require.NoError(t, e.db.Model(&models.Follow{}).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})
}

func TestFollowSideEffects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	_, err := e.notifications.StoreToken(ctx, bob.ID, "bob-phone")
	require.NoError(t, err)
	_, err = e.notifications.StoreToken(ctx, alice.ID, "alice-phone")
	require.NoError(t, err)

	_, err = e.graph.Follow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Empty(t, e.tasks.errors)

	received, err := e.notifications.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, models.NotificationFollow, received[0].Type)
	require.NotNil(t, received[0].FollowerID)
	assert.Equal(t, alice.ID, *received[0].FollowerID)

	multicasts := e.pusher.ops("multicast")
	require.Len(t, multicasts, 1)
	assert.Equal(t, []string{"bob-phone"}, multicasts[0].tokens)
	assert.Equal(t, "@alice is now following you", multicasts[0].msg.Body)

	prefs, err := e.notifications.Preferences(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, prefs.NewPost["2"])

	topic := notifications.AuthorTopic(bob.ID)
	subs := e.pusher.ops("subscribe")
	require.Len(t, subs, 1)
	assert.Equal(t, topic, subs[0].topic)
	assert.Equal(t, []string{"alice-phone"}, subs[0].tokens)

	require.NoError(t, e.graph.Unfollow(ctx, alice, "bob"))
	unsubs := e.pusher.ops("unsubscribe")
	require.Len(t, unsubs, 1)
	assert.Equal(t, topic, unsubs[0].topic)
	assert.Equal(t, []string{"alice-phone"}, unsubs[0].tokens)

	prefs, err = e.notifications.Preferences(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, prefs.NewPost)
}

func TestFollowOptOutSkipsPush(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	_, err := e.notifications.StoreToken(ctx, bob.ID, "bob-phone")
	require.NoError(t, err)
	require.NoError(t, e.notifications.UpdateFollowPreference(ctx, bob.ID, false))

	_, err = e.graph.Follow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Empty(t, e.pusher.ops("multicast"))

	received, err := e.notifications.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, received, 1)
}

func TestFollowSurvivesNotificationFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	_, err := e.notifications.StoreToken(ctx, bob.ID, "bob-phone")
	require.NoError(t, err)
	e.pusher.err = errors.New("fcm unavailable")

	_, err = e.graph.Follow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.NotEmpty(t, e.tasks.errors)

	ok, err := e.graph.IsFollowing(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollowersFollowing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")

	_, err := e.graph.Follow(ctx, alice, "bob")
	require.NoError(t, err)
	_, err = e.graph.Follow(ctx, carol, "bob")
	require.NoError(t, err)

	followers, err := e.graph.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	following, err := e.graph.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].ProfileName)

	_, err = e.graph.Followers(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = e.graph.Following(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// slowSubscribePusher delays topic subscriptions
type slowSubscribePusher struct {
	*recordingPusher
	delay time.Duration
}

func (p slowSubscribePusher) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	time.Sleep(p.delay)
	return p.recordingPusher.SubscribeToTopic(ctx, tokens, topic)
}

func TestUnfollowRevokesSubscriptionWithConcurrentWorkers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")

	pusher := slowSubscribePusher{recordingPusher: &recordingPusher{}, delay: 100 * time.Millisecond}
	notifier := notifications.NewService(e.store, pusher)
	dispatcher := notifications.NewDispatcher(notifications.DispatcherConfig{Workers: 4, QueueSize: 16, Timeout: time.Second})
	graph := NewSocialGraphService(e.users, e.follows, notifier, dispatcher, e.files)

	_, err := notifier.StoreToken(ctx, alice.ID, "alice-phone")
	require.NoError(t, err)

	_, err = graph.Follow(ctx, alice, "bob")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, graph.Unfollow(ctx, alice, "bob"))
	require.NoError(t, dispatcher.Close(ctx))

	var topicOps []string
	for _, c := range pusher.calls {
		if c.op == "subscribe" || c.op == "unsubscribe" {
			topicOps = append(topicOps, c.op)
		}
	}
	assert.Equal(t, []string{"subscribe", "unsubscribe"}, topicOps)

	prefs, err := notifier.Preferences(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, prefs.NewPost)
}
