package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFollowRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	require.NoError(t, repo.CreateFollow(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}))
	require.NoError(t, repo.CreateFollow(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: carol.ID}))
	require.NoError(t, repo.CreateFollow(ctx, &models.Follow{FollowerID: carol.ID, FollowingID: bob.ID}))

	err := repo.CreateFollow(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	ok, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")

	followers, err := repo.GetFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{alice.ID, carol.ID}, userIDs(followers))

	following, err := repo.GetFollowing(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, userIDs(following))

	ids, err := repo.GetFollowingIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, ids)

	n, err := repo.GetFollowersCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = repo.GetFollowingCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.DeleteFollow(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, repo.DeleteFollow(ctx, alice.ID, bob.ID), apperror.ErrInvalidOperation)
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
