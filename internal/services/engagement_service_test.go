package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeUnlike(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	post := e.post(t, alice, "hello")

	_, err := e.engagement.LikePost(ctx, alice, post.ID)
	require.NoError(t, err)

	_, err = e.engagement.LikePost(ctx, alice, post.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	var n int64
	require.NoError(t, e.db.Model(&models.Reaction{}).Where("post_id = ? AND user_id = ?", post.ID, alice.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	likes, err := e.engagement.Likes(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, "alice", likes[0].User.ProfileName)

	require.NoError(t, e.engagement.UnlikePost(ctx, alice, post.ID))
	liked, err := e.engagement.HasLiked(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	assert.ErrorIs(t, e.engagement.UnlikePost(ctx, alice, post.ID), apperror.ErrInvalidOperation)

	_, err = e.engagement.LikePost(ctx, alice, post.ID)
	require.NoError(t, err, "liking again after unlike")

	_, err = e.engagement.LikePost(ctx, alice, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = e.engagement.HasLiked(ctx, 999, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, alice, "")

	c, err := e.engagement.CreateComment(ctx, bob, post.ID, "nice")
	require.NoError(t, err)
	require.NotNil(t, c.Author)
	assert.Equal(t, "bob", c.Author.ProfileName)

	_, err = e.engagement.CreateComment(ctx, bob, 999, "lost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, e.engagement.DeleteComment(ctx, alice, c.ID), apperror.ErrUnauthorized)
	list, err := e.engagement.Comments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "comment survives a foreign delete")

	require.NoError(t, e.engagement.DeleteComment(ctx, bob, c.ID))
	assert.ErrorIs(t, e.engagement.DeleteComment(ctx, bob, c.ID), apperror.ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	post := e.post(t, alice, "bye")

	_, err := e.engagement.LikePost(ctx, bob, post.ID)
	require.NoError(t, err)
	_, err = e.engagement.CreateComment(ctx, bob, post.ID, "wait")
	require.NoError(t, err)

	mediaPath := filepath.Join(e.files.BasePath(), storage.FolderMedias, post.Medias[0].Filename)
	_, err = os.Stat(mediaPath)
	require.NoError(t, err)

	assert.ErrorIs(t, e.engagement.DeletePost(ctx, bob, post.ID), apperror.ErrUnauthorized)
	_, err = e.postSvc.GetPost(ctx, post.ID, 0)
	require.NoError(t, err, "post survives a foreign delete")

	require.NoError(t, e.engagement.DeletePost(ctx, alice, post.ID))

	for _, model := range []interface{}{&models.Media{}, &models.Comment{}, &models.Reaction{}} {
		var n int64
		require.NoError(t, e.db.Model(model).Where("post_id = ?", post.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
	_, err = os.Stat(mediaPath)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, e.engagement.DeletePost(ctx, alice, post.ID), apperror.ErrNotFound)
}
