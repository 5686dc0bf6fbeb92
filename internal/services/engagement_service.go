package services

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
)

// EngagementService owns likes, comments and post deletion
type EngagementService struct {
	posts     repositories.PostRepository
	comments  repositories.CommentRepository
	reactions repositories.ReactionRepository
	files     storage.Provider
	urls      urlResolver
}

// NewEngagementService creates a new EngagementService
func NewEngagementService(
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	reactions repositories.ReactionRepository,
	files storage.Provider,
) *EngagementService {
	return &EngagementService{
		posts:     posts,
		comments:  comments,
		reactions: reactions,
		files:     files,
		urls:      urlResolver{storage: files},
	}
}

// LikePost adds the caller's like. Liking twice is a Conflict.
func (s *EngagementService) LikePost(ctx context.Context, caller models.AuthenticatedCaller, postID uint) (*models.Reaction, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	liked, err := s.reactions.HasUserLikedPost(ctx, postID, caller.ID)
	if err != nil {
		return nil, err
	}
	if liked {
		return nil, apperror.Conflict("post already liked")
	}

	reaction := &models.Reaction{PostID: postID, UserID: caller.ID}
	if err := s.reactions.CreateReaction(ctx, reaction); err != nil {
		return nil, err
	}
	return reaction, nil
}

// UnlikePost removes the caller's like, or fails with InvalidOperation when there is none
func (s *EngagementService) UnlikePost(ctx context.Context, caller models.AuthenticatedCaller, postID uint) error {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return err
	}
	return s.reactions.DeleteReaction(ctx, postID, caller.ID)
}

// HasLiked reports whether userID likes the post
func (s *EngagementService) HasLiked(ctx context.Context, postID, userID uint) (bool, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return false, err
	}
	return s.reactions.HasUserLikedPost(ctx, postID, userID)
}

// Likes lists the likes of a post with the liking users
func (s *EngagementService) Likes(ctx context.Context, postID uint) ([]models.Reaction, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	reactions, err := s.reactions.GetReactionsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	for i := range reactions {
		s.urls.user(reactions[i].User)
	}
	return reactions, nil
}

// CreateComment adds a comment. Text is validated by the caller.
func (s *EngagementService) CreateComment(ctx context.Context, caller models.AuthenticatedCaller, postID uint, text string) (*models.Comment, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, AuthorID: caller.ID, Text: text}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	s.urls.user(comment.Author)
	return comment, nil
}

// Comments lists the comments of a post, oldest first
func (s *EngagementService) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		s.urls.user(comments[i].Author)
	}
	return comments, nil
}

// DeleteComment deletes a comment written by the caller
func (s *EngagementService) DeleteComment(ctx context.Context, caller models.AuthenticatedCaller, commentID uint) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != caller.ID {
		return apperror.Unauthorized("only the author can delete this comment")
	}
	return s.comments.DeleteComment(ctx, commentID)
}

// DeletePost deletes a post written by the caller together with its medias,
// comments and likes. Stored files that cannot be removed are logged.
func (s *EngagementService) DeletePost(ctx context.Context, caller models.AuthenticatedCaller, postID uint) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != caller.ID {
		return apperror.Unauthorized("only the author can delete this post")
	}

	filenames, err := s.posts.DeletePostCascade(ctx, postID)
	if err != nil {
		return err
	}

	l := logger.Ctx(ctx)
	for _, name := range filenames {
		if err := s.files.Delete(ctx, name, storage.FolderMedias); err != nil {
			l.Warn().Err(err).Str("file", name).Uint("post_id", postID).Msg("failed to remove media file")
		}
	}
	return nil
}
