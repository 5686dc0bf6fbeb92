package services

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
)

// PostService creates and reads posts
type PostService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	files    storage.Provider
	notifier Notifier
	tasks    notifications.TaskDispatcher
	postAnnotator
}

// NewPostService creates a new PostService
func NewPostService(
	users repositories.UserRepository,
	posts repositories.PostRepository,
	reactions repositories.ReactionRepository,
	files storage.Provider,
	notifier Notifier,
	tasks notifications.TaskDispatcher,
) *PostService {
	return &PostService{
		users:         users,
		posts:         posts,
		files:         files,
		notifier:      notifier,
		tasks:         tasks,
		postAnnotator: postAnnotator{posts: posts, reactions: reactions, urls: urlResolver{storage: files}},
	}
}

// CreatePost stores the uploads in order and creates the post. Followers are
// notified in the background.
func (s *PostService) CreatePost(ctx context.Context, caller models.AuthenticatedCaller, caption string, uploads []FileUpload) (*models.FeedPost, error) {
	if len(uploads) == 0 || len(uploads) > storage.MaxMediaPerPost {
		return nil, apperror.InvalidOperation(fmt.Sprintf("a post needs between 1 and %d medias", storage.MaxMediaPerPost))
	}

	author, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: author.ID, Caption: caption}
	for i, u := range uploads {
		name, err := s.files.Save(ctx, u.Content, u.Filename, storage.FolderMedias)
		if err != nil {
			s.removeFiles(ctx, post.Medias)
			return nil, fmt.Errorf("failed to store %s: %w", u.Filename, err)
		}
		post.Medias = append(post.Medias, models.Media{Position: i, Filename: name})
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.removeFiles(ctx, post.Medias)
		return nil, err
	}
	post.Author = author

	notified, created := *author, *post
	s.tasks.Dispatch(ctx, taskPostNotification, userTaskKey(author.ID), func(ctx context.Context) error {
		return s.notifier.SendPostNotification(ctx, &notified, &created)
	})

	view := models.FeedPost{Post: *post}
	s.urls.post(&view.Post)
	return &view, nil
}

// GetPost returns a post as seen by viewerID (0 for anonymous)
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.FeedPost, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.annotate(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListPosts pages over every post, newest first
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, offset, limit int) ([]models.FeedPost, error) {
	posts, err := s.posts.GetAllPosts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, posts, viewerID)
}

// UpdateCaption changes the caption of a post written by the caller
func (s *PostService) UpdateCaption(ctx context.Context, caller models.AuthenticatedCaller, postID uint, caption string) (*models.FeedPost, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != caller.ID {
		return nil, apperror.Unauthorized("only the author can edit this post")
	}
	if err := s.posts.UpdateCaption(ctx, postID, caption); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, postID, caller.ID)
}

func (s *PostService) removeFiles(ctx context.Context, medias []models.Media) {
	l := logger.Ctx(ctx)
	for _, m := range medias {
		if err := s.files.Delete(ctx, m.Filename, storage.FolderMedias); err != nil {
			l.Warn().Err(err).Str("file", m.Filename).Msg("failed to remove orphaned media file")
		}
	}
}
