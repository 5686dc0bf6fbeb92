package services

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
)

// postAnnotator turns posts into FeedPosts for one viewer
type postAnnotator struct {
	posts     repositories.PostRepository
	reactions repositories.ReactionRepository
	urls      urlResolver
}

// annotate adds counts, media URLs and, when viewerID is not 0, the viewer's like state
func (a postAnnotator) annotate(ctx context.Context, posts []models.Post, viewerID uint) ([]models.FeedPost, error) {
	out := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	likes, err := a.posts.GetLikesCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := a.posts.GetCommentsCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked := map[uint]bool{}
	if viewerID != 0 {
		if liked, err = a.reactions.GetLikedPostIDs(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}

	for _, p := range posts {
		a.urls.post(&p)
		out = append(out, models.FeedPost{
			Post:          p,
			Liked:         liked[p.ID],
			LikesCount:    likes[p.ID],
			CommentsCount: comments[p.ID],
		})
	}
	return out, nil
}

// FeedService composes timelines from the follow graph
type FeedService struct {
	follows repositories.FollowRepository
	posts   repositories.PostRepository
	postAnnotator
}

// NewFeedService creates a new FeedService
func NewFeedService(
	follows repositories.FollowRepository,
	posts repositories.PostRepository,
	reactions repositories.ReactionRepository,
	files storage.Provider,
) *FeedService {
	return &FeedService{
		follows:       follows,
		posts:         posts,
		postAnnotator: postAnnotator{posts: posts, reactions: reactions, urls: urlResolver{storage: files}},
	}
}

// Timeline returns the posts of every user userID follows, newest first.
// A user following nobody gets an empty timeline.
func (s *FeedService) Timeline(ctx context.Context, userID uint) ([]models.FeedPost, error) {
	following, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return []models.FeedPost{}, nil
	}
	posts, err := s.posts.GetPostsByAuthors(ctx, following)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, posts, userID)
}
