package services

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
)

// SocialGraphService owns follow edges and keeps NEW_POST subscriptions in
// line with them. Notification side effects run in the background after the
// edge change is committed and never change the outcome of the call.
type SocialGraphService struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	notifier Notifier
	tasks    notifications.TaskDispatcher
	urls     urlResolver
}

// NewSocialGraphService creates a new SocialGraphService
func NewSocialGraphService(
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	notifier Notifier,
	tasks notifications.TaskDispatcher,
	files storage.Provider,
) *SocialGraphService {
	return &SocialGraphService{
		users:    users,
		follows:  follows,
		notifier: notifier,
		tasks:    tasks,
		urls:     urlResolver{storage: files},
	}
}

// Follow makes caller follow the user with profile name handle
func (s *SocialGraphService) Follow(ctx context.Context, caller models.AuthenticatedCaller, handle string) (*models.Follow, error) {
	target, err := s.users.GetUserByProfileName(ctx, handle)
	if err != nil {
		return nil, err
	}
	if target.ID == caller.ID {
		return nil, apperror.InvalidOperation("you cannot follow yourself")
	}

	already, err := s.follows.IsFollowing(ctx, caller.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperror.Conflict("already following this user")
	}

	follower, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	follow := &models.Follow{FollowerID: caller.ID, FollowingID: target.ID}
	if err := s.follows.CreateFollow(ctx, follow); err != nil {
		return nil, err
	}

	s.tasks.Dispatch(ctx, taskFollowNotification, userTaskKey(target.ID), func(ctx context.Context) error {
		return s.notifier.SendFollowNotification(ctx, follower, target.ID)
	})
	s.tasks.Dispatch(ctx, taskPostPreference, userTaskKey(caller.ID), func(ctx context.Context) error {
		return s.notifier.UpdatePostPreference(ctx, caller.ID, target.ID, true)
	})
	return follow, nil
}

// Unfollow removes the edge from caller to handle and revokes the caller's
// subscription to the author's posts.
func (s *SocialGraphService) Unfollow(ctx context.Context, caller models.AuthenticatedCaller, handle string) error {
	target, err := s.users.GetUserByProfileName(ctx, handle)
	if err != nil {
		return err
	}
	if err := s.follows.DeleteFollow(ctx, caller.ID, target.ID); err != nil {
		return err
	}

	s.tasks.Dispatch(ctx, taskPostPreference, userTaskKey(caller.ID), func(ctx context.Context) error {
		return s.notifier.UpdatePostPreference(ctx, caller.ID, target.ID, false)
	})
	return nil
}

// IsFollowing reports whether followerID follows handle
func (s *SocialGraphService) IsFollowing(ctx context.Context, followerID uint, handle string) (bool, error) {
	target, err := s.users.GetUserByProfileName(ctx, handle)
	if err != nil {
		return false, err
	}
	return s.follows.IsFollowing(ctx, followerID, target.ID)
}

// Followers lists the users following userID
func (s *SocialGraphService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.urls.users(users), nil
}

// Following lists the users userID follows
func (s *SocialGraphService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.urls.users(users), nil
}
