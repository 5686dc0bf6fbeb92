// Package services holds the social graph, engagement, post, feed and user logic.
package services

import (
	"context"
	"io"
	"strconv"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
)

// Notifier is the part of the notification service the domain services trigger
type Notifier interface {
	SendFollowNotification(ctx context.Context, follower *models.User, followingID uint) error
	SendPostNotification(ctx context.Context, author *models.User, post *models.Post) error
	UpdatePostPreference(ctx context.Context, userID, authorID uint, enabled bool) error
	RemoveUser(ctx context.Context, userID uint, followerIDs []uint) error
}

var _ Notifier = (*notifications.Service)(nil)

// Background task names
const (
	taskFollowNotification = "follow_notification"
	taskPostNotification   = "post_notification"
	taskPostPreference     = "post_preference"
	taskRemoveUser         = "remove_user_notifications"
)

// userTaskKey orders the background tasks touching one user's notification state
func userTaskKey(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// FileUpload is an uploaded file handed to a service
type FileUpload struct {
	Filename string
	Content  io.Reader
}

// urlResolver fills the public URLs of stored files
type urlResolver struct {
	storage storage.Provider
}

func (r urlResolver) user(u *models.User) {
	if u == nil {
		return
	}
	u.AvatarURL = nil
	if u.Avatar != nil && *u.Avatar != "" {
		url := r.storage.URL(storage.FolderAvatars, *u.Avatar)
		u.AvatarURL = &url
	}
}

func (r urlResolver) users(users []models.User) []models.User {
	for i := range users {
		r.user(&users[i])
	}
	return users
}

func (r urlResolver) post(p *models.Post) {
	r.user(p.Author)
	for i := range p.Medias {
		p.Medias[i].URL = r.storage.URL(storage.FolderMedias, p.Medias[i].Filename)
	}
}
