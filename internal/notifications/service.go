package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
)

// Service keeps notification state, device tokens and preferences, and
// drives push delivery.
//
// Preference and token reads are followed by writes without any concurrency
// control. Two concurrent updates for the same user can lose one of them.
type Service struct {
	store  Store
	pusher Pusher
	now    func() time.Time
}

// NewService creates a new notification Service
func NewService(store Store, pusher Pusher) *Service {
	return &Service{store: store, pusher: pusher, now: time.Now}
}

// timestampLayout has fixed width so stored timestamps sort as strings
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *Service) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

// SendFollowNotification records a FOLLOW notification for followingID and,
// unless the recipient opted out of FOLLOW pushes, pushes it to their devices.
func (s *Service) SendFollowNotification(ctx context.Context, follower *models.User, followingID uint) error {
	n := models.Notification{
		Type:       models.NotificationFollow,
		FollowerID: &follower.ID,
		Timestamp:  s.timestamp(),
		Read:       false,
	}
	id, err := s.store.Push(ctx, ReceivedPath(followingID), n)
	if err != nil {
		return fmt.Errorf("record follow notification: %w", err)
	}

	enabled, err := s.followEnabled(ctx, followingID)
	if err != nil {
		return err
	}
	l := logger.Ctx(ctx)
	if !enabled {
		l.Debug().Uint(logger.FieldUserID, followingID).Msg("follow push skipped by preference")
		return nil
	}

	tokens, err := s.tokens(ctx, followingID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	return s.pusher.SendMulticast(ctx, tokens, Message{
		Body: fmt.Sprintf("@%s is now following you", follower.ProfileName),
		Data: map[string]string{
			"id":                  id,
			"type":                string(models.NotificationFollow),
			"followerId":          strconv.FormatUint(uint64(follower.ID), 10),
			"followerProfileName": follower.ProfileName,
			"timestamp":           n.Timestamp,
			"read":                "false",
		},
	})
}

// SendPostNotification pushes a new post to the author's topic
func (s *Service) SendPostNotification(ctx context.Context, author *models.User, post *models.Post) error {
	title := "New post from @" + author.ProfileName
	if post.Caption != "" {
		title += ": " + post.Caption
	}
	return s.pusher.SendTopic(ctx, AuthorTopic(author.ID), Message{
		Title: title,
		Data: map[string]string{
			"type":      string(models.NotificationNewPost),
			"authorId":  strconv.FormatUint(uint64(author.ID), 10),
			"postId":    strconv.FormatUint(uint64(post.ID), 10),
			"timestamp": s.timestamp(),
		},
	})
}

// UpdatePostPreference stores whether userID wants pushes for authorID's new
// posts and (un)subscribes every registered device of userID to the author topic.
// Disabling removes the stored preference.
func (s *Service) UpdatePostPreference(ctx context.Context, userID, authorID uint, enabled bool) error {
	path := postPreferencePath(userID, authorID)
	if enabled {
		if err := s.store.Set(ctx, path, true); err != nil {
			return err
		}
	} else if err := s.store.Delete(ctx, path); err != nil {
		return err
	}

	tokens, err := s.tokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	if enabled {
		return s.pusher.SubscribeToTopic(ctx, tokens, AuthorTopic(authorID))
	}
	return s.pusher.UnsubscribeFromTopic(ctx, tokens, AuthorTopic(authorID))
}

// UpdateFollowPreference stores whether userID wants FOLLOW pushes
func (s *Service) UpdateFollowPreference(ctx context.Context, userID uint, enabled bool) error {
	return s.store.Set(ctx, followPreferencePath(userID), enabled)
}

// Preferences returns the stored preferences of userID
func (s *Service) Preferences(ctx context.Context, userID uint) (*models.NotificationPreferences, error) {
	prefs := &models.NotificationPreferences{}
	if _, err := s.store.Get(ctx, PreferencesPath(userID), prefs); err != nil {
		return nil, err
	}
	if prefs.NewPost == nil {
		prefs.NewPost = map[string]bool{}
	}
	return prefs, nil
}

// StoreToken registers a device and subscribes it to every author the user
// currently follows posts from.
func (s *Service) StoreToken(ctx context.Context, userID uint, token string) (*models.DeviceToken, error) {
	if !validKey(token) {
		return nil, apperror.InvalidOperation("invalid device token")
	}
	dt := &models.DeviceToken{Timestamp: s.timestamp()}
	if err := s.store.Update(ctx, tokenPath(userID, token), map[string]interface{}{"timestamp": dt.Timestamp}); err != nil {
		return nil, err
	}

	authors, err := s.subscribedAuthors(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, author := range authors {
		if err := s.pusher.SubscribeToTopic(ctx, []string{token}, authorTopic(author)); err != nil {
			return nil, err
		}
	}
	return dt, nil
}

// DeleteToken deregisters a device and unsubscribes it from the author topics
func (s *Service) DeleteToken(ctx context.Context, userID uint, token string) error {
	if !validKey(token) {
		return apperror.InvalidOperation("invalid device token")
	}
	if err := s.store.Delete(ctx, tokenPath(userID, token)); err != nil {
		return err
	}

	authors, err := s.subscribedAuthors(ctx, userID)
	if err != nil {
		return err
	}
	for _, author := range authors {
		if err := s.pusher.UnsubscribeFromTopic(ctx, []string{token}, authorTopic(author)); err != nil {
			return err
		}
	}
	return nil
}

// RemoveUser drops the notification state of a deleted user. Its devices are
// unsubscribed from every followed author topic, and each of followerIDs loses
// its NEW_POST preference and subscription for the user. Every step is tried;
// failures are joined.
func (s *Service) RemoveUser(ctx context.Context, userID uint, followerIDs []uint) error {
	var errs []error
	for _, followerID := range followerIDs {
		errs = append(errs, s.UpdatePostPreference(ctx, followerID, userID, false))
	}

	tokens, err := s.tokens(ctx, userID)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	if len(tokens) > 0 {
		authors, err := s.subscribedAuthors(ctx, userID)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		for _, author := range authors {
			errs = append(errs, s.pusher.UnsubscribeFromTopic(ctx, tokens, authorTopic(author)))
		}
	}

	errs = append(errs, s.store.Delete(ctx, userPath(userID)))
	return errors.Join(errs...)
}

// List returns the received notifications of userID, newest first
func (s *Service) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	received, err := s.received(ctx, userID)
	if err != nil {
		return nil, err
	}
	list := make([]models.Notification, 0, len(received))
	for id, n := range received {
		n.ID = id
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Timestamp != list[j].Timestamp {
			return list[i].Timestamp > list[j].Timestamp
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

// Get returns one received notification
func (s *Service) Get(ctx context.Context, userID uint, id string) (*models.Notification, error) {
	if !validKey(id) {
		return nil, apperror.NotFound("notification not found")
	}
	var n models.Notification
	found, err := s.store.Get(ctx, receivedItemPath(userID, id), &n)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NotFound("notification not found")
	}
	n.ID = id
	return &n, nil
}

// MarkAsRead flips the read flag of one notification
func (s *Service) MarkAsRead(ctx context.Context, userID uint, id string) (*models.Notification, error) {
	n, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, receivedItemPath(userID, id)+"/read", true); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// MarkAllAsRead flips the read flag of every notification of userID
func (s *Service) MarkAllAsRead(ctx context.Context, userID uint) ([]models.Notification, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}
	fields := make(map[string]interface{}, len(list))
	for i := range list {
		fields[list[i].ID+"/read"] = true
		list[i].Read = true
	}
	if err := s.store.Update(ctx, ReceivedPath(userID), fields); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) received(ctx context.Context, userID uint) (map[string]models.Notification, error) {
	received := map[string]models.Notification{}
	if _, err := s.store.Get(ctx, ReceivedPath(userID), &received); err != nil {
		return nil, err
	}
	return received, nil
}

// followEnabled treats a missing preference as opted in
func (s *Service) followEnabled(ctx context.Context, userID uint) (bool, error) {
	var enabled bool
	found, err := s.store.Get(ctx, followPreferencePath(userID), &enabled)
	if err != nil {
		return false, err
	}
	return !found || enabled, nil
}

func (s *Service) tokens(ctx context.Context, userID uint) ([]string, error) {
	stored := map[string]models.DeviceToken{}
	if _, err := s.store.Get(ctx, TokensPath(userID), &stored); err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(stored))
	for token := range stored {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens, nil
}

// subscribedAuthors lists the author keys whose NEW_POST preference is true
func (s *Service) subscribedAuthors(ctx context.Context, userID uint) ([]string, error) {
	prefs := map[string]bool{}
	if _, err := s.store.Get(ctx, postPreferencesPath(userID), &prefs); err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(prefs))
	for author, enabled := range prefs {
		if enabled {
			authors = append(authors, author)
		}
	}
	sort.Strings(authors)
	return authors, nil
}
