package models

// NotificationType tags a stored notification
type NotificationType string

const (
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationNewPost NotificationType = "NEW_POST"
)

// Notification is a received notification kept in the notification store
// under /notifications/{userId}/received/{id}. Timestamp is RFC 3339.
type Notification struct {
	ID         string           `json:"id,omitempty" bson:"-"`
	Type       NotificationType `json:"type" bson:"type"`
	FollowerID *uint            `json:"followerId,omitempty" bson:"followerId,omitempty"`
	PostID     *uint            `json:"postId,omitempty" bson:"postId,omitempty"`
	AuthorID   *uint            `json:"authorId,omitempty" bson:"authorId,omitempty"`
	Timestamp  string           `json:"timestamp" bson:"timestamp"`
	Read       bool             `json:"read" bson:"read"`
}

// DeviceToken is stored under /notifications/{userId}/tokens/{token}
type DeviceToken struct {
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// NotificationPreferences mirrors /notifications/{userId}/preferences.
// A nil Follow means the user never opted out.
type NotificationPreferences struct {
	Follow  *bool           `json:"FOLLOW,omitempty" bson:"FOLLOW,omitempty"`
	NewPost map[string]bool `json:"NEW_POST,omitempty" bson:"NEW_POST,omitempty"`
}

// RegisterTokenRequest carries an FCM device token
type RegisterTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// PostPreferenceRequest toggles NEW_POST pushes for one author
type PostPreferenceRequest struct {
	AuthorID uint  `json:"author_id" validate:"required"`
	Enabled  *bool `json:"enabled" validate:"required"`
}

// FollowPreferenceRequest toggles FOLLOW pushes
type FollowPreferenceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
