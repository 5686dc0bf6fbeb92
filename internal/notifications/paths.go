package notifications

import (
	"fmt"
	"strings"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
)

const rootPath = "/notifications"

func userPath(userID uint) string {
	return fmt.Sprintf("%s/%d", rootPath, userID)
}

// ReceivedPath is where a user's notifications are appended
func ReceivedPath(userID uint) string {
	return userPath(userID) + "/received"
}

func receivedItemPath(userID uint, id string) string {
	return ReceivedPath(userID) + "/" + id
}

// TokensPath holds the device tokens of a user, keyed by token
func TokensPath(userID uint) string {
	return userPath(userID) + "/tokens"
}

func tokenPath(userID uint, token string) string {
	return TokensPath(userID) + "/" + token
}

// PreferencesPath holds per-type (and per-author for NEW_POST) preferences
func PreferencesPath(userID uint) string {
	return userPath(userID) + "/preferences"
}

func followPreferencePath(userID uint) string {
	return PreferencesPath(userID) + "/" + string(models.NotificationFollow)
}

func postPreferencesPath(userID uint) string {
	return PreferencesPath(userID) + "/" + string(models.NotificationNewPost)
}

func postPreferencePath(userID, authorID uint) string {
	return fmt.Sprintf("%s/%d", postPreferencesPath(userID), authorID)
}

// AuthorTopic is the push topic carrying an author's new posts
func AuthorTopic(authorID uint) string {
	return authorTopic(fmt.Sprint(authorID))
}

func authorTopic(authorKey string) string {
	return authorKey + "-" + string(models.NotificationNewPost)
}

// splitPath turns "/a/b/c" into [a b c]
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// validKey reports whether s can be used as a single path segment
func validKey(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".$#[]/")
}
