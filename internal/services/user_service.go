package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/auth"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts, credentials, profiles and avatars
type UserService struct {
	users        repositories.UserRepository
	follows      repositories.FollowRepository
	posts        repositories.PostRepository
	files        storage.Provider
	notifier     Notifier
	tasks        notifications.TaskDispatcher
	tokens       *auth.TokenManager
	firebase     auth.IDTokenVerifier
	passwordCost int
	postAnnotator
}

// UserServiceConfig bundles the UserService dependencies
type UserServiceConfig struct {
	Users        repositories.UserRepository
	Follows      repositories.FollowRepository
	Posts        repositories.PostRepository
	Reactions    repositories.ReactionRepository
	Files        storage.Provider
	Notifier     Notifier
	Tasks        notifications.TaskDispatcher // with Notifier, cleans up notification state of deleted accounts
	Tokens       *auth.TokenManager
	Firebase     auth.IDTokenVerifier // nil disables Firebase login
	PasswordCost int
}

// NewUserService creates a new UserService
func NewUserService(cfg UserServiceConfig) *UserService {
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:        cfg.Users,
		follows:      cfg.Follows,
		posts:        cfg.Posts,
		files:        cfg.Files,
		notifier:     cfg.Notifier,
		tasks:        cfg.Tasks,
		tokens:       cfg.Tokens,
		firebase:     cfg.Firebase,
		passwordCost: cfg.PasswordCost,
		postAnnotator: postAnnotator{
			posts:     cfg.Posts,
			reactions: cfg.Reactions,
			urls:      urlResolver{storage: cfg.Files},
		},
	}
}

// AuthResult is returned by the signup and signin flows
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a local account. A taken email or profile name is a
// Conflict naming the offending fields.
func (s *UserService) Register(ctx context.Context, req models.CreateLocalUserRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.checkConflicts(ctx, email, req.ProfileName, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:        req.Name,
		ProfileName: req.ProfileName,
		Email:       email,
		Password:    string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login checks email and password
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	return s.issue(user)
}

// LoginWithFirebase verifies a Firebase ID token and returns a local token.
// The Firebase account is linked to the user with the same email, or a new
// user is created.
func (s *UserService) LoginWithFirebase(ctx context.Context, idToken, profileName string) (*AuthResult, error) {
	if s.firebase == nil {
		return nil, apperror.InvalidOperation("firebase login is not enabled")
	}
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid firebase id token")
	}
	uid := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := s.users.GetUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	case email == "":
		return nil, apperror.Unauthorized("firebase account has no email")
	default:
		user, err = s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = &uid
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, err
			}
		case errors.Is(err, apperror.ErrNotFound):
			if user, err = s.createFirebaseUser(ctx, uid, email, name, profileName); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	return s.issue(user)
}

// CallerFromFirebaseToken resolves the local user behind a Firebase ID token
func (s *UserService) CallerFromFirebaseToken(ctx context.Context, idToken string) (*models.AuthenticatedCaller, error) {
	if s.firebase == nil {
		return nil, apperror.Unauthorized("firebase authentication is not enabled")
	}
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid firebase id token")
	}
	user, err := s.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("no account is linked to this firebase user")
		}
		return nil, err
	}
	return &models.AuthenticatedCaller{ID: user.ID, Email: user.Email}, nil
}

var nonHandleChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

func (s *UserService) createFirebaseUser(ctx context.Context, uid, email, name, profileName string) (*models.User, error) {
	if profileName == "" {
		profileName = nonHandleChars.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
		if len(profileName) < 3 {
			profileName = "user" + profileName
		}
		if len(profileName) > 40 {
			profileName = profileName[:40]
		}
		if _, err := s.users.GetUserByProfileName(ctx, profileName); err == nil {
			profileName += strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		}
	}
	if name == "" {
		name = profileName
	}
	if err := s.checkConflicts(ctx, email, profileName, 0); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:        name,
		ProfileName: profileName,
		Email:       strings.ToLower(email),
		FirebaseUID: &uid,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.urls.user(user)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) checkConflicts(ctx context.Context, email, profileName string, excludeID uint) error {
	conflicts, err := s.users.FindConflicts(ctx, email, profileName, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperror.ConflictFields("user already exists", conflicts)
	}
	return nil
}

// Profile returns the public profile of handle as seen by viewerID (0 for anonymous)
func (s *UserService) Profile(ctx context.Context, handle string, viewerID uint) (*models.UserProfile, error) {
	user, err := s.users.GetUserByProfileName(ctx, handle)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user, viewerID)
}

// Me returns the caller's own profile
func (s *UserService) Me(ctx context.Context, caller models.AuthenticatedCaller) (*models.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user, caller.ID)
}

func (s *UserService) profile(ctx context.Context, user *models.User, viewerID uint) (*models.UserProfile, error) {
	followers, err := s.follows.GetFollowersCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.GetFollowingCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	followed := false
	if viewerID != 0 && viewerID != user.ID {
		if followed, err = s.follows.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}
	posts, err := s.posts.GetPostsByAuthors(ctx, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	views, err := s.annotate(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}

	s.urls.user(user)
	return &models.UserProfile{
		User:           *user,
		FollowersCount: followers,
		FollowingCount: following,
		Followed:       followed,
		Posts:          views,
	}, nil
}

// UpdateProfile changes name, profile name or email of the caller
func (s *UserService) UpdateProfile(ctx context.Context, caller models.AuthenticatedCaller, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.checkConflicts(ctx, email, req.ProfileName, user.ID); err != nil {
		return nil, err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.ProfileName != "" {
		user.ProfileName = req.ProfileName
	}
	if email != "" {
		user.Email = email
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.urls.user(user)
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, caller models.AuthenticatedCaller, current, next string) error {
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return apperror.Unauthorized("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)
	return s.users.UpdateUser(ctx, user)
}

// UpdateAvatar stores a new avatar and removes the previous file
func (s *UserService) UpdateAvatar(ctx context.Context, caller models.AuthenticatedCaller, upload FileUpload) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	name, err := s.files.Save(ctx, upload.Content, upload.Filename, storage.FolderAvatars)
	if err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	previous := user.Avatar
	user.Avatar = &name
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if derr := s.files.Delete(ctx, name, storage.FolderAvatars); derr != nil {
			l := logger.Ctx(ctx)
			l.Warn().Err(derr).Str("file", name).Msg("failed to remove unused avatar")
		}
		return nil, err
	}

	if previous != nil && *previous != "" {
		if err := s.files.Delete(ctx, *previous, storage.FolderAvatars); err != nil {
			l := logger.Ctx(ctx)
			l.Warn().Err(err).Str("file", *previous).Msg("failed to remove previous avatar")
		}
	}
	s.urls.user(user)
	return user, nil
}

// DeleteAvatar clears the caller's avatar
func (s *UserService) DeleteAvatar(ctx context.Context, caller models.AuthenticatedCaller) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if user.Avatar != nil && *user.Avatar != "" {
		if err := s.files.Delete(ctx, *user.Avatar, storage.FolderAvatars); err != nil {
			return nil, err
		}
	}
	user.Avatar = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.urls.user(user)
	return user, nil
}

// Delete removes the caller's account and everything it owns. Notification
// state of the account and its followers is cleaned up in the background.
func (s *UserService) Delete(ctx context.Context, caller models.AuthenticatedCaller) error {
	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return err
	}
	followers, err := s.follows.GetFollowers(ctx, user.ID)
	if err != nil {
		return err
	}
	medias, err := s.users.DeleteUser(ctx, user.ID)
	if err != nil {
		return err
	}

	if s.notifier != nil && s.tasks != nil {
		followerIDs := make([]uint, len(followers))
		for i := range followers {
			followerIDs[i] = followers[i].ID
		}
		s.tasks.Dispatch(ctx, taskRemoveUser, userTaskKey(user.ID), func(ctx context.Context) error {
			return s.notifier.RemoveUser(ctx, user.ID, followerIDs)
		})
	}

	l := logger.Ctx(ctx)
	for _, name := range medias {
		if err := s.files.Delete(ctx, name, storage.FolderMedias); err != nil {
			l.Warn().Err(err).Str("file", name).Msg("failed to remove media of deleted user")
		}
	}
	if user.Avatar != nil && *user.Avatar != "" {
		if err := s.files.Delete(ctx, *user.Avatar, storage.FolderAvatars); err != nil {
			l.Warn().Err(err).Str("file", *user.Avatar).Msg("failed to remove avatar of deleted user")
		}
	}
	return nil
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	return s.urls.users(users), nil
}

// Search matches users by name or profile name
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	users, err := s.users.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.urls.users(users), nil
}

// GetByProfileName resolves a handle
func (s *UserService) GetByProfileName(ctx context.Context, handle string) (*models.User, error) {
	user, err := s.users.GetUserByProfileName(ctx, handle)
	if err != nil {
		return nil, err
	}
	s.urls.user(user)
	return user, nil
}
