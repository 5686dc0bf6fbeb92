package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByProfileName(ctx context.Context, profileName string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	FindConflicts(ctx context.Context, email, profileName string, excludeID uint) (map[string]string, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) ([]string, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository over gorm
type PostgresUserRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser inserts a user. A taken email or profile name yields a Conflict.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "", "user already exists")
}

// GetUserByID retrieves a user by ID
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *PostgresUserRepository) GetUserByProfileName(ctx context.Context, profileName string) (*models.User, error) {
	return r.findOne(ctx, "profile_name = ?", profileName)
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.findOne(ctx, "firebase_uid = ?", firebaseUID)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &user, nil
}

// FindConflicts reports which of email and profileName are already used by
// a user other than excludeID. Empty values are not checked.
func (r *PostgresUserRepository) FindConflicts(ctx context.Context, email, profileName string, excludeID uint) (map[string]string, error) {
	conflicts := map[string]string{}
	check := func(column, value string) error {
		if value == "" {
			return nil
		}
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.User{}).
			Where(column+" = ? AND id <> ?", value, excludeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			conflicts[column] = "already taken"
		}
		return nil
	}
	if err := check("email", strings.ToLower(email)); err != nil {
		return nil, err
	}
	if err := check("profile_name", profileName); err != nil {
		return nil, err
	}
	return conflicts, nil
}

// GetUsers retrieves all users
func (r *PostgresUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser saves every column of user
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "", "user already exists")
}

// DeleteUser removes a user together with its follow edges, reactions,
// comments and posts, and returns the media filenames of the removed posts.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uint) ([]string, error) {
	var filenames []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Model(&models.Media{}).Where("post_id IN (?)", postIDs).Pluck("filename", &filenames).Error; err != nil {
			return err
		}
		steps := []struct {
			model interface{}
			query string
			args  []interface{}
		}{
			{&models.Follow{}, "follower_id = ? OR following_id = ?", []interface{}{id, id}},
			{&models.Reaction{}, "user_id = ? OR post_id IN (?)", []interface{}{id, postIDs}},
			{&models.Comment{}, "author_id = ? OR post_id IN (?)", []interface{}{id, postIDs}},
			{&models.Media{}, "post_id IN (?)", []interface{}{postIDs}},
			{&models.Post{}, "author_id = ?", []interface{}{id}},
		}
		for _, s := range steps {
			if err := tx.Where(s.query, s.args...).Delete(s.model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "user not found", "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filenames, nil
}

// SearchUsers searches for users by name or profile name
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	like := "%" + strings.ToLower(query) + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(profile_name) LIKE ?", like, like).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
