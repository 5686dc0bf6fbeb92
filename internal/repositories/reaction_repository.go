package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for like data operations
type ReactionRepository interface {
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	DeleteReaction(ctx context.Context, postID, userID uint) error
	HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error)
	GetReactionsByPostID(ctx context.Context, postID uint) ([]models.Reaction, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
}

// PostgresReactionRepository implements ReactionRepository over gorm
type PostgresReactionRepository struct {
	db *gorm.DB
}

var _ ReactionRepository = (*PostgresReactionRepository)(nil)

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// CreateReaction stores a like; the (post, user) unique index rejects a second one
func (r *PostgresReactionRepository) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	return translate(r.db.WithContext(ctx).Create(reaction).Error, "", "post already liked")
}

// DeleteReaction removes a like, or fails with InvalidOperation when there is none
func (r *PostgresReactionRepository) DeleteReaction(ctx context.Context, postID, userID uint) error {
	res := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Reaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.InvalidOperation("post is not liked")
	}
	return nil
}

// HasUserLikedPost checks if a user has liked a specific post
func (r *PostgresReactionRepository) HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetReactionsByPostID lists the likes of a post with the liking users
func (r *PostgresReactionRepository) GetReactionsByPostID(ctx context.Context, postID uint) ([]models.Reaction, error) {
	reactions := []models.Reaction{}
	err := r.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&reactions).Error
	return reactions, err
}

// GetLikedPostIDs returns the subset of postIDs liked by userID
func (r *PostgresReactionRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool)
	if len(postIDs) == 0 {
		return liked, nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
