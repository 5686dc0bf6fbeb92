package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostsByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error)
	GetAllPosts(ctx context.Context, offset, limit int) ([]models.Post, error)
	UpdateCaption(ctx context.Context, id uint, caption string) error
	DeletePostCascade(ctx context.Context, id uint) ([]string, error)
	GetLikesCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	GetCommentsCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

// PostgresPostRepository implements PostRepository over gorm
type PostgresPostRepository struct {
	db *gorm.DB
}

var _ PostRepository = (*PostgresPostRepository)(nil)

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts the post and its medias in one transaction
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(post).Error
	})
}

// GetPostByID loads a post with its author and ordered medias
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, translate(err, "post not found", "")
	}
	return &post, nil
}

// GetPostsByAuthors returns every post authored by one of authorIDs, newest first.
// Ties on created_at are broken by id so the order is stable.
func (r *PostgresPostRepository) GetPostsByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error) {
	posts := []models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	return posts, err
}

// GetAllPosts pages over every post, newest first
func (r *PostgresPostRepository) GetAllPosts(ctx context.Context, offset, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.withRelations(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) UpdateCaption(ctx context.Context, id uint, caption string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: id}).Update("caption", caption)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "post not found", "")
	}
	return nil
}

// DeletePostCascade deletes the post with its reactions, comments and medias
// and returns the filenames of the removed medias.
func (r *PostgresPostRepository) DeletePostCascade(ctx context.Context, id uint) ([]string, error) {
	var filenames []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Media{}).Where("post_id = ?", id).
			Order("position").Pluck("filename", &filenames).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&models.Reaction{}, &models.Comment{}, &models.Media{}} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "post not found", "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filenames, nil
}

type postCount struct {
	PostID uint
	Count  int64
}

func (r *PostgresPostRepository) GetLikesCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, &models.Reaction{}, postIDs)
}

func (r *PostgresPostRepository) GetCommentsCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, &models.Comment{}, postIDs)
}

func (r *PostgresPostRepository) countBy(ctx context.Context, model interface{}, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []postCount
	if err := r.db.WithContext(ctx).Model(model).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

func (r *PostgresPostRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").
		Preload("Medias", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}
