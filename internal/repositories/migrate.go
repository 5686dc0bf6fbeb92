package repositories

import (
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every relational table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Media{},
		&models.Comment{},
		&models.Reaction{},
	)
}
