package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, handle string) *models.User {
	t.Helper()
	u := &models.User{Email: handle + "@example.com", ProfileName: handle, Name: handle}
	require.NoError(t, NewPostgresUserRepository(db).CreateUser(context.Background(), u))
	return u
}

func seedPost(t *testing.T, db *gorm.DB, author uint, caption string, files ...string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: author, Caption: caption}
	for i, f := range files {
		p.Medias = append(p.Medias, models.Media{Position: i, Filename: f})
	}
	require.NoError(t, NewPostgresPostRepository(db).CreatePost(context.Background(), p))
	return p
}
