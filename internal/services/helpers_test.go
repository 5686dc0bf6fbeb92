package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/auth"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// inlineDispatcher runs tasks synchronously and keeps their errors
type inlineDispatcher struct {
	mu     sync.Mutex
	names  []string
	keys   []string
	errors []error
}

func (d *inlineDispatcher) Dispatch(ctx context.Context, name, key string, task notifications.Task) {
	err := task(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.keys = append(d.keys, key)
	if err != nil {
		d.errors = append(d.errors, err)
	}
}

type pushCall struct {
	op     string
	tokens []string
	topic  string
	msg    notifications.Message
}

// recordingPusher implements notifications.Pusher and remembers every call
type recordingPusher struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
}

func (p *recordingPusher) record(c pushCall) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	return p.err
}

func (p *recordingPusher) SendMulticast(_ context.Context, tokens []string, msg notifications.Message) error {
	return p.record(pushCall{op: "multicast", tokens: tokens, msg: msg})
}

func (p *recordingPusher) SendTopic(_ context.Context, topic string, msg notifications.Message) error {
	return p.record(pushCall{op: "topic", topic: topic, msg: msg})
}

func (p *recordingPusher) SubscribeToTopic(_ context.Context, tokens []string, topic string) error {
	return p.record(pushCall{op: "subscribe", tokens: tokens, topic: topic})
}

func (p *recordingPusher) UnsubscribeFromTopic(_ context.Context, tokens []string, topic string) error {
	return p.record(pushCall{op: "unsubscribe", tokens: tokens, topic: topic})
}

func (p *recordingPusher) ops(op string) []pushCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushCall
	for _, c := range p.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type env struct {
	db            *gorm.DB
	users         *repositories.PostgresUserRepository
	follows       *repositories.PostgresFollowRepository
	posts         *repositories.PostgresPostRepository
	comments      *repositories.PostgresCommentRepository
	reactions     *repositories.PostgresReactionRepository
	files         *storage.LocalStorage
	store         *notifications.MemoryStore
	pusher        *recordingPusher
	notifications *notifications.Service
	tasks         *inlineDispatcher

	graph      *SocialGraphService
	engagement *EngagementService
	postSvc    *PostService
	feed       *FeedService
	userSvc    *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repositories.AutoMigrate(db))

	files, err := storage.NewLocalStorage(t.TempDir(), "http://test/static")
	require.NoError(t, err)

	e := &env{
		db:        db,
		users:     repositories.NewPostgresUserRepository(db),
		follows:   repositories.NewPostgresFollowRepository(db),
		posts:     repositories.NewPostgresPostRepository(db),
		comments:  repositories.NewPostgresCommentRepository(db),
		reactions: repositories.NewPostgresReactionRepository(db),
		files:     files,
		store:     notifications.NewMemoryStore(),
		pusher:    &recordingPusher{},
		tasks:     &inlineDispatcher{},
	}
	e.notifications = notifications.NewService(e.store, e.pusher)

	e.graph = NewSocialGraphService(e.users, e.follows, e.notifications, e.tasks, files)
	e.engagement = NewEngagementService(e.posts, e.comments, e.reactions, files)
	e.postSvc = NewPostService(e.users, e.posts, e.reactions, files, e.notifications, e.tasks)
	e.feed = NewFeedService(e.follows, e.posts, e.reactions, files)
	e.userSvc = NewUserService(UserServiceConfig{
		Users:        e.users,
		Follows:      e.follows,
		Posts:        e.posts,
		Reactions:    e.reactions,
		Files:        files,
		Notifier:     e.notifications,
		Tasks:        e.tasks,
		Tokens:       auth.NewTokenManager("test-secret", time.Hour),
		PasswordCost: bcrypt.MinCost,
	})
	return e
}

func (e *env) user(t *testing.T, handle string) models.AuthenticatedCaller {
	t.Helper()
	u := &models.User{Email: handle + "@example.com", ProfileName: handle, Name: handle}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	return models.AuthenticatedCaller{ID: u.ID, Email: u.Email}
}

func (e *env) post(t *testing.T, author models.AuthenticatedCaller, caption string) *models.FeedPost {
	t.Helper()
	p, err := e.postSvc.CreatePost(context.Background(), author, caption, []FileUpload{
		{Filename: "a.png", Content: strings.NewReader("a")},
	})
	require.NoError(t, err)
	return p
}
