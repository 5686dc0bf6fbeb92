package router

import (
	"fmt"

	"github.com/anonto42/nano-midea/socialgraph/internal/auth"
	"github.com/anonto42/nano-midea/socialgraph/internal/handlers"
	"github.com/anonto42/nano-midea/socialgraph/internal/middleware"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies are the process-level components the routes are built from
type Dependencies struct {
	DB            *gorm.DB
	Files         storage.Provider
	StaticDir     string // served under /static when media is stored on local disk
	Notifications *notifications.Service
	Tasks         notifications.TaskDispatcher
	Tokens        *auth.TokenManager
	Firebase      auth.IDTokenVerifier
	AuthProvider  string
	PasswordCost  int
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log zerolog.Logger) {
	e.Use(middleware.RequestLogger(log))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.Metrics())
	log.Debug().Msg("global middleware configured")
}

// SetupRoutes migrates the schema, wires services and registers every route
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	l := logger.L()

	if err := repositories.AutoMigrate(deps.DB); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	l.Info().Msg("auto-migrations completed")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.DB)
	followRepo := repositories.NewPostgresFollowRepository(deps.DB)
	postRepo := repositories.NewPostgresPostRepository(deps.DB)
	commentRepo := repositories.NewPostgresCommentRepository(deps.DB)
	reactionRepo := repositories.NewPostgresReactionRepository(deps.DB)

	// --- Initialize Services ---
	userService := services.NewUserService(services.UserServiceConfig{
		Users:        userRepo,
		Follows:      followRepo,
		Posts:        postRepo,
		Reactions:    reactionRepo,
		Files:        deps.Files,
		Notifier:     deps.Notifications,
		Tasks:        deps.Tasks,
		Tokens:       deps.Tokens,
		Firebase:     deps.Firebase,
		PasswordCost: deps.PasswordCost,
	})
	graphService := services.NewSocialGraphService(userRepo, followRepo, deps.Notifications, deps.Tasks, deps.Files)
	postService := services.NewPostService(userRepo, postRepo, reactionRepo, deps.Files, deps.Notifications, deps.Tasks)
	engagementService := services.NewEngagementService(postRepo, commentRepo, reactionRepo, deps.Files)
	feedService := services.NewFeedService(followRepo, postRepo, reactionRepo, deps.Files)

	var resolve middleware.CallerResolver
	switch deps.AuthProvider {
	case "firebase":
		if deps.Firebase == nil {
			return fmt.Errorf("firebase auth provider selected without a firebase auth client")
		}
		resolve = middleware.FirebaseResolver(userService)
	default:
		resolve = middleware.JWTResolver(deps.Tokens)
	}
	guards := handlers.Guards{
		Required: middleware.RequireAuth(resolve),
		Optional: middleware.OptionalAuth(resolve),
	}

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(deps.DB).HealthCheck)

	if deps.StaticDir != "" {
		e.Static("/static", deps.StaticDir)
		l.Info().Str("dir", deps.StaticDir).Msg("serving uploaded files under /static")
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userService).RegisterAuthRoutes(authGroup)

	api := e.Group("/api/v1")

	handlers.NewUserHandler(userService).RegisterUserRoutes(api, guards)
	handlers.NewFollowHandler(graphService, userService).RegisterFollowRoutes(api, guards)
	handlers.NewFeedHandler(feedService).RegisterFeedRoutes(api, guards)
	handlers.NewPostHandler(postService, engagementService).RegisterPostRoutes(api, guards)
	handlers.NewLikeHandler(engagementService).RegisterLikeRoutes(api, guards)
	handlers.NewCommentHandler(engagementService).RegisterCommentRoutes(api, guards)

	handlers.NewNotificationHandler(deps.Notifications).RegisterNotificationRoutes(api, guards)

	l.Info().Int("routes", len(e.Routes())).Msg("all routes configured")
	return nil
}
