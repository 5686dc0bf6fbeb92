package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/auth"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/anonto42/nano-midea/socialgraph/internal/router"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/anonto42/nano-midea/socialgraph/pkg/config"
	"github.com/anonto42/nano-midea/socialgraph/pkg/firebase"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/anonto42/nano-midea/socialgraph/pkg/metrics"
	"github.com/anonto42/nano-midea/socialgraph/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Pretty:      !cfg.IsProduction(),
		ServiceName: "socialgraph-api",
	})
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	// Initialize Firebase
	var fb *firebase.App
	if cfg.NeedsFirebase() {
		fb, err = firebase.InitFirebase(ctx, firebase.Options{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			DatabaseURL:     cfg.FirebaseDatabaseURL,
			Auth:            cfg.AuthProvider == "firebase",
			Messaging:       cfg.PushProvider == "fcm",
			Database:        cfg.NotificationStore == "firebase",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize firebase")
		}
	}

	var store notifications.Store
	switch cfg.NotificationStore {
	case "firebase":
		store = notifications.NewFirebaseStore(fb.DatabaseClient)
	case "mongo":
		store = notifications.NewMongoStore(db.Mongo.Database(cfg.MongoDB))
	default:
		store = notifications.NewMemoryStore()
	}

	var pusher notifications.Pusher = notifications.LogPusher{}
	if cfg.PushProvider == "fcm" {
		pusher = notifications.NewFCMPusher(fb.MessagingClient)
	}

	var files storage.Provider
	staticDir := ""
	switch cfg.Storage.Driver {
	case "minio":
		files, err = storage.NewMinIOStorage(ctx, storage.MinIOConfig(cfg.Storage.MinIO))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize minio storage")
		}
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.AppURL+"/static")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize local storage")
		}
		files, staticDir = local, local.BasePath()
	}

	dispatcher := notifications.NewDispatcher(notifications.DispatcherConfig{
		Workers:   cfg.DispatchWorkers,
		QueueSize: cfg.DispatchQueueSize,
		Timeout:   cfg.DispatchTimeout,
	})

	var verifier auth.IDTokenVerifier
	if fb != nil && fb.AuthClient != nil {
		verifier = fb.AuthClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e, log)

	// Setup routes and dependencies
	err = router.SetupRoutes(e, router.Dependencies{
		DB:            db.SQL,
		Files:         files,
		StaticDir:     staticDir,
		Notifications: notifications.NewService(store, pusher),
		Tasks:         dispatcher,
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry),
		Firebase:      verifier,
		AuthProvider:  cfg.AuthProvider,
		PasswordCost:  cfg.PasswordCost,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up routes")
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	// Start server
	go func() {
		log.Info().Str("port", cfg.Port).Msg("api server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notification tasks still pending at shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown")
	}
}
