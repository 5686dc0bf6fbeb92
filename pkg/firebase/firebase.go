package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Options selects which Firebase clients are created
type Options struct {
	CredentialsPath string
	DatabaseURL     string
	Auth            bool
	Messaging       bool
	Database        bool
}

// App holds the initialized Firebase app and the clients the server uses.
// Clients that were not requested stay nil.
type App struct {
	FirebaseApp     *firebase.App
	AuthClient      *auth.Client
	MessagingClient *messaging.Client
	DatabaseClient  *db.Client
}

// InitFirebase initializes the Firebase application and the requested clients
func InitFirebase(ctx context.Context, opts Options) (*App, error) {
	if opts.CredentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(opts.CredentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", opts.CredentialsPath)
	}

	var conf *firebase.Config
	if opts.DatabaseURL != "" {
		conf = &firebase.Config{DatabaseURL: opts.DatabaseURL}
	}

	firebaseApp, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(opts.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	app := &App{FirebaseApp: firebaseApp}

	if opts.Auth {
		if app.AuthClient, err = firebaseApp.Auth(ctx); err != nil {
			return nil, fmt.Errorf("error getting firebase auth client: %w", err)
		}
	}
	if opts.Messaging {
		if app.MessagingClient, err = firebaseApp.Messaging(ctx); err != nil {
			return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
		}
	}
	if opts.Database {
		if app.DatabaseClient, err = firebaseApp.Database(ctx); err != nil {
			return nil, fmt.Errorf("error getting firebase database client: %w", err)
		}
	}

	log.Println("Firebase app initialized successfully!")
	return app, nil
}
