package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings of the API process
type Config struct {
	Port     string
	Env      string
	LogLevel string
	AppURL   string

	Database DatabaseConfig
	MongoURI string
	MongoDB  string

	JWTSecret    string
	JWTExpiry    time.Duration
	AuthProvider string // jwt or firebase
	PasswordCost int

	FirebaseCredentialsPath string
	FirebaseDatabaseURL     string
	NotificationStore       string // firebase, mongo or memory
	PushProvider            string // fcm or log

	Storage StorageConfig

	MetricsPort string

	DispatchWorkers   int
	DispatchQueueSize int
	DispatchTimeout   time.Duration
}

// DatabaseConfig selects and locates the relational store
type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	PostgresURL  string
	SQLitePath   string
	MaxIdleConns int
	MaxOpenConns int
}

// StorageConfig selects the media storage backend
type StorageConfig struct {
	Driver    string // local or minio
	UploadDir string
	MinIO     MinIOConfig
}

// MinIOConfig holds the object store connection settings
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (if any), config.yaml (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("PORT"),
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		AppURL:   strings.TrimSuffix(v.GetString("APP_URL"), "/"),
		Database: DatabaseConfig{
			Driver:       v.GetString("DB_DRIVER"),
			PostgresURL:  v.GetString("POSTGRES_CONN_STR"),
			SQLitePath:   v.GetString("SQLITE_PATH"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDB:                 v.GetString("MONGO_DATABASE"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTExpiry:               v.GetDuration("JWT_EXPIRY"),
		AuthProvider:            v.GetString("AUTH_PROVIDER"),
		PasswordCost:            v.GetInt("PASSWORD_COST"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		FirebaseDatabaseURL:     v.GetString("FIREBASE_DATABASE_URL"),
		NotificationStore:       v.GetString("NOTIFICATION_STORE"),
		PushProvider:            v.GetString("PUSH_PROVIDER"),
		Storage: StorageConfig{
			Driver:    v.GetString("STORAGE_DRIVER"),
			UploadDir: v.GetString("UPLOAD_DIR"),
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				Bucket:    v.GetString("MINIO_BUCKET"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
				PublicURL: strings.TrimSuffix(v.GetString("MINIO_PUBLIC_URL"), "/"),
			},
		},
		MetricsPort:       v.GetString("METRICS_PORT"),
		DispatchWorkers:   v.GetInt("DISPATCH_WORKERS"),
		DispatchQueueSize: v.GetInt("DISPATCH_QUEUE_SIZE"),
		DispatchTimeout:   v.GetDuration("DISPATCH_TIMEOUT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "socialgraph.db")
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("MONGO_DATABASE", "socialmedia")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("JWT_EXPIRY", 72*time.Hour)
	v.SetDefault("AUTH_PROVIDER", "jwt")
	v.SetDefault("PASSWORD_COST", 10)
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json")
	v.SetDefault("NOTIFICATION_STORE", "firebase")
	v.SetDefault("PUSH_PROVIDER", "fcm")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_BUCKET", "socialgraph")
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_QUEUE_SIZE", 256)
	v.SetDefault("DISPATCH_TIMEOUT", 10*time.Second)
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.NotificationStore {
	case "firebase":
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL environment variable not set")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported NOTIFICATION_STORE %q", c.NotificationStore)
	}

	if c.AuthProvider != "jwt" && c.AuthProvider != "firebase" {
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}
	if c.PushProvider != "fcm" && c.PushProvider != "log" {
		return fmt.Errorf("unsupported PUSH_PROVIDER %q", c.PushProvider)
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "minio" {
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.IsProduction() && c.JWTSecret == "supersecretjwtkey" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// NeedsFirebase reports whether any configured component talks to Firebase
func (c *Config) NeedsFirebase() bool {
	return c.NotificationStore == "firebase" || c.PushProvider == "fcm" || c.AuthProvider == "firebase"
}
