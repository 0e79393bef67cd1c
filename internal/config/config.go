package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel int `env:"LOG_LEVEL" envDefault:"0"`
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Mongo    MongoConfig    `envPrefix:"MONGODB_"`
	Postgres PostgresConfig
	Media    MediaConfig    `envPrefix:"MEDIA_"`
	Upload   UploadConfig   `envPrefix:"UPLOAD_"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8000"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	GinMode         string        `env:"GIN_MODE"`
	CORSOrigins     []string      `env:"CORS_ORIGIN" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (s ServerConfig) Production() bool {
	return s.Env == "production"
}

type AuthConfig struct {
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"24h"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"`
	BcryptCost         int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	// Empty means "secure only in production"
	CookieSecure   string `env:"AUTH_COOKIE_SECURE"`
	CookieSameSite string `env:"AUTH_COOKIE_SAMESITE"`
	CookieDomain   string `env:"AUTH_COOKIE_DOMAIN"`
	CookiePath     string `env:"AUTH_COOKIE_PATH" envDefault:"/"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"mongo"`
}

type MongoConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"vidhub"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" envDefault:"localhost"`
	Port        string `env:"PGPORT" envDefault:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" envDefault:"disable"`
}

type MediaConfig struct {
	Backend       string `env:"BACKEND" envDefault:"minio"`
	Endpoint      string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	Bucket        string `env:"BUCKET" envDefault:"vidhub-media"`
	Region        string `env:"REGION" envDefault:"us-east-1"`
	UseSSL        bool   `env:"USE_SSL" envDefault:"false"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

type UploadConfig struct {
	TempDir   string `env:"TEMP_DIR"`
	MaxMemory int64  `env:"MAX_MEMORY" envDefault:"8388608"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
