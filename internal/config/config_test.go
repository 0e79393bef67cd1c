package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultValues(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.Server.Production())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.Auth.RefreshTokenExpiry)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "/", cfg.Auth.CookiePath)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "vidhub", cfg.Mongo.Database)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, "minio", cfg.Media.Backend)
	assert.Equal(t, "vidhub-media", cfg.Media.Bucket)
	assert.Equal(t, int64(8<<20), cfg.Upload.MaxMemory)
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*testing.T, Config)
	}{
		{
			name: "server override",
			envVars: map[string]string{
				"PORT":        "9090",
				"APP_ENV":     "production",
				"CORS_ORIGIN": "https://a.example.com,https://b.example.com",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.Equal(t, "9090", cfg.Server.Port)
				assert.True(t, cfg.Server.Production())
				assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
			},
		},
		{
			name: "auth override",
			envVars: map[string]string{
				"ACCESS_TOKEN_SECRET":  "access",
				"ACCESS_TOKEN_EXPIRY":  "15m",
				"REFRESH_TOKEN_SECRET": "refresh",
				"REFRESH_TOKEN_EXPIRY": "72h",
				"AUTH_COOKIE_SAMESITE": "strict",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.Equal(t, "access", cfg.Auth.AccessTokenSecret)
				assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenExpiry)
				assert.Equal(t, "refresh", cfg.Auth.RefreshTokenSecret)
				assert.Equal(t, 72*time.Hour, cfg.Auth.RefreshTokenExpiry)
				assert.Equal(t, "strict", cfg.Auth.CookieSameSite)
			},
		},
		{
			name: "store override",
			envVars: map[string]string{
				"STORE_DRIVER":     "postgres",
				"DATABASE_URL":     "postgres://u:p@db:5432/vidhub",
				"MONGODB_URI":      "mongodb://mongo:27017",
				"MONGODB_DATABASE": "accounts",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.Equal(t, "postgres", cfg.Store.Driver)
				assert.Equal(t, "postgres://u:p@db:5432/vidhub", cfg.Postgres.DatabaseURL)
				assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
				assert.Equal(t, "accounts", cfg.Mongo.Database)
			},
		},
		{
			name: "media override",
			envVars: map[string]string{
				"MEDIA_BACKEND":         "s3",
				"MEDIA_ENDPOINT":        "https://s3.example.com",
				"MEDIA_ACCESS_KEY":      "ak",
				"MEDIA_SECRET_KEY":      "sk",
				"MEDIA_BUCKET":          "avatars",
				"MEDIA_USE_SSL":         "true",
				"MEDIA_PUBLIC_BASE_URL": "https://cdn.example.com",
				"UPLOAD_TEMP_DIR":       "/var/tmp/vidhub",
			},
			expected: func(t *testing.T, cfg Config) {
				assert.Equal(t, "s3", cfg.Media.Backend)
				assert.Equal(t, "https://s3.example.com", cfg.Media.Endpoint)
				assert.Equal(t, "ak", cfg.Media.AccessKey)
				assert.Equal(t, "sk", cfg.Media.SecretKey)
				assert.Equal(t, "avatars", cfg.Media.Bucket)
				assert.True(t, cfg.Media.UseSSL)
				assert.Equal(t, "https://cdn.example.com", cfg.Media.PublicBaseURL)
				assert.Equal(t, "/var/tmp/vidhub", cfg.Upload.TempDir)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Parse()
			require.NoError(t, err)

			tt.expected(t, cfg)
		})
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRY", "one day")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
