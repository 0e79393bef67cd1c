package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestBuildPostgresURL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PostgresConfig
		want    string
		wantErr bool
	}{
		{
			name: "database url wins",
			cfg:  config.PostgresConfig{DatabaseURL: "postgres://u:p@db:5432/app", User: "ignored", Database: "ignored"},
			want: "postgres://u:p@db:5432/app",
		},
		{
			name: "parts with password",
			cfg:  config.PostgresConfig{Host: "db", Port: "6543", User: "app", Password: "secret", Database: "vidhub", SSLMode: "require"},
			want: "postgres://app:secret@db:6543/vidhub?sslmode=require",
		},
		{
			name: "parts with defaults",
			cfg:  config.PostgresConfig{User: "app", Database: "vidhub"},
			want: "postgres://app@localhost:5432/vidhub?sslmode=disable",
		},
		{
			name:    "missing user",
			cfg:     config.PostgresConfig{Database: "vidhub"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildPostgresURL(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildUserUpdate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("only updated_at", func(t *testing.T) {
		query, args := buildUserUpdate("u1", model.UserPatch{}, now)
		assert.True(t, strings.HasPrefix(query, "UPDATE users SET updated_at = $1 WHERE id = $2 RETURNING "))
		assert.Equal(t, []any{now, "u1"}, args)
	})

	t.Run("several fields", func(t *testing.T) {
		query, args := buildUserUpdate("u1", model.UserPatch{
			FullName:     model.StringPtr("Ann Lee"),
			Email:        model.StringPtr("ann@x.com"),
			RefreshToken: model.StringPtr("rt"),
		}, now)
		assert.Contains(t, query, "full_name = $1, email = $2, refresh_token = $3, updated_at = $4 WHERE id = $5")
		assert.Equal(t, []any{"Ann Lee", "ann@x.com", "rt", now, "u1"}, args)
	})

	t.Run("clear refresh token", func(t *testing.T) {
		query, args := buildUserUpdate("u1", model.UserPatch{RefreshToken: model.StringPtr("")}, now)
		assert.Contains(t, query, "refresh_token = NULL, updated_at = $1 WHERE id = $2")
		assert.Equal(t, []any{now, "u1"}, args)
	})

	t.Run("images and password", func(t *testing.T) {
		query, args := buildUserUpdate("u1", model.UserPatch{
			Avatar:       model.StringPtr("a"),
			CoverImage:   model.StringPtr("c"),
			PasswordHash: model.StringPtr("h"),
		}, now)
		assert.Contains(t, query, "avatar = $1, cover_image = $2, password_hash = $3, updated_at = $4 WHERE id = $5")
		assert.Len(t, args, 5)
	})
}

func TestNormalizeError(t *testing.T) {
	other := errors.New("boom")

	assert.Nil(t, normalizeError(nil))
	assert.ErrorIs(t, normalizeError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, normalizeError(mongo.ErrNoDocuments), ErrNotFound)
	assert.ErrorIs(t, normalizeError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, normalizeError(other), other)
	assert.NotErrorIs(t, normalizeError(&pgconn.PgError{Code: "23503"}), ErrDuplicate)
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := fs.ReadFile(migrations, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS users")
}

func newMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrations_Success(t *testing.T) {
	db := newMockDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if got != db {
			return errors.New("unexpected db")
		}
		gotDir = dir
		return nil
	}

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db := newMockDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err := RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations: boom")
}
