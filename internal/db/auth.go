package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vidhub/backend/internal/model"
)

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, refresh_token, watch_history, created_at, updated_at`

func (db *Postgres) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	if email == "" && username == "" {
		return nil, ErrNotFound
	}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND username = $2)
		LIMIT 1
	`
	user, err := scanUser(db.Pool.QueryRow(ctx, query, email, username))
	if err != nil {
		return nil, normalizeError(err)
	}
	return user, nil
}

func (db *Postgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	user, err := scanUser(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, normalizeError(err)
	}
	return user, nil
}

func (db *Postgres) Create(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.WatchHistory == nil {
		user.WatchHistory = []string{}
	}
	now := db.now().UTC()

	query := `
		INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, watch_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + userColumns
	created, err := scanUser(db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.Avatar,
		user.CoverImage,
		user.PasswordHash,
		user.WatchHistory,
		now,
	))
	if err != nil {
		return nil, normalizeError(err)
	}
	return created, nil
}

func (db *Postgres) UpdateFields(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	query, args := buildUserUpdate(id, patch, db.now().UTC())
	user, err := scanUser(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, normalizeError(err)
	}
	return user, nil
}

// buildUserUpdate renders an UPDATE touching only the patched columns.
// updated_at is always set; the id is the last argument.
func buildUserUpdate(id string, patch model.UserPatch, now time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	if patch.CoverImage != nil {
		add("cover_image", *patch.CoverImage)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.RefreshToken != nil {
		if *patch.RefreshToken == "" {
			sets = append(sets, "refresh_token = NULL")
		} else {
			add("refresh_token", *patch.RefreshToken)
		}
	}
	add("updated_at", now)

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns,
	)
	return query, args
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user         model.User
		refreshToken *string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Avatar,
		&user.CoverImage,
		&user.PasswordHash,
		&refreshToken,
		&user.WatchHistory,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refreshToken != nil {
		user.RefreshToken = *refreshToken
	}
	return &user, nil
}
