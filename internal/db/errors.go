package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Store errors shared by every UserStore implementation
var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user with email or username already exists")
)

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// normalizeError maps driver errors onto the store errors above
func normalizeError(err error) error {
	switch {
	case err == nil:
		return nil
	case IsNoRows(err), errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case isUniqueViolation(err), mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
