package models

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateUsername  = errors.New("a user with that username already exists")
	ErrDuplicateSlug      = errors.New("a group with that slug already exists")
	ErrInvalidUsername    = errors.New("username may contain only letters, digits and @/./+/-/_ characters")
	ErrInvalidSlug        = errors.New("slug may contain only latin letters, digits, hyphens and underscores")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("password reset link is invalid or has expired")
	ErrEmptyText          = errors.New("post text must not be empty")
	ErrEmptyTitle         = errors.New("group title must not be empty")
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	return false
}
