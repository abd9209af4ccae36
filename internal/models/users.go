package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const MaxUsernameLen = 150

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// NewUser carries the fields needed to register an account.
type NewUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// ValidUsername reports whether name is an acceptable username.
func ValidUsername(name string) bool {
	return len([]rune(name)) <= MaxUsernameLen && usernameRe.MatchString(name)
}

// CreateUser hashes the password and stores a new user. An empty password
// stores an unusable hash, so the account cannot log in until one is set.
func CreateUser(ctx context.Context, db *sql.DB, nu NewUser) (*User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	if !ValidUsername(nu.Username) {
		return nil, ErrInvalidUsername
	}
	if _, err := GetUserByUsername(ctx, db, nu.Username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var hash string
	if nu.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}

	u := User{
		Username:     nu.Username,
		Email:        strings.TrimSpace(nu.Email),
		FirstName:    strings.TrimSpace(nu.FirstName),
		LastName:     strings.TrimSpace(nu.LastName),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	err := db.QueryRowContext(ctx, `INSERT INTO users (username, email, first_name, last_name, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return &u, nil
}

const userColumns = `id, username, email, first_name, last_name, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, db *sql.DB, id int) (*User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// ListUsersByEmail returns every account registered with email. Emails are
// not unique, so a reset request may reach several accounts.
func ListUsersByEmail(ctx context.Context, db *sql.DB, email string) ([]User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND email <> '' ORDER BY id`, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Authenticate returns the user whose username and password match.
func Authenticate(ctx context.Context, db *sql.DB, username, password string) (*User, error) {
	u, err := GetUserByUsername(ctx, db, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CheckPassword compares password against the user's stored hash.
func CheckPassword(u *User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func SetPassword(ctx context.Context, db *sql.DB, userID int, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteUser removes the user together with their posts, sessions and reset
// tokens.
func DeleteUser(ctx context.Context, db *sql.DB, id int) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
