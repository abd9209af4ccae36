package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func CreatePasswordReset(ctx context.Context, db *sql.DB, userID int, token string, expires time.Time) error {
	_, err := db.ExecContext(ctx, `INSERT INTO password_resets (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		token, userID, time.Now().UTC(), expires.UTC())
	return err
}

// CheckPasswordReset returns the reset if token belongs to userID, has not
// been used and has not expired.
func CheckPasswordReset(ctx context.Context, db *sql.DB, userID int, token string) (*PasswordReset, error) {
	row := db.QueryRowContext(ctx, `SELECT token, user_id, created_at, expires_at, used_at FROM password_resets WHERE token = $1`, token)
	var pr PasswordReset
	var used sql.NullTime
	err := row.Scan(&pr.Token, &pr.UserID, &pr.CreatedAt, &pr.ExpiresAt, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if used.Valid {
		pr.UsedAt = &used.Time
	}
	if pr.UserID != userID || pr.UsedAt != nil || !time.Now().Before(pr.ExpiresAt) {
		return nil, ErrInvalidToken
	}
	return &pr, nil
}

// ConsumePasswordReset validates the token, then sets the new password and
// marks the token used in one transaction.
func ConsumePasswordReset(ctx context.Context, db *sql.DB, userID int, token, password string) error {
	if _, err := CheckPasswordReset(ctx, db, userID, token); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `UPDATE password_resets SET used_at = $1 WHERE token = $2 AND used_at IS NULL`, time.Now().UTC(), token)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return ErrInvalidToken
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), userID); err != nil {
		return err
	}
	return tx.Commit()
}
