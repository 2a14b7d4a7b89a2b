package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"velym/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns the SQLite implementation of Repository.
// Timestamps are written in UTC so that text ordering matches time ordering.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("could not insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		profile.ID, profile.Email, profile.FullName, profile.AvatarURL, profile.CreatedAt.UTC(), profile.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("could not insert profile: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (r *sqliteRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE id = ?", userID)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *sqliteRepository) CreateSession(ctx context.Context, s *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		s.ID, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

func (r *sqliteRepository) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?", sessionID)
	var s model.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *sqliteRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

func (r *sqliteRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

func (r *sqliteRepository) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO password_resets (token_hash, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		reset.TokenHash, reset.UserID, reset.CreatedAt.UTC(), reset.ExpiresAt.UTC())
	return err
}

// ConsumePasswordReset marks an unused, unexpired grant as used and returns
// its user id. Unknown, used and expired grants all yield ErrNotFound.
func (r *sqliteRepository) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID string
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM password_resets WHERE token_hash = ? AND used_at IS NULL",
		tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !now.Before(expiresAt) {
		return "", ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "UPDATE password_resets SET used_at = ? WHERE token_hash = ?", now.UTC(), tokenHash); err != nil {
		return "", fmt.Errorf("could not mark reset token used: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return userID, nil
}

func (r *sqliteRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, full_name, avatar_url, created_at, updated_at FROM profiles WHERE id = ?", userID)
	var p model.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) UpdateProfileName(ctx context.Context, userID, fullName string) (*model.Profile, error) {
	return r.updateProfile(ctx, userID, "full_name", fullName)
}

func (r *sqliteRepository) UpdateProfileAvatar(ctx context.Context, userID, avatarURL string) (*model.Profile, error) {
	return r.updateProfile(ctx, userID, "avatar_url", avatarURL)
}

// updateProfile sets one column and bumps updated_at. column is never user input.
func (r *sqliteRepository) updateProfile(ctx context.Context, userID, column, value string) (*model.Profile, error) {
	query := fmt.Sprintf("UPDATE profiles SET %s = ?, updated_at = ? WHERE id = ?", column)
	res, err := r.db.ExecContext(ctx, query, value, time.Now().UTC(), userID)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return r.GetProfile(ctx, userID)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// parseTimestamp reads a timestamp that the driver returned as text, which
// happens for aggregate expressions with no declared column type.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSuffix(s, "Z")
	layouts := append([]string{time.RFC3339Nano}, sqlite3.SQLiteTimestampFormats...)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
