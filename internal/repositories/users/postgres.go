package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const uniqueViolation = "23505"

type PostgresRepository struct {
	db DBTX
}

func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, fcm_token, created_at, updated_at FROM users
		 WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, fcm_token, created_at, updated_at FROM users
		 WHERE LOWER(email) = LOWER($1)`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	query :=
		`SELECT id, email, password_hash, fcm_token, created_at, updated_at FROM users
		 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// SetPushToken stores or, with a nil token, clears the push token.
func (r *PostgresRepository) SetPushToken(ctx context.Context, id string, token *string) error {
	query :=
		`UPDATE users SET fcm_token = $2, updated_at = NOW()
		 WHERE id = $1`
	return r.execOne(ctx, query, id, token)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = NOW()
		 WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) CreateResetToken(ctx context.Context, t models.PasswordResetToken) error {
	query :=
		`INSERT INTO password_reset_tokens (token, user_id, expires_at)
		 VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, t.Token, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ConsumeResetToken marks the token used and returns its user in one
// statement, so a token can be redeemed at most once.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, error) {
	query :=
		`UPDATE password_reset_tokens SET used = TRUE
		 WHERE token = $1 AND used = FALSE AND expires_at > $2
		 RETURNING user_id`

	var userID string
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var token sql.NullString
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &token, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if token.Valid && token.String != "" {
		u.FCMToken = &token.String
	}
	return &u, nil
}
