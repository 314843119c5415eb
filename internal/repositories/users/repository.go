// Package users stores accounts, push tokens and password reset tokens in
// PostgreSQL.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenInvalid covers unknown, used and expired reset tokens alike.
	ErrTokenInvalid = errors.New("reset token invalid or expired")
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetPushToken(ctx context.Context, id string, token *string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	CreateResetToken(ctx context.Context, t models.PasswordResetToken) error
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (string, error)
}
