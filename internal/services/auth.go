package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/apperror"
	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
	"github.com/AnshRaj112/tastetracker-backend/internal/session"
	"github.com/AnshRaj112/tastetracker-backend/pkg/utils"
)

const (
	ResetTokenDuration = time.Hour
	// ForgotPasswordMessage is returned whether or not the address is known.
	ForgotPasswordMessage = "If an account exists for that email, a password reset link has been sent"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = users.ErrEmailTaken
	ErrResetTokenInvalid  = users.ErrTokenInvalid
)

type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordInput struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthService owns account creation, sign-in and password recovery.
type AuthService struct {
	users    users.Repository
	sessions *SessionStore
	mailer   Mailer
	validate *validator.Validate
	resetURL string
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(u users.Repository, sessions *SessionStore, mailer Mailer, resetURLBase string, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    u,
		sessions: sessions,
		mailer:   mailer,
		validate: apperror.NewValidator(),
		resetURL: resetURLBase,
		log:      log.Named("auth"),
		now:      time.Now,
	}
}

func (a *AuthService) validEmail(email string) bool {
	return a.validate.Var(email, "emailfmt") == nil
}

func validateNewPassword(password, confirm string) error {
	if len(password) < utils.MinPasswordLength {
		return apperror.Invalid("password", fmt.Sprintf("Password must be at least %d characters", utils.MinPasswordLength))
	}
	if password != confirm {
		return apperror.Invalid("confirm_password", "Passwords do not match")
	}
	return nil
}

// SignUp creates the account and opens its first session.
func (a *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.User, session.Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, session.Session{}, apperror.Invalid("", "All fields are required")
	}
	if !a.validEmail(email) {
		return nil, session.Session{}, apperror.Invalid("email", "Invalid email format")
	}
	if err := validateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, session.Session{}, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("hash password: %w", err)
	}
	now := a.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        utils.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, session.Session{}, err
	}

	sess, err := a.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, session.Session{}, err
	}
	a.log.Info("user signed up", zap.String("user_id", user.ID))
	return user, sess, nil
}

func (a *AuthService) SignIn(ctx context.Context, in SignInInput) (*models.User, session.Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, session.Session{}, apperror.Invalid("", "Email and password are required")
	}
	if !a.validEmail(email) {
		return nil, session.Session{}, apperror.Invalid("email", "Invalid email format")
	}

	user, err := a.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, users.ErrNotFound) {
		return nil, session.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, session.Session{}, err
	}
	ok, err := utils.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		a.log.Error("stored password hash unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, session.Session{}, ErrInvalidCredentials
	}
	if !ok {
		return nil, session.Session{}, ErrInvalidCredentials
	}

	sess, err := a.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, session.Session{}, err
	}
	return user, sess, nil
}

func (a *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return a.users.GetByID(ctx, userID)
}

func (a *AuthService) SignOut(ctx context.Context, s session.Session) error {
	return a.sessions.Invalidate(ctx, s.Token)
}

// ForgotPassword mails a reset link when the address belongs to an
// account. Unknown addresses succeed silently.
func (a *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperror.Invalid("email", "Email is required")
	}
	if !a.validEmail(email) {
		return apperror.Invalid("email", "Invalid email format")
	}

	user, err := a.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, users.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	now := a.now().UTC()
	err = a.users.CreateResetToken(ctx, models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(ResetTokenDuration),
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	link := a.resetURL + "?token=" + url.QueryEscape(token)
	err = a.mailer.Send(ctx, MailMessage{
		To:      []string{user.Email},
		Subject: "Reset your TasteTracker password",
		Text:    "Use the link below to choose a new password. It expires in one hour.\r\n\r\n" + link + "\r\n",
	})
	if err != nil {
		// the token stays valid; the user can simply ask again
		a.log.Error("failed to send reset email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token and signs the user out everywhere.
func (a *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if strings.TrimSpace(in.Token) == "" {
		return apperror.Invalid("token", "Reset token is required")
	}
	if err := validateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return err
	}

	userID, err := a.users.ConsumeResetToken(ctx, in.Token, a.now().UTC())
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := a.sessions.InvalidateUser(ctx, userID); err != nil {
		a.log.Warn("failed to invalidate sessions after reset", zap.String("user_id", userID), zap.Error(err))
	}
	a.log.Info("password reset", zap.String("user_id", userID))
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
