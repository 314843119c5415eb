package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
	"github.com/AnshRaj112/tastetracker-backend/internal/services"
	"github.com/AnshRaj112/tastetracker-backend/internal/session"
)

type userTable struct {
	mu     sync.Mutex
	byID   map[string]models.User
	resets map[string]models.PasswordResetToken
}

var _ users.Repository = (*userTable)(nil)

func newUserTable() *userTable {
	return &userTable{byID: map[string]models.User{}, resets: map[string]models.PasswordResetToken{}}
}

func (u *userTable) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return users.ErrEmailTaken
		}
	}
	u.byID[user.ID] = *user
	return nil
}

func (u *userTable) GetByID(_ context.Context, id string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &user, nil
}

func (u *userTable) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (u *userTable) List(context.Context) ([]models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]models.User, 0, len(u.byID))
	for _, user := range u.byID {
		out = append(out, user)
	}
	return out, nil
}

func (u *userTable) SetPushToken(_ context.Context, id string, token *string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.FCMToken = token
	u.byID[id] = user
	return nil
}

func (u *userTable) UpdatePassword(_ context.Context, id, hash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.PasswordHash = hash
	u.byID[id] = user
	return nil
}

func (u *userTable) CreateResetToken(_ context.Context, t models.PasswordResetToken) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resets[t.Token] = t
	return nil
}

func (u *userTable) ConsumeResetToken(_ context.Context, token string, now time.Time) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	t, ok := u.resets[token]
	if !ok || t.Used || !now.Before(t.ExpiresAt) {
		return "", users.ErrTokenInvalid
	}
	t.Used = true
	u.resets[token] = t
	return t.UserID, nil
}

func newAuthHandler(t *testing.T) (*AuthHandler, *services.SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := services.NewSessionStore(rdb)
	auth := services.NewAuthService(newUserTable(), sessions, services.NewLogMailer(zap.NewNop()), "https://app.example/reset", zap.NewNop())
	return NewAuthHandler(auth, zap.NewNop()), sessions
}

func TestAuthHandler_SignUpSignInFlow(t *testing.T) {
	h, sessions := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.SignUp(rec, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "bob@example.com", "password": "secret1", "confirm_password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.NotContains(t, rec.Body.String(), "password")

	s, err := sessions.Validate(context.Background(), token)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	h.SignUp(rec, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "bob@example.com", "password": "secret1", "confirm_password": "secret1",
	}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An account with this email already exists", decodeBody(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.SignIn(rec, jsonRequest(t, http.MethodPost, "/api/auth/signin", map[string]string{
		"email": "bob@example.com", "password": "wrong-pass",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.SignIn(rec, jsonRequest(t, http.MethodPost, "/api/auth/signin", map[string]string{
		"email": "bob@example.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	newToken, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, newToken)

	// signing in again replaces the earlier session
	_, err = sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	rec = httptest.NewRecorder()
	h.Me(rec, authed(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), s.UserID))
	require.Equal(t, http.StatusOK, rec.Code)
	user, _ := decodeBody(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "bob@example.com", user["email"])
}

func TestAuthHandler_Validation(t *testing.T) {
	h, _ := newAuthHandler(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    interface{}
		want    string
	}{
		{"signup missing confirm", h.SignUp, map[string]string{"email": "a@b.co", "password": "secret1"}, "All fields are required"},
		{"signup short password", h.SignUp, map[string]string{"email": "a@b.co", "password": "123", "confirm_password": "123"}, "Password must be at least 6 characters"},
		{"signin blank", h.SignIn, map[string]string{"email": "", "password": ""}, "Email and password are required"},
		{"malformed body", h.SignIn, "{not json", "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, jsonRequest(t, http.MethodPost, "/", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["message"])
		})
	}
}

func TestAuthHandler_SignOut(t *testing.T) {
	h, sessions := newAuthHandler(t)
	ctx := context.Background()

	s, err := sessions.Create(ctx, "user-9")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	r = r.WithContext(session.WithSession(r.Context(), s))
	rec := httptest.NewRecorder()
	h.SignOut(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = sessions.Validate(ctx, s.Token)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestAuthHandler_ForgotPasswordIsNeutral(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, jsonRequest(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.ForgotPasswordMessage, decodeBody(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.ResetPassword(rec, jsonRequest(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token": "bogus", "password": "secret2", "confirm_password": "secret2",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Reset link is invalid or has expired", decodeBody(t, rec)["message"])
}

func TestMustSession_Unauthorized(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
