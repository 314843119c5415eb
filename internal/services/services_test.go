package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// memUsers is an in-memory users.Repository.
type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	resets map[string]models.PasswordResetToken
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, resets: map[string]models.PasswordResetToken{}}
}

var _ users.Repository = (*memUsers)(nil)

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (m *memUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) SetPushToken(_ context.Context, id string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	u.FCMToken = token
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) CreateResetToken(_ context.Context, t models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[t.Token] = t
	return nil
}

func (m *memUsers) ConsumeResetToken(_ context.Context, token string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.resets[token]
	if !ok || t.Used || !now.Before(t.ExpiresAt) {
		return "", users.ErrTokenInvalid
	}
	t.Used = true
	m.resets[token] = t
	return t.UserID, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []MailMessage
}

func (r *recordingMailer) Send(_ context.Context, msg MailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func requireSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "channel closed")
	case <-time.After(2 * time.Second):
		t.Fatal("no signal received")
	}
}
