package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/tastetracker-backend/internal/session"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps one active session per user in Redis.
type SessionStore struct {
	rdb redis.UniversalClient
}

func NewSessionStore(rdb redis.UniversalClient) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Create issues a new session for a user and stores it in Redis.
// Any existing session for the user is invalidated first so the 7-day timer
// restarts from this login.
func (s *SessionStore) Create(ctx context.Context, userID string) (session.Session, error) {
	if err := s.InvalidateUser(ctx, userID); err != nil {
		return session.Session{}, err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return session.Session{}, err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKeyPrefix+token, userID, SessionDuration)
		pipe.Set(ctx, UserSessionKeyPrefix+userID, token, SessionDuration)
		return nil
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session.Session{UserID: userID, Token: token}, nil
}

// Validate resolves a token. An unknown or expired token yields
// ErrSessionNotFound.
func (s *SessionStore) Validate(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, ErrSessionNotFound
	}
	userID, err := s.rdb.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("read session: %w", err)
	}
	return session.Session{UserID: userID, Token: token}, nil
}

// Refresh extends the session expiration by 7 days from now.
func (s *SessionStore) Refresh(ctx context.Context, token string) error {
	sess, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, SessionKeyPrefix+token, SessionDuration)
		pipe.Expire(ctx, UserSessionKeyPrefix+sess.UserID, SessionDuration)
		return nil
	})
	return err
}

// Invalidate removes a session from Redis.
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessionKey := SessionKeyPrefix + token

	userID, err := s.rdb.Get(ctx, sessionKey).Result()
	if err == nil && userID != "" {
		// only drop the mapping if it still points at this token
		if current, _ := s.rdb.Get(ctx, UserSessionKeyPrefix+userID).Result(); current == token {
			s.rdb.Del(ctx, UserSessionKeyPrefix+userID)
		}
	}
	return s.rdb.Del(ctx, sessionKey).Err()
}

// InvalidateUser drops the user's current session, if any.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) error {
	userSessionKey := UserSessionKeyPrefix + userID

	token, err := s.rdb.Get(ctx, userSessionKey).Result()
	if err == nil && token != "" {
		s.rdb.Del(ctx, SessionKeyPrefix+token)
	}
	return s.rdb.Del(ctx, userSessionKey).Err()
}
