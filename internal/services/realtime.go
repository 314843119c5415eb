package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const entryChannelPrefix = "entries:user:"

// EntryEvent is the payload broadcast over Redis when a user's entries change.
type EntryEvent struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EntryHub fans entry-change signals out to local subscribers. Writes are
// published on Redis so every instance reloads its own subscribers.
type EntryHub struct {
	rdb redis.UniversalClient
	log *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[chan struct{}]struct{}
}

func NewEntryHub(rdb redis.UniversalClient, log *zap.Logger) *EntryHub {
	return &EntryHub{
		rdb:  rdb,
		log:  log.Named("realtime"),
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe registers interest in userID's entries. The channel receives a
// value whenever they change; bursts collapse into one pending signal.
// After the returned func returns, nothing more is delivered.
func (h *EntryHub) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan struct{}]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
			h.mu.Unlock()
		})
	}
}

func (h *EntryHub) fanOut(userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Publish announces a change to userID's entries on Redis.
func (h *EntryHub) Publish(ctx context.Context, userID string) error {
	data, err := json.Marshal(EntryEvent{UserID: userID, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, entryChannelPrefix+userID, data).Err()
}

// EntriesChanged publishes the change, falling back to local delivery when
// Redis is unreachable.
func (h *EntryHub) EntriesChanged(ctx context.Context, userID string) {
	if err := h.Publish(ctx, userID); err != nil {
		h.log.Warn("failed to publish entry change", zap.String("user_id", userID), zap.Error(err))
		h.fanOut(userID)
	}
}

// Run listens on Redis until ctx is cancelled, reconnecting with backoff.
func (h *EntryHub) Run(ctx context.Context) {
	backoff := time.Second

	for ctx.Err() == nil {
		if h.listen(ctx) {
			backoff = time.Second
			continue
		}
		h.log.Warn("entry subscriber closed", zap.Duration("retry_in", backoff))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

// listen consumes one pattern subscription until ctx is done or the channel
// closes. It reports whether any message was delivered.
func (h *EntryHub) listen(ctx context.Context) bool {
	pubsub := h.rdb.PSubscribe(ctx, entryChannelPrefix+"*")
	defer pubsub.Close()

	h.log.Info("entry subscriber started", zap.String("pattern", entryChannelPrefix+"*"))

	delivered := false
	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return delivered
		case msg, ok := <-msgs:
			if !ok {
				return delivered
			}
			delivered = true
			userID := strings.TrimPrefix(msg.Channel, entryChannelPrefix)
			var event EntryEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err == nil && event.UserID != "" {
				userID = event.UserID
			}
			h.fanOut(userID)
		}
	}
}
