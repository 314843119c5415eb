package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = time.Hour
)

// RedisRateLimit is a fixed-window per-IP limiter shared by every instance.
// An IP that exceeds the window is blocked for BlockedIPDuration.
type RedisRateLimit struct {
	rdb redis.UniversalClient
	log *zap.Logger
	max int
}

func NewRedisRateLimit(rdb redis.UniversalClient, log *zap.Logger) *RedisRateLimit {
	return &RedisRateLimit{rdb: rdb, log: log.Named("ratelimit"), max: RateLimitMaxRequests}
}

func (l *RedisRateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		ctx := r.Context()

		blockedKey := BlockedIPKeyPrefix + ip
		isBlocked, err := l.rdb.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			writeTooMany(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		count, err := l.hit(ctx, RateLimitKeyPrefix+ip)
		if err != nil {
			// fail open
			l.log.Warn("rate limit check failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > l.max {
			if err := l.rdb.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
				l.log.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(BlockedIPDuration.Seconds())))
			writeTooMany(w, fmt.Sprintf("Rate limit exceeded. Please try again in %d minutes.", int(BlockedIPDuration.Minutes())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.max-count))
		next.ServeHTTP(w, r)
	})
}

// hit increments the window counter, starting the window on the first request.
func (l *RedisRateLimit) hit(ctx context.Context, key string) (int, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, RateLimitWindow).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

// Unblock removes an IP from the blocked list.
func (l *RedisRateLimit) Unblock(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}
