package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds fixed window rate limiting configuration
type RateLimitConfig struct {
	Requests  int           // requests allowed per window
	Window    time.Duration // length of the window
	KeyPrefix string        // Redis key prefix, one per limited route group
}

// clientKey identifies the client: the caller when authenticated, else the remote host
func clientKey(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// windowCount increments the client's counter and returns it with the time left in the window
func windowCount(ctx context.Context, client redis.Cmdable, key string, window time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// first hit of a window; the key has no expiry yet
		if err := client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// RateLimitMiddleware limits requests per client using Redis counters.
// Requests pass through when Redis is unavailable.
func RateLimitMiddleware(client redis.Cmdable, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.Requests)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientKey(r)
			key := config.KeyPrefix + ":" + clientID

			count, ttl, err := windowCount(r.Context(), client, key, config.Window)
			if err != nil {
				logger.Error("Failed to update rate limit counter",
					zap.Error(err),
					zap.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Reset", reset)

			if count > int64(config.Requests) {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.String("path", r.URL.Path),
					zap.Int64("count", count),
					zap.Int("limit", config.Requests),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.Requests)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}
