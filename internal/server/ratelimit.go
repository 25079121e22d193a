package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stepsnap/stepsnap/internal/config"
)

// RateLimiter throttles the shared-view endpoints per client ip using
// a redis counter. Without a configured redis, and on any redis error,
// requests are allowed through.
type RateLimiter struct {
	redis  *redis.Client
	perSec int
	logger *slog.Logger
}

func NewRateLimiter(rc *config.RedisConfig, perSec int) *RateLimiter {
	l := &RateLimiter{
		perSec: perSec,
		logger: slog.With(slog.String("component", "ratelimit")),
	}
	if rc == nil || rc.Addr == "" {
		return l
	}
	l.redis = redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	return l
}

func (l *RateLimiter) allow(r *http.Request) bool {
	if l.redis == nil {
		return true
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	ctx := r.Context()
	key := "ratelimit:shared:" + ip

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn(fmt.Sprintf("error while incrementing rate limit counter: %v", err))
		return true // allow on error
	}
	if count == 1 {
		l.redis.Expire(ctx, key, time.Second)
	}
	return count <= int64(l.perSec)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
