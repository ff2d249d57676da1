package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client in process memory.
type IPRateLimiter struct {
	ips    map[string]*visitor
	mu     sync.Mutex
	r      rate.Limit
	b      int
	logger *slog.Logger
	now    func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int, logger *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*visitor),
		r:      r,
		b:      b,
		logger: logger,
		now:    time.Now,
	}
}

func (i *IPRateLimiter) Allow(_ context.Context, key string) bool {
	return i.GetLimiter(key).Allow()
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = i.now()
	return v.limiter
}

// StartCleanup forgets clients idle for longer than maxIdle, checking
// every interval until ctx is done.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := i.prune(maxIdle); n > 0 {
				i.logger.Debug("Cleaned up rate limiter map", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (i *IPRateLimiter) prune(maxIdle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.now().Add(-maxIdle)
	removed := 0
	for ip, v := range i.ips {
		if v.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			removed++
		}
	}
	return removed
}

// RedisRateLimiter shares a fixed-window counter between instances.
// Redis errors let the request through.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	logger *slog.Logger
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, logger: logger}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := "ratelimit:" + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("Rate limiter unavailable, allowing request", "error", err)
		return true
	}
	return incr.Val() <= l.limit
}
