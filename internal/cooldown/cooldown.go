// Package cooldown keeps the same keyword from being scraped again too soon.
// Entries live in process memory by default or in Redis when several
// reelscript processes share one platform account.
package cooldown

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"reelscript/internal/config"
	"reelscript/internal/logging"
)

const keyPrefix = "reelscript:cooldown:"

// Gate claims a key for a window. Acquire reports false while the key is still
// cooling down.
type Gate interface {
	Acquire(ctx context.Context, key string, window time.Duration) (bool, error)
	Close() error
}

// Memory is an in-process Gate.
type Memory struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemory returns an empty in-process gate.
func NewMemory() *Memory {
	return &Memory{expires: make(map[string]time.Time), now: time.Now}
}

// Acquire implements Gate.
func (m *Memory) Acquire(_ context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	key = normalizeKey(key)
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, k)
		}
	}
	if _, busy := m.expires[key]; busy {
		return false, nil
	}
	m.expires[key] = now.Add(window)
	return true, nil
}

// Close implements Gate.
func (m *Memory) Close() error { return nil }

// Redis is a Gate shared through Redis SET NX.
type Redis struct {
	rdb *goredis.Client
}

// NewRedis connects to addr, which may be host:port or a redis:// URL.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	var opts *goredis.Options
	if strings.Contains(addr, "://") {
		parsed, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &goredis.Options{Addr: addr, DialTimeout: 3 * time.Second}
	}
	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb}, nil
}

// Acquire implements Gate.
func (r *Redis) Acquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	return r.rdb.SetNX(ctx, keyPrefix+normalizeKey(key), time.Now().UTC().Format(time.RFC3339), window).Result()
}

// Close implements Gate.
func (r *Redis) Close() error { return r.rdb.Close() }

// New builds the configured gate. An unreachable Redis falls back to memory.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) Gate {
	if cfg.Cooldown.Backend != config.CooldownRedis {
		return NewMemory()
	}
	gate, err := NewRedis(ctx, cfg.Cooldown.RedisAddr)
	if err != nil {
		logging.WarnWithContext(logger, "redis cooldown unavailable; using memory", "cooldown_fallback",
			logging.String("addr", cfg.Cooldown.RedisAddr),
			logging.Error(err),
			logging.String(logging.FieldImpact, "cooldowns are not shared between processes"),
		)
		return NewMemory()
	}
	return gate
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "#"))
}
