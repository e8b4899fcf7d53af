package cooldown

import (
	"context"
	"testing"
	"time"

	"reelscript/internal/config"
	"reelscript/internal/logging"
)

func TestMemoryAcquire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := m.Acquire(ctx, "#Study", time.Minute); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := m.Acquire(ctx, "study", time.Minute); ok {
		t.Fatal("normalized key should still be cooling down")
	}
	if ok, _ := m.Acquire(ctx, "fitness", time.Minute); !ok {
		t.Fatal("other keys are independent")
	}
	now = now.Add(time.Minute)
	if ok, _ := m.Acquire(ctx, "study", time.Minute); !ok {
		t.Fatal("expired key should be acquirable")
	}
	if ok, _ := m.Acquire(ctx, "study", 0); !ok {
		t.Fatal("zero window never blocks")
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Cooldown.Backend = config.CooldownRedis
	cfg.Cooldown.RedisAddr = "127.0.0.1:1"
	gate := New(context.Background(), &cfg, logging.NewNop())
	defer gate.Close()
	if _, ok := gate.(*Memory); !ok {
		t.Fatalf("expected memory fallback, got %T", gate)
	}
}
