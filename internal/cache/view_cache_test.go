package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-dashboard/internal/dashboard"
	"github.com/spec-kit/helpdesk-dashboard/internal/persistence"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*ViewCache{
		nil,
		NewViewCache(nil, time.Minute),
		NewViewCache(&persistence.Redis{}, time.Minute),
	} {
		if c.Enabled() {
			t.Fatal("expected disabled cache")
		}
		if err := c.Store(ctx, 42, dashboard.View{}); err != nil {
			t.Fatalf("Store: %v", err)
		}
		if _, ok, err := c.Load(ctx, 42); ok || err != nil {
			t.Fatalf("Load: ok=%v err=%v", ok, err)
		}
	}
}

func TestUnreachableRedisReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewViewCache(&persistence.Redis{Client: client, KeyPrefix: "test"}, time.Minute)

	if err := c.Store(context.Background(), 42, dashboard.View{}); err == nil {
		t.Fatal("expected store error")
	}
	if _, ok, err := c.Load(context.Background(), 42); ok || err == nil {
		t.Fatalf("expected load error, got ok=%v err=%v", ok, err)
	}
}

func TestKeyUsesPrefix(t *testing.T) {
	c := NewViewCache(&persistence.Redis{KeyPrefix: "dash"}, time.Minute)
	if got := c.key(42); got != "dash:view:user:42" {
		t.Fatalf("unexpected key %q", got)
	}
}
