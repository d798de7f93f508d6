package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-dashboard/internal/dashboard"
	"github.com/spec-kit/helpdesk-dashboard/internal/persistence"
)

// ViewCache keeps the last good dashboard view per helpdesk user in redis,
// so a restarted process can serve a stale view before its first cycle
// completes.
type ViewCache struct {
	rdb *persistence.Redis
	ttl time.Duration
}

// CachedView is a stored view with the time it was written.
type CachedView struct {
	View     dashboard.View `json:"view"`
	StoredAt time.Time      `json:"stored_at"`
}

// NewViewCache builds a cache. A disabled redis turns every call into a
// no-op.
func NewViewCache(rdb *persistence.Redis, ttl time.Duration) *ViewCache {
	return &ViewCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether views are persisted.
func (c *ViewCache) Enabled() bool {
	return c != nil && c.rdb.Enabled()
}

func (c *ViewCache) key(userID int) string {
	return c.rdb.Key("view", "user", strconv.Itoa(userID))
}

// Store writes view for userID.
func (c *ViewCache) Store(ctx context.Context, userID int, view dashboard.View) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(CachedView{View: view, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	if err := c.rdb.Client.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store view: %w", err)
	}
	return nil
}

// Load returns the stored view for userID, if any.
func (c *ViewCache) Load(ctx context.Context, userID int) (CachedView, bool, error) {
	if !c.Enabled() {
		return CachedView{}, false, nil
	}
	payload, err := c.rdb.Client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedView{}, false, nil
	}
	if err != nil {
		return CachedView{}, false, fmt.Errorf("load view: %w", err)
	}
	var cached CachedView
	if err := json.Unmarshal(payload, &cached); err != nil {
		return CachedView{}, false, fmt.Errorf("decode view: %w", err)
	}
	return cached, true, nil
}
