// Package cache keeps the last fetched property-bag snapshot per record
// in Redis. Snapshots are a read-side convenience: refocus refetches and
// process restarts reuse them while the authoritative fetch is in flight,
// and they are overwritten wholesale on every successful fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docket/internal/checklist/models"
)

// SnapshotCache stores property bags with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a snapshot cache. A nil client yields a nil cache, which
// callers treat as cache-disabled.
func New(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if client == nil {
		return nil
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// Set replaces the cached snapshot for a record. Best effort: errors are
// returned for logging but never block the fetch path.
func (c *SnapshotCache) Set(ctx context.Context, recordID string, bag models.PropertyBag) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return c.client.Set(ctx, key(recordID), payload, c.ttl).Err()
}

// Get returns the cached snapshot, with ok=false on miss.
func (c *SnapshotCache) Get(ctx context.Context, recordID string) (models.PropertyBag, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, key(recordID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var bag models.PropertyBag
	if err := json.Unmarshal(payload, &bag); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return bag, true, nil
}

// Invalidate drops the cached snapshot, used when a record disappears.
func (c *SnapshotCache) Invalidate(ctx context.Context, recordID string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, key(recordID)).Err()
}

func key(recordID string) string {
	return "docket:snapshot:" + recordID
}
