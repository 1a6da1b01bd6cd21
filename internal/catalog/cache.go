package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "catalog:version"

// Cache keeps serialized catalog snapshots in Redis behind a version
// counter. Writes bump the version instead of deleting keys, so stale
// snapshots simply age out with their TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates every cached snapshot by advancing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) key(ver, locationID int64, scope Scope) string {
	return fmt.Sprintf("catalog:v%d:loc%d:%s", ver, locationID, scope)
}

// GetSnapshot loads a cached item list. The bool reports a hit.
func (c *Cache) GetSnapshot(ctx context.Context, locationID int64, scope Scope) ([]Item, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, c.key(ver, locationID, scope)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// SetSnapshot stores an item list under the current version.
func (c *Cache) SetSnapshot(ctx context.Context, locationID int64, scope Scope, items []Item) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(ver, locationID, scope), raw, c.ttl).Err()
}
