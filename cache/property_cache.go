// Package cache is a read-through Redis cache for listing queries.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix   = "property:"
	scanPattern = keyPrefix + "*"
	scanCount   = 100
	loadTimeout = 15 * time.Second
)

// PropertyCache is safe to use with a nil Redis client (or a nil receiver):
// every Fetch then goes straight to the loader.
type PropertyCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func New(client *redis.Client, ttl time.Duration) *PropertyCache {
	return &PropertyCache{client: client, ttl: ttl}
}

func (c *PropertyCache) enabled() bool {
	return c != nil && c.client != nil
}

// Key derives a stable cache key from the caller scope and the query string;
// parameter order does not matter.
func Key(scope string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(scope)
	sb.WriteString(":")

	for _, key := range keys {
		values := append([]string(nil), query[key]...)
		sort.Strings(values)
		for _, val := range values {
			sb.WriteString(key)
			sb.WriteString("=")
			sb.WriteString(val)
			sb.WriteString("&")
		}
	}
	rawKey := strings.TrimSuffix(sb.String(), "&")

	sum := sha256.Sum256([]byte(rawKey))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Fetch returns the cached payload for key or runs load, storing its result.
// Concurrent misses on the same key share a single load, which runs detached
// from the first caller's cancellation so the others are not failed with it.
func (c *PropertyCache) Fetch(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if !c.enabled() {
		data, err := load(ctx)
		return data, false, err
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		log.Printf("Cache Hit for key: %s", key)
		return cached, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("Redis GET error for key %s: %v", key, err)
	}
	log.Printf("Cache Miss for key: %s", key)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		data, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(loadCtx, key, data, c.ttl).Err(); err != nil {
			log.Printf("Redis SET error for key %s: %v", key, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Invalidate drops every cached listing query.
func (c *PropertyCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}

	var keysToDelete []string
	var cursor uint64
	for {
		var currentKeys []string
		var err error
		currentKeys, cursor, err = c.client.Scan(ctx, cursor, scanPattern, scanCount).Result()
		if err != nil {
			log.Printf("Error during Redis SCAN for pattern '%s': %v", scanPattern, err)
			return
		}
		keysToDelete = append(keysToDelete, currentKeys...)
		if cursor == 0 {
			break
		}
	}

	if len(keysToDelete) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for _, key := range keysToDelete {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error executing pipeline for deleting %d property cache keys: %v", len(keysToDelete), err)
		return
	}
	log.Printf("Property Cache Invalidated. Deleted %d keys matching '%s'.", len(keysToDelete), scanPattern)
}

// InvalidateAsync runs Invalidate in the background after a write.
func (c *PropertyCache) InvalidateAsync() {
	if !c.enabled() {
		return
	}
	go c.Invalidate(context.Background())
}
