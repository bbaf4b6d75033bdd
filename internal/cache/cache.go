// Package cache stores serialized parse results keyed by a hash of the raw
// document. Parsing is deterministic, so a hit is interchangeable with a
// fresh parse.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores val for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	Close() error
}

// KeyPrefix namespaces every key this package builds.
const KeyPrefix = "quizdoc:parse:"

// Key builds the cache key for a parse of raw. scope identifies the parser
// mode and configuration, so a config change never reads stale results.
func Key(scope, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return KeyPrefix + scope + ":" + hex.EncodeToString(sum[:])
}

// GetJSON decodes a cached value into v. A value that no longer decodes is
// reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Close() error { return nil }
