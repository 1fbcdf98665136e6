package cache

import (
	"context"
	"time"
)

// Cache is the shared key-value layer behind the explanation cache, chat
// transcripts, rate-limit counters, the cost ledger totals and the circuit
// breaker state. Every engine instance talks to the same logical store, so
// the mutable pieces (counters, breaker state) go through the atomic
// primitives rather than Get/Set.
type Cache interface {
	// Get retrieves a value. The second return is false on miss or expiry.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value. A ttl of 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Incr atomically adds delta to an integer counter and returns the new
	// value. The ttl is applied only when the key has no expiry yet, so a
	// counter's window is anchored to its first increment.
	Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// CompareAndSwap replaces the value only if the current value equals old.
	// An empty old means "create only if absent". Returns false when the
	// comparison failed because another writer got there first.
	CompareAndSwap(ctx context.Context, key, old, new string, ttl time.Duration) (bool, error)
}
