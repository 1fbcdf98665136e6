package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	val, found, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if val != "v" {
		t.Fatalf("expected value %q, got %q", "v", val)
	}

	_, found, err = c.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if found {
		t.Fatal("expected miss for unknown key")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	if _, found, _ := c.Get(ctx, "k"); !found {
		t.Fatal("expected key before expiry")
	}

	now = now.Add(2 * time.Minute)

	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("expected key to expire")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("expected key to be deleted")
	}
}

func TestMemoryCacheIncr(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "counter", 1, time.Hour)
		if err != nil {
			t.Fatalf("Incr() failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected counter %d, got %d", want, got)
		}
	}

	got, err := c.Incr(ctx, "counter", 10, time.Hour)
	if err != nil {
		t.Fatalf("Incr() failed: %v", err)
	}
	if got != 13 {
		t.Fatalf("expected counter 13, got %d", got)
	}
}

func TestMemoryCacheIncrKeepsWindowAnchor(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, err := c.Incr(ctx, "counter", 1, time.Minute); err != nil {
		t.Fatalf("Incr() failed: %v", err)
	}

	// A later increment must not push the expiry out.
	now = now.Add(30 * time.Second)
	if _, err := c.Incr(ctx, "counter", 1, time.Minute); err != nil {
		t.Fatalf("Incr() failed: %v", err)
	}

	now = now.Add(31 * time.Second)
	if _, found, _ := c.Get(ctx, "counter"); found {
		t.Fatal("expected counter to expire at the original deadline")
	}
}

func TestMemoryCacheCompareAndSwap(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	// Empty old creates the key only when absent.
	ok, err := c.CompareAndSwap(ctx, "k", "", "v1", 0)
	if err != nil {
		t.Fatalf("CompareAndSwap() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected create-if-absent to succeed")
	}

	ok, _ = c.CompareAndSwap(ctx, "k", "", "v2", 0)
	if ok {
		t.Fatal("expected create-if-absent to fail on existing key")
	}

	ok, _ = c.CompareAndSwap(ctx, "k", "v1", "v2", 0)
	if !ok {
		t.Fatal("expected swap with matching old value to succeed")
	}

	ok, _ = c.CompareAndSwap(ctx, "k", "v1", "v3", 0)
	if ok {
		t.Fatal("expected swap with stale old value to fail")
	}

	val, _, _ := c.Get(ctx, "k")
	if val != "v2" {
		t.Fatalf("expected value %q, got %q", "v2", val)
	}
}
