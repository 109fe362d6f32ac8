package cache_test

import (
	"testing"
	"time"

	"github.com/vertice-ops/dfc-assistant-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_ExpirationWithInjectedClock(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	c := cache.New(time.Minute, cache.WithClock[string](func() time.Time { return now }))

	c.Set("key1", "value1")

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected entry to still be live before TTL")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected entry to be expired at exactly TTL")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_Flush(t *testing.T) {
	c := cache.New[int](5 * time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected 'a' to be flushed")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected 'b' to be flushed")
	}
}
