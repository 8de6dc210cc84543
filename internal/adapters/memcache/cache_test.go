package memcache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(2)
	ctx := context.Background()
	if err := c.Set(ctx, "a", []float64{1, 2}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got []float64
	ok, err := c.Get(ctx, "a", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("unexpected value: %v", got)
	}

	// the stored copy is independent of the caller's slice
	got[0] = 99
	var again []float64
	_, _ = c.Get(ctx, "a", &again)
	if again[0] != 1 {
		t.Fatalf("cache value was mutated through reader: %v", again)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	ctx := context.Background()
	_ = c.Set(ctx, "a", 1, 0)
	_ = c.Set(ctx, "b", 2, 0)

	var v int
	_, _ = c.Get(ctx, "a", &v) // a is now most recent
	_ = c.Set(ctx, "c", 3, 0)  // evicts b

	if ok, _ := c.Get(ctx, "b", &v); ok {
		t.Fatalf("b should have been evicted")
	}
	if ok, _ := c.Get(ctx, "a", &v); !ok || v != 1 {
		t.Fatalf("a should survive, ok=%v v=%d", ok, v)
	}
	if c.Len() != 2 {
		t.Fatalf("len: %d", c.Len())
	}
}

func TestCache_Unbounded(t *testing.T) {
	c := New(0)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_ = c.Set(ctx, string(rune('a'+i%26))+string(rune('A'+i/26)), i, 0)
	}
	if c.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", c.Len())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 60)
	var s string
	if ok, _ := c.Get(ctx, "k", &s); !ok {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(61 * time.Second)
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatalf("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped on read")
	}
}

func TestCache_Del(t *testing.T) {
	c := New(10)
	ctx := context.Background()
	_ = c.Set(ctx, "k", 1, 0)
	_ = c.Del(ctx, "k")
	var v int
	if ok, _ := c.Get(ctx, "k", &v); ok {
		t.Fatalf("expected miss after Del")
	}
}
