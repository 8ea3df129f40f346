package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a clock that reads *t on every call.
func fixedClock(t *time.Time) func() time.Time { return func() time.Time { return *t } }

func TestMemory_FreshnessBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory[string]()
	c.now = fixedClock(&now)

	c.Set(ctx, "price", "v1")

	now = now.Add(59 * time.Second)
	if v, ok := c.Get(ctx, "price", 60*time.Second); !ok || v != "v1" {
		t.Errorf("at 59s: got (%q, %v), want (v1, true)", v, ok)
	}

	now = now.Add(time.Second)
	if _, ok := c.Get(ctx, "price", 60*time.Second); ok {
		t.Error("at exactly maxAge: expected miss")
	}

	// The same entry is still fresh under a longer window.
	if _, ok := c.Get(ctx, "price", 300*time.Second); !ok {
		t.Error("300s window: expected hit")
	}
}

func TestMemory_MissingAndZeroWindow(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()
	if _, ok := c.Get(ctx, "absent", time.Minute); ok {
		t.Error("absent key: expected miss")
	}
	c.Set(ctx, "k", 7)
	if _, ok := c.Get(ctx, "k", 0); ok {
		t.Error("zero maxAge: expected miss")
	}
}

func TestMemory_SetReplaces(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory[map[int]float64]()
	c.now = fixedClock(&now)

	c.Set(ctx, "tokens", map[int]float64{1: 1})
	now = now.Add(4 * time.Minute)
	c.Set(ctx, "tokens", map[int]float64{2: 2})
	now = now.Add(2 * time.Minute)

	got, ok := c.Get(ctx, "tokens", 5*time.Minute)
	if !ok {
		t.Fatal("expected hit after replace")
	}
	if _, has := got[2]; !has || len(got) != 1 {
		t.Errorf("got %v, want replacement value", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "k", i)
			c.Get(ctx, "k", time.Minute)
		}(i)
	}
	wg.Wait()
	if _, ok := c.Get(ctx, "k", time.Minute); !ok {
		t.Error("expected hit after concurrent writes")
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("TAOSCOPE_TEST_REDIS")
	if addr == "" {
		t.Skip("TAOSCOPE_TEST_REDIS not set")
	}
	ctx := context.Background()
	client, err := Dial(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	now := time.Now()
	c := NewRedis[map[string]float64](client, "taoscope-test:")
	c.now = fixedClock(&now)
	c.Set(ctx, "rt", map[string]float64{"a": 1.5})

	got, ok := c.Get(ctx, "rt", time.Minute)
	if !ok || got["a"] != 1.5 {
		t.Errorf("Get: got (%v, %v), want ({a:1.5}, true)", got, ok)
	}
	now = now.Add(time.Minute)
	if _, ok := c.Get(ctx, "rt", time.Minute); ok {
		t.Error("expected miss at maxAge")
	}
	client.Del(ctx, "taoscope-test:rt")
}
