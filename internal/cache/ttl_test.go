package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestCache_GetOrFetch_MissThenHit(t *testing.T) {
	c := New[string, int](time.Minute)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrFetch(ctx, "k", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}

	// Second call must be served from cache.
	v, err = c.GetOrFetch(ctx, "k", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("fetch invoked %d times, want 1", calls)
	}
}

func TestCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := NewWithClock[string, string](30*time.Second, clock.Now)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	if _, err := c.GetOrFetch(ctx, "k", fetch); err != nil {
		t.Fatal(err)
	}

	clock.Advance(29 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before TTL elapsed")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry still live after TTL elapsed")
	}

	// Next GetOrFetch re-invokes the source.
	if _, err := c.GetOrFetch(ctx, "k", fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("fetch invoked %d times, want 2", calls)
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	c := New[string, int](time.Minute)
	ctx := context.Background()

	boom := errors.New("upstream down")
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := c.GetOrFetch(ctx, "k", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed fetch must not cache anything")
	}

	v, err := c.GetOrFetch(ctx, "k", fetch)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if v != 7 {
		t.Errorf("got %d, want 7", v)
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)

	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Errorf("got (%d, %v), want (2, true)", v, ok)
	}
}

func TestCache_Purge(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge, want 0", c.Len())
	}
}

func TestCache_SweepRemovesExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := NewWithClock[string, int](10*time.Second, clock.Now)

	c.Set("old", 1)
	clock.Advance(11 * time.Second)
	c.Set("fresh", 2)

	c.sweep()

	if _, ok := c.Get("fresh"); !ok {
		t.Error("sweep removed a live entry")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", c.Len())
	}
}
