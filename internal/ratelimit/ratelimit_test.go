package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(l Limits) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	return NewMemory(l, clock.now), clock
}

func TestMemory_MinuteWindow(t *testing.T) {
	ctx := context.Background()
	lim, clock := newTestLimiter(Limits{PerMinute: 2, PerHour: 10})

	for i := 0; i < 2; i++ {
		if err := lim.Allow(ctx, 1); err != nil {
			t.Fatalf("call %d: unexpected error %v", i+1, err)
		}
		clock.advance(10 * time.Second)
	}

	err := lim.Allow(ctx, 1)
	if !errors.Is(err, ErrLimited) {
		t.Fatalf("third call: expected ErrLimited, got %v", err)
	}
	var le *LimitError
	if !errors.As(err, &le) || le.Window != Minute || le.Limit != 2 {
		t.Fatalf("expected minute LimitError, got %#v", err)
	}
	// First call was at 12:00:00, now is 12:00:20.
	if le.RetryAfter != 40*time.Second {
		t.Errorf("RetryAfter = %s, want 40s", le.RetryAfter)
	}

	if err := lim.Allow(ctx, 2); err != nil {
		t.Errorf("other users must not share the quota: %v", err)
	}

	clock.advance(41 * time.Second)
	if err := lim.Allow(ctx, 1); err != nil {
		t.Errorf("after the minute slides, expected allow, got %v", err)
	}
}

// TestMemory_HourWindow verifies the hour window counts calls the minute
// window has already forgotten.
func TestMemory_HourWindow(t *testing.T) {
	ctx := context.Background()
	lim, clock := newTestLimiter(Limits{PerMinute: 5, PerHour: 3})

	for i := 0; i < 3; i++ {
		if err := lim.Allow(ctx, 1); err != nil {
			t.Fatalf("call %d: unexpected error %v", i+1, err)
		}
		clock.advance(5 * time.Minute)
	}

	var le *LimitError
	if err := lim.Allow(ctx, 1); !errors.As(err, &le) || le.Window != Hour {
		t.Fatalf("expected hour LimitError, got %v", err)
	}

	// Oldest call was at 12:00, now 12:15; it leaves the window at 13:00.
	clock.advance(45 * time.Minute)
	if err := lim.Allow(ctx, 1); err != nil {
		t.Errorf("after the oldest call expires, expected allow, got %v", err)
	}
}

func TestMemory_DeniedCallsAreNotRecorded(t *testing.T) {
	ctx := context.Background()
	lim, clock := newTestLimiter(Limits{PerMinute: 1, PerHour: 2})

	if err := lim.Allow(ctx, 1); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		_ = lim.Allow(ctx, 1)
	}
	clock.advance(61 * time.Second)
	if err := lim.Allow(ctx, 1); err != nil {
		t.Errorf("denied calls must not count toward the hour window: %v", err)
	}
}

func TestMemory_Remaining(t *testing.T) {
	ctx := context.Background()
	lim, clock := newTestLimiter(Limits{PerMinute: 5, PerHour: 30})

	q, _ := lim.Remaining(ctx, 1)
	if q != (Quota{RemainingPerMinute: 5, RemainingPerHour: 30, LimitPerMinute: 5, LimitPerHour: 30}) {
		t.Errorf("fresh quota = %+v", q)
	}

	_ = lim.Allow(ctx, 1)
	_ = lim.Allow(ctx, 1)
	clock.advance(2 * time.Minute)
	_ = lim.Allow(ctx, 1)

	q, _ = lim.Remaining(ctx, 1)
	if q.RemainingPerMinute != 4 || q.RemainingPerHour != 27 {
		t.Errorf("quota = %+v, want 4/min and 27/hour remaining", q)
	}
}

func TestLimitError_Message(t *testing.T) {
	e := &LimitError{Window: Hour, Limit: 30}
	if e.Error() != "AI hourly limit reached (30/hour). Please try again later." {
		t.Errorf("unexpected message %q", e.Error())
	}
}

// TestRedis_Allow runs against a real server and is skipped unless
// REDIS_ADDR is set.
func TestRedis_Allow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	lim, err := NewRedis(RedisConfig{Addr: addr}, Limits{PerMinute: 2, PerHour: 10})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer lim.Close()
	lim.prefix = "ratelimit:test:" + time.Now().Format("150405.000000") + ":"

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := lim.Allow(ctx, 1); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	if err := lim.Allow(ctx, 1); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}
	q, err := lim.Remaining(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if q.RemainingPerMinute != 0 || q.RemainingPerHour != 8 {
		t.Errorf("quota = %+v", q)
	}
}
