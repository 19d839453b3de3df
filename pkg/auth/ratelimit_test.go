package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInProcessLimiter_WindowRollover(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := NewInProcessLimiter(map[string]TierConfig{
		"limited": {RequestsPerMinute: 2},
	}, 100)
	l.now = func() time.Time { return now }

	id := &Identity{Subject: "alice", ServiceTier: "limited"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Allow(ctx, id); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, id); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("over budget: err = %v, want ErrTooManyRequests", err)
	}

	// A fresh window admits the caller again.
	now = now.Add(61 * time.Second)
	if err := l.Allow(ctx, id); err != nil {
		t.Errorf("after rollover: %v", err)
	}
}

func TestInProcessLimiter_SeparatesSubjectsAndTiers(t *testing.T) {
	l := NewInProcessLimiter(map[string]TierConfig{
		"limited": {RequestsPerMinute: 1},
	}, 1)
	ctx := context.Background()

	if err := l.Allow(ctx, &Identity{Subject: "alice", ServiceTier: "limited"}); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if err := l.Allow(ctx, &Identity{Subject: "bob", ServiceTier: "limited"}); err != nil {
		t.Errorf("bob shares alice's window: %v", err)
	}
	if err := l.Allow(ctx, &Identity{Subject: "alice"}); err != nil {
		t.Errorf("default tier shares limited tier's window: %v", err)
	}
}

func TestInProcessLimiter_ZeroBudgetMeansUnlimited(t *testing.T) {
	l := NewInProcessLimiter(map[string]TierConfig{
		"internal": {RequestsPerMinute: 0},
	}, 1)
	ctx := context.Background()

	id := &Identity{Subject: "svc", ServiceTier: "internal"}
	for i := 0; i < 50; i++ {
		if err := l.Allow(ctx, id); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
}

func TestInProcessLimiter_PrunesStaleWindows(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l := NewInProcessLimiter(nil, 10)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if err := l.Allow(ctx, &Identity{Subject: "alice"}); err != nil {
		t.Fatalf("alice: %v", err)
	}

	now = now.Add(3 * time.Minute)
	if err := l.Allow(ctx, &Identity{Subject: "bob"}); err != nil {
		t.Fatalf("bob: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows["alice:default"]; ok {
		t.Error("stale window for alice was not pruned")
	}
	if _, ok := l.windows["bob:default"]; !ok {
		t.Error("bob's current window is missing")
	}
}
