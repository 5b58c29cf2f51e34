package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("second wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("second wait returned too early for the configured rate")
	}
}

func TestLimiter_WaitRespectsCancellation(t *testing.T) {
	l := NewLimiter(1, 1)
	_ = l.Wait(context.Background(), 1) // consume the burst

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, 1); err == nil {
		t.Error("expected Wait to return an error once the context deadline passes")
	}
}
