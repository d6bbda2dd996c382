package figdiff

import (
	"context"
	"testing"
	"time"
)

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig(t), nil, red)
	if _, err := NewScheduler(r, "not a cron", nil); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if _, err := NewScheduler(r, "@every 1h", nil); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig(t), nil, red)
	s, err := NewScheduler(r, "@every 1h", nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
