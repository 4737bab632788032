package services

import (
	"context"
	"testing"
	"time"
)

func TestMaintenance_RunOnceSweepsStores(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	sessionStore := NewMemorySessionStore()
	sessions := NewSessionService(sessionStore, "secret", "").WithClock(clock.Now)
	if _, err := sessions.Create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	windows := NewMemoryWindowStore()
	limiter := NewRateLimiter(SubmissionPolicy, windows).WithClock(clock.Now)
	limiter.Allow(ctx, "1.2.3.4")

	m := NewMaintenance(sessions, limiter)
	m.RunOnce()
	if sessionStore.Len() != 1 || windows.Len() != 1 {
		t.Fatalf("live entries must survive a sweep: sessions=%d windows=%d", sessionStore.Len(), windows.Len())
	}

	clock.Advance(SessionDuration + time.Minute)
	m.RunOnce()
	if sessionStore.Len() != 0 || windows.Len() != 0 {
		t.Fatalf("expired entries should be swept: sessions=%d windows=%d", sessionStore.Len(), windows.Len())
	}
}

func TestMaintenance_StartRejectsBadSchedule(t *testing.T) {
	m := NewMaintenance(nil)
	if err := m.Start("not a schedule"); err == nil {
		t.Fatalf("expected an error for an invalid schedule")
	}
	if err := m.Start(""); err != nil {
		t.Fatalf("default schedule: %v", err)
	}
	m.Stop()
}
