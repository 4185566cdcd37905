package ratelimit

import (
	"testing"
	"time"
)

func TestAllowFirstEventPasses(t *testing.T) {
	l := New()
	if !l.Allow("alert", 30*time.Second) {
		t.Fatal("first event should pass")
	}
}

func TestAllowThrottlesWithinInterval(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("alert", 30*time.Second) {
		t.Fatal("first event should pass")
	}
	now = now.Add(29 * time.Second)
	if l.Allow("alert", 30*time.Second) {
		t.Fatal("event inside the interval should be throttled")
	}
	now = now.Add(2 * time.Second)
	if !l.Allow("alert", 30*time.Second) {
		t.Fatal("event after the interval should pass")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("a", time.Minute) {
		t.Fatal("first a should pass")
	}
	if !l.Allow("b", time.Minute) {
		t.Fatal("first b should pass despite a")
	}
	if l.Allow("a", time.Minute) {
		t.Fatal("second a should be throttled")
	}
}

func TestResetClearsThrottle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }

	l.Allow("alert", time.Minute)
	if l.Allow("alert", time.Minute) {
		t.Fatal("should be throttled before reset")
	}
	l.Reset("alert")
	if !l.Allow("alert", time.Minute) {
		t.Fatal("should pass after reset")
	}
}
