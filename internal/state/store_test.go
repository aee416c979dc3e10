package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/luckyfind/internal/discogs"
)

func TestStore_UpdateAndSnapshot(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(&discogs.RateLimit{Limit: 60, Used: 3, Remaining: 57}, nil)

	snap := s.Snapshot()
	if !snap.HasRateLimit || snap.RateLimit.Remaining != 57 {
		t.Fatalf("snapshot rate = %#v, want remaining=57 HasRateLimit=true", snap.RateLimit)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
	if snap.IsThrottled() {
		t.Fatalf("IsThrottled() = true with 57 remaining")
	}
}

func TestStore_UpdateErrorKeepsPreviousRate(t *testing.T) {
	var s Store

	s.Update(&discogs.RateLimit{Remaining: 10}, nil)
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if snap.RateLimit.Remaining != 10 {
		t.Fatalf("rate changed on error: got %#v", snap.RateLimit)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("initial snapshot = %#v, want online with 0 failures", snap)
	}

	s.Update(nil, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v, want 1/false", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, errors.New("fail 2"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v, want 2/true", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v, want 0/false", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_ObserveRateLimitThrottled(t *testing.T) {
	var s Store
	s.Update(nil, errors.New("429"))
	s.ObserveRateLimit(discogs.RateLimit{Limit: 60, Used: 60, Remaining: 0})

	snap := s.Snapshot()
	if !snap.IsThrottled() {
		t.Fatalf("IsThrottled() = false with 0 remaining")
	}
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ObserveRateLimit changed failures to %d", snap.ConsecutiveFailures)
	}
}
