package requests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func countingFetch(calls *atomic.Int32, value any) FetchFunc {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestKey_IgnoresInsertionOrder(t *testing.T) {
	p1 := Params{}
	p1["q"] = "abbey road"
	p1["page"] = 1
	p1["type"] = "release"

	p2 := Params{}
	p2["type"] = "release"
	p2["page"] = 1
	p2["q"] = "abbey road"

	if Key("search", p1) != Key("search", p2) {
		t.Fatalf("Key differs for permuted params: %q vs %q", Key("search", p1), Key("search", p2))
	}
}

func TestKey_DistinguishesEndpointAndValues(t *testing.T) {
	base := Params{"q": "abbey road", "page": 1}
	cases := []struct {
		name     string
		endpoint string
		params   Params
	}{
		{"endpoint", "label-releases", base},
		{"value", "search", Params{"q": "abbey road", "page": 2}},
		{"extra key", "search", Params{"q": "abbey road", "page": 1, "year": 1969}},
		{"type", "search", Params{"q": "abbey road", "page": "1"}},
	}
	want := Key("search", base)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Key(tc.endpoint, tc.params); got == want {
				t.Fatalf("Key(%q, %v) = %q, collides with base", tc.endpoint, tc.params, got)
			}
		})
	}
	if Key("search", nil) != Key("search", Params{}) {
		t.Fatalf("nil and empty params should share a key")
	}
}

func TestExecute_DeduplicatesConcurrentCalls(t *testing.T) {
	c := New(Config{})

	var calls atomic.Int32
	release := make(chan struct{})
	result := &struct{ Title string }{Title: "Abbey Road"}
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return result, nil
	}

	params := Params{"q": "abbey road", "page": 1}
	type outcome struct {
		val any
		err error
	}
	outcomes := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			val, err := c.Execute(context.Background(), "search", params, fetch, DefaultOptions())
			outcomes <- outcome{val, err}
		}()
	}

	waitFor(t, func() bool {
		s := c.Stats()
		return s.Fetches == 1 && s.Joins == 1
	})
	close(release)

	for i := 0; i < 2; i++ {
		got := <-outcomes
		if got.err != nil {
			t.Fatalf("Execute returned error: %v", got.err)
		}
		if got.val != result {
			t.Fatalf("Execute value = %p, want shared result %p", got.val, result)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
	if s := c.Stats(); s.InFlight != 0 {
		t.Fatalf("InFlight = %d, want 0 after settle", s.InFlight)
	}
}

func TestExecute_CacheHitSkipsFetch(t *testing.T) {
	clock := newFakeClock()
	c := New(Config{Now: clock.Now})

	var calls atomic.Int32
	params := Params{"id": 42}
	for i := 0; i < 3; i++ {
		val, err := c.Execute(context.Background(), "release", params, countingFetch(&calls, "R42"), DefaultOptions())
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if val != "R42" {
			t.Fatalf("Execute value = %v, want R42", val)
		}
		clock.Advance(time.Minute)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
	if s := c.Stats(); s.Hits != 2 {
		t.Fatalf("Hits = %d, want 2", s.Hits)
	}
}

func TestExecute_ExpiredEntryRefetches(t *testing.T) {
	clock := newFakeClock()
	c := New(Config{Now: clock.Now})

	var calls atomic.Int32
	opts := Options{UseCache: true, TTL: 30 * time.Second}
	if _, err := c.Execute(context.Background(), "release", Params{"id": 1}, countingFetch(&calls, "v1"), opts); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	// Exactly at the TTL boundary the entry is still valid.
	clock.Advance(30 * time.Second)
	if _, err := c.Execute(context.Background(), "release", Params{"id": 1}, countingFetch(&calls, "v2"), opts); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch calls at boundary = %d, want 1", n)
	}

	clock.Advance(time.Second)
	val, err := c.Execute(context.Background(), "release", Params{"id": 1}, countingFetch(&calls, "v2"), opts)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if val != "v2" {
		t.Fatalf("Execute value = %v, want v2", val)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("fetch calls after expiry = %d, want 2", n)
	}
}

func TestExecute_ForceRefreshOverwritesEntry(t *testing.T) {
	c := New(Config{})

	var calls atomic.Int32
	params := Params{"id": 7}
	if _, err := c.Execute(context.Background(), "release", params, countingFetch(&calls, "old"), DefaultOptions()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	val, err := c.Execute(context.Background(), "release", params, countingFetch(&calls, "new"), Refresh())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if val != "new" {
		t.Fatalf("forced value = %v, want new", val)
	}

	val, err = c.Execute(context.Background(), "release", params, countingFetch(&calls, "unused"), DefaultOptions())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if val != "new" {
		t.Fatalf("cached value = %v, want new", val)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("fetch calls = %d, want 2", n)
	}
}

func TestExecute_NoCacheNeverStores(t *testing.T) {
	c := New(Config{})

	var calls atomic.Int32
	for i := 0; i < 2; i++ {
		if _, err := c.Execute(context.Background(), "search", Params{"q": "x"}, countingFetch(&calls, i), NoCache()); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("fetch calls = %d, want 2", n)
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Fatalf("Entries = %d, want 0", s.Entries)
	}
}

func TestExecute_EvictsEarliestInserted(t *testing.T) {
	c := New(Config{MaxEntries: 3})

	var calls atomic.Int32
	for id := 1; id <= 3; id++ {
		if _, err := c.Execute(context.Background(), "release", Params{"id": id}, countingFetch(&calls, id), DefaultOptions()); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
	}
	// Reading entry 1 does not protect it: eviction follows insertion order.
	if _, err := c.Execute(context.Background(), "release", Params{"id": 1}, countingFetch(&calls, 1), DefaultOptions()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, err := c.Execute(context.Background(), "release", Params{"id": 4}, countingFetch(&calls, 4), DefaultOptions()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if c.Cached("release", Params{"id": 1}) {
		t.Fatalf("entry 1 still cached, want evicted")
	}
	for id := 2; id <= 4; id++ {
		if !c.Cached("release", Params{"id": id}) {
			t.Fatalf("entry %d missing, want cached", id)
		}
	}
	if s := c.Stats(); s.Entries != 3 {
		t.Fatalf("Entries = %d, want 3", s.Entries)
	}
}

func TestExecute_OverwriteAtCapacityDoesNotEvict(t *testing.T) {
	c := New(Config{MaxEntries: 2})

	var calls atomic.Int32
	for id := 1; id <= 2; id++ {
		if _, err := c.Execute(context.Background(), "release", Params{"id": id}, countingFetch(&calls, id), DefaultOptions()); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
	}
	if _, err := c.Execute(context.Background(), "release", Params{"id": 2}, countingFetch(&calls, 22), Refresh()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !c.Cached("release", Params{"id": 1}) || !c.Cached("release", Params{"id": 2}) {
		t.Fatalf("overwrite evicted an entry; stats = %+v", c.Stats())
	}
}

func TestExecute_FailureIsNotCachedAndReleasesKey(t *testing.T) {
	c := New(Config{})

	boom := errors.New("upstream 500")
	_, err := c.Execute(context.Background(), "search", Params{"q": "x"}, func(context.Context) (any, error) {
		return nil, boom
	}, DefaultOptions())
	if !errors.Is(err, boom) {
		t.Fatalf("Execute error = %v, want %v", err, boom)
	}
	if IsAborted(err) {
		t.Fatalf("IsAborted(%v) = true, want false", err)
	}

	var calls atomic.Int32
	val, err := c.Execute(context.Background(), "search", Params{"q": "x"}, countingFetch(&calls, "ok"), DefaultOptions())
	if err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if val != "ok" || calls.Load() != 1 {
		t.Fatalf("retry value = %v calls = %d, want ok/1", val, calls.Load())
	}
}

func TestCancel_AbortsInFlightRequest(t *testing.T) {
	c := New(Config{})

	started := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	errs := make(chan error, 1)
	go func() {
		_, err := c.Execute(context.Background(), "label-releases", Params{"id": 1, "page": 1}, fetch, DefaultOptions())
		errs <- err
	}()
	<-started

	c.Cancel("label-releases", Params{"page": 1, "id": 1})

	err := <-errs
	if !IsAborted(err) {
		t.Fatalf("Execute error = %v, want ErrAborted", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute error = %v, want wrapped context.Canceled", err)
	}
	waitFor(t, func() bool { return c.Stats().InFlight == 0 })
	if c.Cached("label-releases", Params{"id": 1, "page": 1}) {
		t.Fatalf("aborted result was cached")
	}
}

func TestCancel_NoopWhenIdle(t *testing.T) {
	c := New(Config{})
	c.Cancel("search", Params{"q": "nothing"})
	if s := c.Stats(); s.InFlight != 0 {
		t.Fatalf("InFlight = %d, want 0", s.InFlight)
	}
}

func TestCancelAll_AbortsEveryRequest(t *testing.T) {
	c := New(Config{})

	var started sync.WaitGroup
	started.Add(3)
	fetch := func(ctx context.Context) (any, error) {
		started.Done()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	errs := make(chan error, 3)
	for id := 0; id < 3; id++ {
		go func(id int) {
			_, err := c.Execute(context.Background(), "release", Params{"id": id}, fetch, DefaultOptions())
			errs <- err
		}(id)
	}
	started.Wait()

	c.CancelAll()

	for i := 0; i < 3; i++ {
		if err := <-errs; !IsAborted(err) {
			t.Fatalf("Execute error = %v, want ErrAborted", err)
		}
	}
	if s := c.Stats(); s.InFlight != 0 {
		t.Fatalf("InFlight = %d, want 0", s.InFlight)
	}
}

func TestExecute_CallerContextAbortLeavesJoinersRunning(t *testing.T) {
	c := New(Config{})

	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		<-release
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Execute(ctx, "search", Params{"q": "x"}, fetch, DefaultOptions())
		firstErr <- err
	}()
	waitFor(t, func() bool { return c.Stats().InFlight == 1 })

	second := make(chan any, 1)
	go func() {
		val, _ := c.Execute(context.Background(), "search", Params{"q": "x"}, fetch, DefaultOptions())
		second <- val
	}()
	waitFor(t, func() bool { return c.Stats().Joins == 1 })

	cancel()
	if err := <-firstErr; !IsAborted(err) {
		t.Fatalf("first caller error = %v, want ErrAborted", err)
	}

	close(release)
	if val := <-second; val != "done" {
		t.Fatalf("joined caller value = %v, want done", val)
	}
	if !c.Cached("search", Params{"q": "x"}) {
		t.Fatalf("result should be cached after shared fetch completes")
	}
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(Config{Now: clock.Now})

	var calls atomic.Int32
	short := Options{UseCache: true, TTL: time.Minute}
	long := Options{UseCache: true, TTL: time.Hour}
	_, _ = c.Execute(context.Background(), "a", nil, countingFetch(&calls, 1), short)
	_, _ = c.Execute(context.Background(), "b", nil, countingFetch(&calls, 2), long)
	_, _ = c.Execute(context.Background(), "c", nil, countingFetch(&calls, 3), short)

	clock.Advance(2 * time.Minute)
	if removed := c.Sweep(); removed != 2 {
		t.Fatalf("Sweep removed %d, want 2", removed)
	}
	if !c.Cached("b", nil) {
		t.Fatalf("long-lived entry was swept")
	}
	if s := c.Stats(); s.Entries != 1 {
		t.Fatalf("Entries = %d, want 1", s.Entries)
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(Config{})

	var calls atomic.Int32
	_, _ = c.Execute(context.Background(), "a", Params{"id": 1}, countingFetch(&calls, 1), DefaultOptions())
	_, _ = c.Execute(context.Background(), "a", Params{"id": 2}, countingFetch(&calls, 2), DefaultOptions())

	if !c.Invalidate("a", Params{"id": 1}) {
		t.Fatalf("Invalidate returned false for present entry")
	}
	if c.Invalidate("a", Params{"id": 1}) {
		t.Fatalf("Invalidate returned true for missing entry")
	}
	c.Clear()
	if s := c.Stats(); s.Entries != 0 {
		t.Fatalf("Entries = %d after Clear, want 0", s.Entries)
	}
}

func TestPeek_DoesNotTouchEntry(t *testing.T) {
	clock := newFakeClock()
	c := New(Config{Now: clock.Now})

	if _, ok := c.Peek("release", Params{"id": 7}); ok {
		t.Fatalf("Peek found an entry in an empty cache")
	}
	var calls atomic.Int32
	if _, err := c.Execute(context.Background(), "release", Params{"id": 7}, countingFetch(&calls, "R7"), DefaultOptions()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	val, ok := c.Peek("release", Params{"id": 7})
	if !ok || val != "R7" {
		t.Fatalf("Peek = %v, %v, want R7, true", val, ok)
	}
	if s := c.Stats(); s.Hits != 0 {
		t.Fatalf("Peek counted a hit: Hits = %d", s.Hits)
	}

	clock.Advance(6 * time.Minute)
	if _, ok := c.Peek("release", Params{"id": 7}); ok {
		t.Fatalf("Peek returned an expired entry")
	}
	if s := c.Stats(); s.Entries != 1 {
		t.Fatalf("Entries = %d after Peek of expired entry, want 1", s.Entries)
	}
}

func TestDo_TypedResult(t *testing.T) {
	c := New(Config{})

	type page struct{ Items []string }
	got, err := Do(context.Background(), c, "search", Params{"q": "x"}, func(context.Context) (page, error) {
		return page{Items: []string{"a"}}, nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0] != "a" {
		t.Fatalf("Do value = %#v, want one item", got)
	}

	// A cached value of another type under the same key is reported, not panicked on.
	_, err = Do(context.Background(), c, "search", Params{"q": "x"}, func(context.Context) (int, error) {
		return 1, nil
	}, DefaultOptions())
	if err == nil {
		t.Fatalf("Do returned nil error for mismatched cached type")
	}
}

func TestExecute_NilFetch(t *testing.T) {
	c := New(Config{})
	if _, err := c.Execute(context.Background(), "search", nil, nil, DefaultOptions()); err == nil {
		t.Fatalf("Execute with nil fetch returned nil error")
	}
}
