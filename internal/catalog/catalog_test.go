package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/requests"
	"github.com/five82/luckyfind/internal/state"
)

type fakeFetcher struct {
	searches      atomic.Int32
	releases      atomic.Int32
	labels        atomic.Int32
	labelReleases atomic.Int32

	searchFn        func(ctx context.Context, q discogs.SearchQuery) (discogs.SearchPage, error)
	releaseFn       func(ctx context.Context, id int64) (discogs.Release, error)
	labelFn         func(ctx context.Context, id int64) (discogs.Label, error)
	labelReleasesFn func(ctx context.Context, id int64, page, perPage int) (discogs.LabelReleasesPage, error)
}

func (f *fakeFetcher) Search(ctx context.Context, q discogs.SearchQuery) (discogs.SearchPage, error) {
	f.searches.Add(1)
	if f.searchFn != nil {
		return f.searchFn(ctx, q)
	}
	return discogs.SearchPage{Results: []discogs.SearchResult{{ID: 1, Title: q.Query}}}, nil
}

func (f *fakeFetcher) Release(ctx context.Context, id int64) (discogs.Release, error) {
	f.releases.Add(1)
	if f.releaseFn != nil {
		return f.releaseFn(ctx, id)
	}
	return discogs.Release{ID: id, Title: "Abbey Road", Labels: []discogs.LabelRef{{ID: 281, Name: "Apple Records"}}}, nil
}

func (f *fakeFetcher) Label(ctx context.Context, id int64) (discogs.Label, error) {
	f.labels.Add(1)
	if f.labelFn != nil {
		return f.labelFn(ctx, id)
	}
	return discogs.Label{ID: id, Name: "Apple Records"}, nil
}

func (f *fakeFetcher) LabelReleases(ctx context.Context, id int64, page, perPage int) (discogs.LabelReleasesPage, error) {
	f.labelReleases.Add(1)
	if f.labelReleasesFn != nil {
		return f.labelReleasesFn(ctx, id, page, perPage)
	}
	return discogs.LabelReleasesPage{
		Pagination: discogs.Pagination{Page: page, Pages: 4, Items: 87, PerPage: perPage},
		Releases:   []discogs.LabelRelease{{ID: 1, Title: "Abbey Road"}},
	}, nil
}

func newService(t *testing.T, f *fakeFetcher) (*Service, *state.Store) {
	t.Helper()
	health := &state.Store{}
	svc, err := New(Options{
		Fetcher:     f,
		Coordinator: requests.New(requests.Config{}),
		Health:      health,
		PerPage:     25,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return svc, health
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Coordinator: requests.New(requests.Config{})}); err == nil {
		t.Fatalf("New without fetcher returned nil error")
	}
	if _, err := New(Options{Fetcher: &fakeFetcher{}}); err == nil {
		t.Fatalf("New without coordinator returned nil error")
	}
}

func TestSearchUsesCacheUntilForced(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newService(t, f)
	ctx := context.Background()
	q := discogs.SearchQuery{Query: "abbey road"}

	if _, err := svc.Search(ctx, q, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if !svc.SearchCached(q) {
		t.Fatalf("SearchCached = false after successful search")
	}
	// Whitespace and defaults normalize to the same key.
	if _, err := svc.Search(ctx, discogs.SearchQuery{Query: " abbey road ", Page: 1}, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if got := f.searches.Load(); got != 1 {
		t.Fatalf("fetcher searches = %d, want 1", got)
	}

	if _, err := svc.Search(ctx, q, true); err != nil {
		t.Fatalf("forced Search returned error: %v", err)
	}
	if got := f.searches.Load(); got != 2 {
		t.Fatalf("fetcher searches after force = %d, want 2", got)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newService(t, f)
	if _, err := svc.Search(context.Background(), discogs.SearchQuery{Query: "  "}, false); err == nil {
		t.Fatalf("Search with blank query returned nil error")
	}
	if got := f.searches.Load(); got != 0 {
		t.Fatalf("fetcher searches = %d, want 0", got)
	}
}

func TestSearchAppliesPerPage(t *testing.T) {
	var gotPerPage int
	f := &fakeFetcher{searchFn: func(_ context.Context, q discogs.SearchQuery) (discogs.SearchPage, error) {
		gotPerPage = q.PerPage
		return discogs.SearchPage{}, nil
	}}
	health := &state.Store{}
	svc, err := New(Options{Fetcher: f, Coordinator: requests.New(requests.Config{}), Health: health, PerPage: 50})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := svc.Search(context.Background(), discogs.SearchQuery{Query: "x"}, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotPerPage != 50 {
		t.Fatalf("per page = %d, want 50", gotPerPage)
	}
}

func TestConcurrentReleaseLookupsShareOneCall(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{releaseFn: func(ctx context.Context, id int64) (discogs.Release, error) {
		<-release
		return discogs.Release{ID: id}, nil
	}}
	svc, _ := newService(t, f)

	var wg sync.WaitGroup
	results := make([]discogs.Release, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.Release(context.Background(), 7, false)
			if err != nil {
				t.Errorf("Release returned error: %v", err)
			}
			results[i] = r
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for svc.Stats().Joins < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("second lookup never joined: %#v", svc.Stats())
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if got := f.releases.Load(); got != 1 {
		t.Fatalf("fetcher releases = %d, want 1", got)
	}
	if results[0].ID != 7 || results[1].ID != 7 {
		t.Fatalf("results = %#v, want both id 7", results)
	}
}

func TestRecordDetailFetchesLabelInfo(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newService(t, f)

	detail, err := svc.RecordDetail(context.Background(), 24047, false)
	if err != nil {
		t.Fatalf("RecordDetail returned error: %v", err)
	}
	if detail.Release.ID != 24047 {
		t.Fatalf("release id = %d, want 24047", detail.Release.ID)
	}
	if detail.Label == nil || detail.Label.ID != 281 {
		t.Fatalf("label = %#v, want Apple Records", detail.Label)
	}
	if detail.LabelReleaseCount != 87 {
		t.Fatalf("LabelReleaseCount = %d, want 87", detail.LabelReleaseCount)
	}

	// The prefetched listing serves the label screen without another call.
	if _, err := svc.LabelReleases(context.Background(), 281, 1, false); err != nil {
		t.Fatalf("LabelReleases returned error: %v", err)
	}
	if got := f.labelReleases.Load(); got != 1 {
		t.Fatalf("fetcher label releases = %d, want 1", got)
	}
}

func TestRecordDetailLabelFailureIsBestEffort(t *testing.T) {
	f := &fakeFetcher{
		labelFn: func(context.Context, int64) (discogs.Label, error) {
			return discogs.Label{}, errors.New("boom")
		},
		labelReleasesFn: func(context.Context, int64, int, int) (discogs.LabelReleasesPage, error) {
			return discogs.LabelReleasesPage{}, &discogs.APIError{Status: 500}
		},
	}
	svc, _ := newService(t, f)

	detail, err := svc.RecordDetail(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("RecordDetail returned error: %v", err)
	}
	if detail.Label != nil {
		t.Fatalf("label = %#v, want nil", detail.Label)
	}
	if detail.LabelReleaseCount != -1 {
		t.Fatalf("LabelReleaseCount = %d, want -1", detail.LabelReleaseCount)
	}
}

func TestRecordDetailWithoutLabel(t *testing.T) {
	f := &fakeFetcher{releaseFn: func(_ context.Context, id int64) (discogs.Release, error) {
		return discogs.Release{ID: id}, nil
	}}
	svc, _ := newService(t, f)

	detail, err := svc.RecordDetail(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("RecordDetail returned error: %v", err)
	}
	if detail.Label != nil || f.labels.Load() != 0 || f.labelReleases.Load() != 0 {
		t.Fatalf("label lookups ran for release without label")
	}
}

func TestRecordDetailReleaseError(t *testing.T) {
	f := &fakeFetcher{releaseFn: func(context.Context, int64) (discogs.Release, error) {
		return discogs.Release{}, &discogs.APIError{Status: 404, Path: "/releases/1"}
	}}
	svc, health := newService(t, f)

	_, err := svc.RecordDetail(context.Background(), 1, false)
	if !errors.Is(err, discogs.ErrNotFound) {
		t.Fatalf("RecordDetail error = %v, want ErrNotFound", err)
	}
	if snap := health.Snapshot(); snap.ConsecutiveFailures != 0 {
		t.Fatalf("404 counted as failure: %d", snap.ConsecutiveFailures)
	}
}

func TestCancelReleaseAbortsWithoutHealthFailure(t *testing.T) {
	started := make(chan struct{})
	f := &fakeFetcher{releaseFn: func(ctx context.Context, id int64) (discogs.Release, error) {
		close(started)
		<-ctx.Done()
		return discogs.Release{}, ctx.Err()
	}}
	svc, health := newService(t, f)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Release(context.Background(), 9, false)
		errCh <- err
	}()
	<-started
	svc.CancelRelease(9)

	select {
	case err := <-errCh:
		if !requests.IsAborted(err) {
			t.Fatalf("Release error = %v, want aborted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Release did not return after CancelRelease")
	}
	if snap := health.Snapshot(); snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Fatalf("cancel recorded as failure: %#v", snap)
	}
}

func TestFailuresReachHealthStore(t *testing.T) {
	f := &fakeFetcher{searchFn: func(context.Context, discogs.SearchQuery) (discogs.SearchPage, error) {
		return discogs.SearchPage{}, &discogs.APIError{Status: 503}
	}}
	svc, health := newService(t, f)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Search(ctx, discogs.SearchQuery{Query: "x"}, false); err == nil {
			t.Fatalf("Search returned nil error")
		}
	}
	if snap := health.Snapshot(); !snap.IsOffline() {
		t.Fatalf("IsOffline() = false after 2 failures: %#v", snap)
	}

	f.searchFn = nil
	if _, err := svc.Search(ctx, discogs.SearchQuery{Query: "x"}, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if snap := health.Snapshot(); snap.IsOffline() {
		t.Fatalf("IsOffline() = true after success")
	}
}

func TestCancelAllKeepsCache(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newService(t, f)
	q := discogs.SearchQuery{Query: "abbey road"}
	if _, err := svc.Search(context.Background(), q, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	svc.CancelAll()
	if !svc.SearchCached(q) {
		t.Fatalf("CancelAll dropped cached search")
	}
}

func TestCancelRecordDetailResolvesLabelFromCachedRelease(t *testing.T) {
	labelStarted := make(chan struct{})
	f := &fakeFetcher{labelFn: func(ctx context.Context, id int64) (discogs.Label, error) {
		close(labelStarted)
		<-ctx.Done()
		return discogs.Label{}, ctx.Err()
	}}
	svc, _ := newService(t, f)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.RecordDetail(context.Background(), 5, false)
		errCh <- err
	}()
	<-labelStarted
	svc.CancelRecordDetail(5, 0)

	select {
	case err := <-errCh:
		if !requests.IsAborted(err) {
			t.Fatalf("RecordDetail error = %v, want aborted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("label lookup kept running after CancelRecordDetail")
	}
	if n := svc.Stats().InFlight; n != 0 {
		t.Fatalf("InFlight = %d after cancel, want 0", n)
	}
}
