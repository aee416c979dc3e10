package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/requests"
	"github.com/five82/luckyfind/internal/state"
)

// Endpoint names used as the first half of every request key.
const (
	EndpointSearch        = "search"
	EndpointRelease       = "release"
	EndpointLabel         = "label"
	EndpointLabelReleases = "label-releases"
)

// Options configure a Service.
type Options struct {
	Fetcher     discogs.Fetcher
	Coordinator *requests.Coordinator
	Health      *state.Store // optional
	PerPage     int          // zero uses the API default
}

// Service runs Discogs lookups through the request coordinator.
type Service struct {
	fetcher discogs.Fetcher
	coord   *requests.Coordinator
	health  *state.Store
	perPage int
}

// Detail is everything the record screen renders.
type Detail struct {
	Release discogs.Release
	// Label is the primary label's profile; nil when the release has no usable
	// label or the lookup failed.
	Label *discogs.Label
	// LabelReleaseCount is the number of releases on the primary label, or -1
	// when unknown.
	LabelReleaseCount int
}

// New validates opts and returns a Service.
func New(opts Options) (*Service, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("catalog: fetcher is nil")
	}
	if opts.Coordinator == nil {
		return nil, fmt.Errorf("catalog: coordinator is nil")
	}
	return &Service{
		fetcher: opts.Fetcher,
		coord:   opts.Coordinator,
		health:  opts.Health,
		perPage: opts.PerPage,
	}, nil
}

// Search runs query. force bypasses the cache and overwrites the entry.
func (s *Service) Search(ctx context.Context, query discogs.SearchQuery, force bool) (discogs.SearchPage, error) {
	query = s.normalize(query)
	if query.IsEmpty() {
		return discogs.SearchPage{}, fmt.Errorf("search query is empty")
	}
	return requests.Do(ctx, s.coord, EndpointSearch, requests.Params(query.Params()),
		func(ctx context.Context) (discogs.SearchPage, error) {
			page, err := s.fetcher.Search(ctx, query)
			s.observe(ctx, EndpointSearch, err)
			return page, err
		}, options(force))
}

// Release fetches a single release.
func (s *Service) Release(ctx context.Context, id int64, force bool) (discogs.Release, error) {
	return requests.Do(ctx, s.coord, EndpointRelease, idParams(id),
		func(ctx context.Context) (discogs.Release, error) {
			release, err := s.fetcher.Release(ctx, id)
			s.observe(ctx, EndpointRelease, err)
			return release, err
		}, options(force))
}

// Label fetches a label profile.
func (s *Service) Label(ctx context.Context, id int64, force bool) (discogs.Label, error) {
	return requests.Do(ctx, s.coord, EndpointLabel, idParams(id),
		func(ctx context.Context) (discogs.Label, error) {
			label, err := s.fetcher.Label(ctx, id)
			s.observe(ctx, EndpointLabel, err)
			return label, err
		}, options(force))
}

// LabelReleases lists one page of releases for a label.
func (s *Service) LabelReleases(ctx context.Context, labelID int64, page int, force bool) (discogs.LabelReleasesPage, error) {
	if page < 1 {
		page = 1
	}
	return requests.Do(ctx, s.coord, EndpointLabelReleases, s.labelReleasesParams(labelID, page),
		func(ctx context.Context) (discogs.LabelReleasesPage, error) {
			list, err := s.fetcher.LabelReleases(ctx, labelID, page, s.perPage)
			s.observe(ctx, EndpointLabelReleases, err)
			return list, err
		}, options(force))
}

// RecordDetail fetches a release, then its primary label's profile and the
// first page of the label's releases in parallel. The label lookups are
// best-effort: their failures leave the corresponding Detail fields empty.
// Only an aborted label lookup fails the whole call.
func (s *Service) RecordDetail(ctx context.Context, id int64, force bool) (Detail, error) {
	release, err := s.Release(ctx, id, force)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Release: release, LabelReleaseCount: -1}

	ref, ok := release.PrimaryLabel()
	if !ok {
		return detail, nil
	}

	var g errgroup.Group
	g.Go(func() error {
		label, err := s.Label(ctx, ref.ID, force)
		if err != nil {
			return abortedOnly(err)
		}
		detail.Label = &label
		return nil
	})
	g.Go(func() error {
		page, err := s.LabelReleases(ctx, ref.ID, 1, force)
		if err != nil {
			return abortedOnly(err)
		}
		detail.LabelReleaseCount = page.Pagination.Items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// CancelSearch aborts the in-flight request for query.
func (s *Service) CancelSearch(query discogs.SearchQuery) {
	s.coord.Cancel(EndpointSearch, requests.Params(s.normalize(query).Params()))
}

// CancelRelease aborts the in-flight release lookup for id.
func (s *Service) CancelRelease(id int64) {
	s.coord.Cancel(EndpointRelease, idParams(id))
}

// CancelRecordDetail aborts the release lookup for id and the label lookups
// RecordDetail starts for it. A zero labelID is resolved from the cached
// release, since the label lookups only begin once the release has arrived.
func (s *Service) CancelRecordDetail(id, labelID int64) {
	s.CancelRelease(id)
	if labelID <= 0 {
		labelID = s.cachedLabelID(id)
	}
	if labelID > 0 {
		s.coord.Cancel(EndpointLabel, idParams(labelID))
		s.CancelLabelReleases(labelID, 1)
	}
}

// CancelLabelReleases aborts the in-flight label listing for labelID and page.
func (s *Service) CancelLabelReleases(labelID int64, page int) {
	if page < 1 {
		page = 1
	}
	s.coord.Cancel(EndpointLabelReleases, s.labelReleasesParams(labelID, page))
}

// CancelAll aborts every in-flight request. Cached results are kept.
func (s *Service) CancelAll() {
	s.coord.CancelAll()
}

// SearchCached reports whether query has a live cache entry.
func (s *Service) SearchCached(query discogs.SearchQuery) bool {
	return s.coord.Cached(EndpointSearch, requests.Params(s.normalize(query).Params()))
}

// Stats exposes the coordinator counters for the header.
func (s *Service) Stats() requests.Stats {
	return s.coord.Stats()
}

func (s *Service) normalize(query discogs.SearchQuery) discogs.SearchQuery {
	if query.PerPage == 0 && s.perPage > 0 {
		query.PerPage = s.perPage
	}
	return query.Normalized()
}

func (s *Service) cachedLabelID(releaseID int64) int64 {
	data, ok := s.coord.Peek(EndpointRelease, idParams(releaseID))
	if !ok {
		return 0
	}
	release, ok := data.(discogs.Release)
	if !ok {
		return 0
	}
	ref, ok := release.PrimaryLabel()
	if !ok {
		return 0
	}
	return ref.ID
}

func (s *Service) labelReleasesParams(labelID int64, page int) requests.Params {
	return requests.Params{"id": labelID, "page": page, "per_page": s.perPage}
}

// observe records the outcome of one API call. Calls cut short by
// cancellation say nothing about API health and are skipped, as are 404s,
// which prove the API answered.
func (s *Service) observe(ctx context.Context, endpoint string, err error) {
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil && !errors.Is(err, discogs.ErrNotFound) {
		log.Printf("discogs %s failed: %v", endpoint, err)
	}
	if s.health == nil {
		return
	}
	if errors.Is(err, discogs.ErrNotFound) {
		err = nil
	}
	s.health.Update(nil, err)
}

func idParams(id int64) requests.Params {
	return requests.Params{"id": id}
}

func options(force bool) requests.Options {
	if force {
		return requests.Refresh()
	}
	return requests.DefaultOptions()
}

func abortedOnly(err error) error {
	if requests.IsAborted(err) {
		return err
	}
	return nil
}
