package requests

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	defaultMaxEntries = 50
	defaultTTL        = 5 * time.Minute
)

// FetchFunc performs the actual request. The context is cancelled when the
// request is cancelled; honoring it is up to the implementation.
type FetchFunc func(ctx context.Context) (any, error)

// Options tune a single Execute call. Use DefaultOptions, NoCache or Refresh
// rather than the zero value, which disables caching.
type Options struct {
	UseCache     bool
	TTL          time.Duration // zero uses the coordinator default
	ForceRefresh bool
}

// DefaultOptions caches with the coordinator's default TTL.
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// NoCache deduplicates but never reads or writes the cache.
func NoCache() Options {
	return Options{}
}

// Refresh skips the cache lookup and overwrites the entry with the fresh result.
func Refresh() Options {
	return Options{UseCache: true, ForceRefresh: true}
}

// Config configures a Coordinator.
type Config struct {
	MaxEntries int
	DefaultTTL time.Duration
	Now        func() time.Time
}

// Stats is a point-in-time view of coordinator activity.
type Stats struct {
	Entries  int
	InFlight int
	Hits     uint64
	Joins    uint64
	Fetches  uint64
}

type cacheEntry struct {
	key      string
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

type call struct {
	done   chan struct{}
	val    any
	err    error
	cancel context.CancelFunc
}

// Coordinator deduplicates concurrent identical requests, caches successful
// results with a TTL, and cancels in-flight work per request key.
type Coordinator struct {
	mu         sync.Mutex
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time

	entries  map[string]*list.Element
	order    *list.List // *cacheEntry, oldest insertion at the front
	inflight map[string]*call
	stats    Stats
}

// New builds a Coordinator, filling unset config with defaults.
func New(cfg Config) *Coordinator {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		now:        cfg.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		inflight:   make(map[string]*call),
	}
}

// Execute returns a cached result, joins an identical in-flight request, or
// starts fetch and caches its result.
//
// The fetch runs detached from ctx cancellation so joined callers are not
// affected when the first caller goes away; only Cancel and CancelAll stop it.
// A caller whose ctx ends while waiting receives ErrAborted.
func (c *Coordinator) Execute(ctx context.Context, endpoint string, params Params, fetch FetchFunc, opts Options) (any, error) {
	if fetch == nil {
		return nil, fmt.Errorf("execute %s: fetch func is nil", endpoint)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	key := Key(endpoint, params)
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	if opts.UseCache && !opts.ForceRefresh {
		if data, ok := c.lookupLocked(key); ok {
			c.stats.Hits++
			c.mu.Unlock()
			return data, nil
		}
	}
	if pending, ok := c.inflight[key]; ok {
		c.stats.Joins++
		c.mu.Unlock()
		return wait(ctx, pending)
	}

	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pending := &call{done: make(chan struct{}), cancel: cancel}
	c.inflight[key] = pending
	c.stats.Fetches++
	c.mu.Unlock()

	go c.run(fetchCtx, key, pending, fetch, opts.UseCache, ttl)
	return wait(ctx, pending)
}

func (c *Coordinator) run(ctx context.Context, key string, pending *call, fetch FetchFunc, useCache bool, ttl time.Duration) {
	defer pending.cancel()

	val, err := fetch(ctx)
	if err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)) {
		err = aborted(err)
	}

	c.mu.Lock()
	if err == nil && useCache {
		c.storeLocked(key, val, ttl)
	}
	if c.inflight[key] == pending {
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	pending.val, pending.err = val, err
	close(pending.done)
}

func wait(ctx context.Context, pending *call) (any, error) {
	select {
	case <-pending.done:
		return pending.val, pending.err
	default:
	}
	select {
	case <-pending.done:
		return pending.val, pending.err
	case <-ctx.Done():
		return nil, aborted(ctx.Err())
	}
}

// Cancel signals the in-flight request for endpoint+params, if any. The key is
// released immediately so a new request starts fresh instead of joining the
// cancelled one.
func (c *Coordinator) Cancel(endpoint string, params Params) {
	key := Key(endpoint, params)

	c.mu.Lock()
	pending, ok := c.inflight[key]
	if ok {
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	if ok {
		pending.cancel()
	}
}

// CancelAll signals every in-flight request and forgets them. Cached entries
// are kept; use Clear to drop them.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	pending := make([]*call, 0, len(c.inflight))
	for key, p := range c.inflight {
		pending = append(pending, p)
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	for _, p := range pending {
		p.cancel()
	}
}

// Sweep removes every expired cache entry and returns how many were dropped.
func (c *Coordinator) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if entry := el.Value.(*cacheEntry); entry.expired(now) {
			c.removeLocked(el)
			removed++
		}
		el = next
	}
	return removed
}

// Invalidate drops the cache entry for endpoint+params. It reports whether an
// entry was present.
func (c *Coordinator) Invalidate(endpoint string, params Params) bool {
	key := Key(endpoint, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if ok {
		c.removeLocked(el)
	}
	return ok
}

// Clear drops all cached entries.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Cached reports whether a live entry exists for endpoint+params without
// touching it.
func (c *Coordinator) Cached(endpoint string, params Params) bool {
	key := Key(endpoint, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	return ok && !el.Value.(*cacheEntry).expired(c.now())
}

// Peek returns the live cached value for endpoint+params. Unlike Execute it
// neither counts a hit nor removes an expired entry.
func (c *Coordinator) Peek(endpoint string, params Params) (any, bool) {
	key := Key(endpoint, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if entry.expired(c.now()) {
		return nil, false
	}
	return entry.data, true
}

// Stats returns a snapshot of cache and request counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.order.Len()
	s.InFlight = len(c.inflight)
	return s
}

func (c *Coordinator) lookupLocked(key string) (any, bool) {
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if entry.expired(c.now()) {
		c.removeLocked(el)
		return nil, false
	}
	return entry.data, true
}

// storeLocked inserts or overwrites an entry. Overwrites keep their insertion
// position; a new key evicts the earliest-inserted entry when the cache is full.
func (c *Coordinator) storeLocked(key string, data any, ttl time.Duration) {
	now := c.now()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.data = data
		entry.storedAt = now
		entry.ttl = ttl
		return
	}
	if c.order.Len() >= c.maxEntries {
		if oldest := c.order.Front(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
	entry := &cacheEntry{key: key, data: data, storedAt: now, ttl: ttl}
	c.entries[key] = c.order.PushBack(entry)
}

func (c *Coordinator) removeLocked(el *list.Element) {
	entry := c.order.Remove(el).(*cacheEntry)
	delete(c.entries, entry.key)
}

// Do is a typed wrapper around Execute.
func Do[T any](ctx context.Context, c *Coordinator, endpoint string, params Params, fetch func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	val, err := c.Execute(ctx, endpoint, params, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts)
	if err != nil {
		return zero, err
	}
	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("execute %s: result has type %T", endpoint, val)
	}
	return typed, nil
}
