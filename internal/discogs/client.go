package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Fetcher is the subset of the Discogs API LuckyFind uses. *Client implements
// it; tests substitute fakes.
type Fetcher interface {
	Search(ctx context.Context, query SearchQuery) (SearchPage, error)
	Release(ctx context.Context, id int64) (Release, error)
	Label(ctx context.Context, id int64) (Label, error)
	LabelReleases(ctx context.Context, id int64, page, perPage int) (LabelReleasesPage, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// ErrNotFound is matched by API errors with status 404.
var ErrNotFound = errors.New("not found")

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Path    string
	Message string
	// RetryAfter is the server's requested wait on 429/503, or zero.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

func (e *APIError) retryable() bool {
	switch e.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Credentials authenticate requests. A personal token takes precedence over
// a consumer key/secret pair.
type Credentials struct {
	Token  string
	Key    string
	Secret string
}

func (c Credentials) header() string {
	if token := strings.TrimSpace(c.Token); token != "" {
		return "Discogs token=" + token
	}
	key, secret := strings.TrimSpace(c.Key), strings.TrimSpace(c.Secret)
	if key != "" && secret != "" {
		return fmt.Sprintf("Discogs key=%s, secret=%s", key, secret)
	}
	return ""
}

// Options configure a Client.
type Options struct {
	BaseURL      string
	Credentials  Credentials
	UserAgent    string
	Timeout      time.Duration
	MaxTries     uint
	RetryBackoff time.Duration // initial backoff between retries
	OnRateLimit  func(RateLimit)
}

// Client talks to the Discogs HTTP API.
type Client struct {
	baseURL      *url.URL
	http         *http.Client
	userAgent    string
	auth         string
	maxTries     uint
	retryBackoff time.Duration
	onRateLimit  func(RateLimit)
}

const (
	defaultBaseURL      = "https://api.discogs.com"
	defaultUserAgent    = "LuckyFind/0.1 +https://github.com/five82/luckyfind"
	requestTimeout      = 10 * time.Second
	defaultMaxTries     = 3
	defaultRetryBackoff = time.Second
	maxRetryAfter       = 30 * time.Second
	maxErrorBody        = 4 << 10
)

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxTries := opts.MaxTries
	if maxTries == 0 {
		maxTries = defaultMaxTries
	}
	retryBackoff := opts.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &Client{
		baseURL:      base,
		http:         &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		auth:         opts.Credentials.header(),
		maxTries:     maxTries,
		retryBackoff: retryBackoff,
		onRateLimit:  opts.OnRateLimit,
	}, nil
}

// Authenticated reports whether the client sends credentials. Discogs rejects
// unauthenticated database searches.
func (c *Client) Authenticated() bool {
	return c != nil && c.auth != ""
}

// Search runs a database search.
func (c *Client) Search(ctx context.Context, query SearchQuery) (SearchPage, error) {
	if c == nil {
		return SearchPage{}, fmt.Errorf("client is nil")
	}
	if query.IsEmpty() {
		return SearchPage{}, fmt.Errorf("search query is empty")
	}
	rel := &url.URL{Path: "/database/search", RawQuery: query.Values().Encode()}
	var payload SearchPage
	if err := c.doURL(ctx, rel, &payload); err != nil {
		return SearchPage{}, err
	}
	return payload, nil
}

// Release fetches a single release.
func (c *Client) Release(ctx context.Context, id int64) (Release, error) {
	if c == nil {
		return Release{}, fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return Release{}, fmt.Errorf("release id required")
	}
	var payload Release
	if err := c.do(ctx, "/releases/"+strconv.FormatInt(id, 10), &payload); err != nil {
		return Release{}, err
	}
	return payload, nil
}

// Label fetches a label profile.
func (c *Client) Label(ctx context.Context, id int64) (Label, error) {
	if c == nil {
		return Label{}, fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return Label{}, fmt.Errorf("label id required")
	}
	var payload Label
	if err := c.do(ctx, "/labels/"+strconv.FormatInt(id, 10), &payload); err != nil {
		return Label{}, err
	}
	return payload, nil
}

// LabelReleases lists one page of a label's releases.
func (c *Client) LabelReleases(ctx context.Context, id int64, page, perPage int) (LabelReleasesPage, error) {
	if c == nil {
		return LabelReleasesPage{}, fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return LabelReleasesPage{}, fmt.Errorf("label id required")
	}
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("per_page", strconv.Itoa(clampPerPage(perPage)))
	rel := &url.URL{
		Path:     "/labels/" + strconv.FormatInt(id, 10) + "/releases",
		RawQuery: values.Encode(),
	}
	var payload LabelReleasesPage
	if err := c.doURL(ctx, rel, &payload); err != nil {
		return LabelReleasesPage{}, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, rel, dest)
}

// doURL runs a GET with retries on throttling and gateway errors. Other API
// errors, decode failures and cancellation end the retry loop immediately.
func (c *Client) doURL(ctx context.Context, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryBackoff
	exp.MaxInterval = 8 * c.retryBackoff
	policy := &retryAfterBackOff{BackOff: exp, max: maxRetryAfter}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.get(ctx, reqURL, rel.Path, dest)
		if err == nil {
			return struct{}{}, nil
		}
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.retryable() {
			policy.wait = apiErr.RetryAfter
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(c.maxTries))
	return err
}

func (c *Client) get(ctx context.Context, reqURL *url.URL, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.discogs.v2.discogs+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if rate, ok := parseRateLimit(resp.Header); ok && c.onRateLimit != nil {
		c.onRateLimit(rate)
	}

	if resp.StatusCode >= 400 {
		return &APIError{
			Status:     resp.StatusCode,
			Path:       path,
			Message:    readErrorMessage(resp.Body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}

// retryAfterBackOff waits at least as long as the last response asked,
// capped at max.
type retryAfterBackOff struct {
	backoff.BackOff
	max  time.Duration
	wait time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	wait := min(b.wait, b.max)
	b.wait = 0
	if next == backoff.Stop {
		return next
	}
	return max(next, wait)
}

// parseRetryAfter reads a Retry-After header in either delay-seconds or
// HTTP-date form.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func parseRateLimit(h http.Header) (RateLimit, bool) {
	remaining := h.Get("X-Discogs-Ratelimit-Remaining")
	if remaining == "" {
		return RateLimit{}, false
	}
	var rate RateLimit
	var err error
	if rate.Remaining, err = strconv.Atoi(remaining); err != nil {
		return RateLimit{}, false
	}
	rate.Limit, _ = strconv.Atoi(h.Get("X-Discogs-Ratelimit"))
	rate.Used, _ = strconv.Atoi(h.Get("X-Discogs-Ratelimit-Used"))
	return rate, true
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
