package discogs

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultSearchType = "release"
	defaultPerPage    = 25
	maxPerPage        = 100
)

// SearchQuery configures /database/search requests.
type SearchQuery struct {
	Query   string
	Type    string // release, master, artist, label; empty means release
	Genre   string
	Style   string
	Country string
	Year    string
	Format  string
	Label   string
	Page    int
	PerPage int
}

// Normalized trims fields and fills paging defaults.
func (q SearchQuery) Normalized() SearchQuery {
	q.Query = strings.TrimSpace(q.Query)
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	if q.Type == "" {
		q.Type = defaultSearchType
	}
	q.Genre = strings.TrimSpace(q.Genre)
	q.Style = strings.TrimSpace(q.Style)
	q.Country = strings.TrimSpace(q.Country)
	q.Year = strings.TrimSpace(q.Year)
	q.Format = strings.TrimSpace(q.Format)
	q.Label = strings.TrimSpace(q.Label)
	if q.Page < 1 {
		q.Page = 1
	}
	q.PerPage = clampPerPage(q.PerPage)
	return q
}

// IsEmpty reports whether the query has neither text nor filters.
func (q SearchQuery) IsEmpty() bool {
	n := q.Normalized()
	return n.Query == "" && n.Genre == "" && n.Style == "" && n.Country == "" &&
		n.Year == "" && n.Format == "" && n.Label == ""
}

// HasFilters reports whether any filter besides the text query is set.
func (q SearchQuery) HasFilters() bool {
	n := q.Normalized()
	return n.Genre != "" || n.Style != "" || n.Country != "" || n.Year != "" || n.Format != "" || n.Label != ""
}

// Params returns the non-empty query fields as a flat map.
func (q SearchQuery) Params() map[string]any {
	n := q.Normalized()
	params := map[string]any{
		"type":     n.Type,
		"page":     n.Page,
		"per_page": n.PerPage,
	}
	for name, value := range map[string]string{
		"q":       n.Query,
		"genre":   n.Genre,
		"style":   n.Style,
		"country": n.Country,
		"year":    n.Year,
		"format":  n.Format,
		"label":   n.Label,
	} {
		if value != "" {
			params[name] = value
		}
	}
	return params
}

// Values encodes the query for the HTTP request.
func (q SearchQuery) Values() url.Values {
	values := url.Values{}
	for name, value := range q.Params() {
		switch v := value.(type) {
		case int:
			values.Set(name, strconv.Itoa(v))
		case string:
			values.Set(name, v)
		}
	}
	return values
}

func clampPerPage(perPage int) int {
	switch {
	case perPage <= 0:
		return defaultPerPage
	case perPage > maxPerPage:
		return maxPerPage
	default:
		return perPage
	}
}
