package discogs

import (
	"strconv"
	"strings"
)

// Pagination mirrors the pagination block on list endpoints.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// HasNext reports whether another page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.Pages
}

// HasPrev reports whether an earlier page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// Community holds collector counts.
type Community struct {
	Have   int    `json:"have"`
	Want   int    `json:"want"`
	Rating Rating `json:"rating"`
}

// Rating is the community rating summary.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// SearchPage mirrors /database/search.
type SearchPage struct {
	Pagination Pagination     `json:"pagination"`
	Results    []SearchResult `json:"results"`
}

// SearchResult is a single database search hit.
type SearchResult struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Year        string    `json:"year"`
	Country     string    `json:"country"`
	Format      []string  `json:"format"`
	Label       []string  `json:"label"`
	Genre       []string  `json:"genre"`
	Style       []string  `json:"style"`
	Catno       string    `json:"catno"`
	Thumb       string    `json:"thumb"`
	CoverImage  string    `json:"cover_image"`
	MasterID    int64     `json:"master_id"`
	ResourceURL string    `json:"resource_url"`
	URI         string    `json:"uri"`
	Community   Community `json:"community"`
}

// ArtistRef is an artist credit on a release.
type ArtistRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	ANV  string `json:"anv"`
	Join string `json:"join"`
}

// LabelRef is a label credit on a release.
type LabelRef struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Catno          string `json:"catno"`
	EntityTypeName string `json:"entity_type_name"`
	ResourceURL    string `json:"resource_url"`
}

// IDString returns the label ID as a navigation identifier, or "" when unknown.
func (l LabelRef) IDString() string {
	if l.ID <= 0 {
		return ""
	}
	return strconv.FormatInt(l.ID, 10)
}

// Format describes a physical or digital format on a release.
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Descriptions []string `json:"descriptions"`
	Text         string   `json:"text"`
}

// Track is one entry in a tracklist.
type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Type     string `json:"type_"`
}

// Video is a preview video linked from a release.
type Video struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Embed       bool   `json:"embed"`
}

// Release mirrors /releases/{id}.
type Release struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Year      int         `json:"year"`
	Country   string      `json:"country"`
	Released  string      `json:"released"`
	Notes     string      `json:"notes"`
	Artists   []ArtistRef `json:"artists"`
	Labels    []LabelRef  `json:"labels"`
	Formats   []Format    `json:"formats"`
	Genres    []string    `json:"genres"`
	Styles    []string    `json:"styles"`
	Tracklist []Track     `json:"tracklist"`
	Videos    []Video     `json:"videos"`
	Community Community   `json:"community"`
	URI       string      `json:"uri"`
}

// ArtistDisplay joins artist credits the way Discogs prints them.
func (r Release) ArtistDisplay() string {
	var b strings.Builder
	for i, a := range r.Artists {
		name := strings.TrimSpace(a.ANV)
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		b.WriteString(name)
		if i < len(r.Artists)-1 {
			join := strings.TrimSpace(a.Join)
			switch join {
			case "", ",":
				b.WriteString(join + " ")
			default:
				b.WriteString(" " + join + " ")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// PrimaryLabel returns the first credited label with a usable ID.
func (r Release) PrimaryLabel() (LabelRef, bool) {
	for _, l := range r.Labels {
		if l.ID > 0 && strings.TrimSpace(l.Name) != "" {
			return l, true
		}
	}
	return LabelRef{}, false
}

// FormatSummary renders formats as "2×Vinyl, LP, Album".
func (r Release) FormatSummary() string {
	parts := make([]string, 0, len(r.Formats))
	for _, f := range r.Formats {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		if qty := strings.TrimSpace(f.Qty); qty != "" && qty != "1" {
			name = qty + "×" + name
		}
		fields := append([]string{name}, f.Descriptions...)
		parts = append(parts, strings.Join(fields, ", "))
	}
	return strings.Join(parts, "; ")
}

// Label mirrors /labels/{id}.
type Label struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Profile     string     `json:"profile"`
	ContactInfo string     `json:"contact_info"`
	URLs        []string   `json:"urls"`
	ParentLabel *LabelRef  `json:"parent_label"`
	Sublabels   []LabelRef `json:"sublabels"`
	URI         string     `json:"uri"`
}

// LabelReleasesPage mirrors /labels/{id}/releases.
type LabelReleasesPage struct {
	Pagination Pagination     `json:"pagination"`
	Releases   []LabelRelease `json:"releases"`
}

// LabelRelease is a release listed under a label.
type LabelRelease struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Year        int    `json:"year"`
	Catno       string `json:"catno"`
	Format      string `json:"format"`
	Status      string `json:"status"`
	Thumb       string `json:"thumb"`
	ResourceURL string `json:"resource_url"`
}

// IDString returns the release ID as a navigation identifier, or "" when unknown.
func (r LabelRelease) IDString() string {
	if r.ID <= 0 {
		return ""
	}
	return strconv.FormatInt(r.ID, 10)
}

// RateLimit captures the X-Discogs-Ratelimit headers from the last response.
type RateLimit struct {
	Limit     int
	Used      int
	Remaining int
}
