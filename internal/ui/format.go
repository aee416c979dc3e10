package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/luckyfind/internal/discogs"
)

var titleCaser = cases.Title(language.English)

// formatCount renders "1 release" or "12,345 releases".
func formatCount(p *message.Printer, n int, singular, plural string) string {
	if n == 1 {
		return p.Sprintf("%d %s", n, singular)
	}
	return p.Sprintf("%d %s", n, plural)
}

func formatThousands(n int) string {
	return humanize.Comma(int64(n))
}

// formatRating renders "4.32/5 (1,024 votes)".
func formatRating(avg float64, count int) string {
	votes := "votes"
	if count == 1 {
		votes = "vote"
	}
	return fmt.Sprintf("%s/5 (%s %s)", humanize.FtoaWithDigits(avg, 2), formatThousands(count), votes)
}

// formatSeconds renders a video length as m:ss or h:mm:ss.
func formatSeconds(secs int) string {
	if secs <= 0 {
		return ""
	}
	h, m, s := secs/3600, (secs/60)%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func titleCase(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}

// describeError turns a lookup failure into a short user-facing message.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *discogs.APIError
	switch {
	case errors.Is(err, discogs.ErrNotFound):
		return "Not found on Discogs"
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return "Discogs rejected the credentials (401). Check LUCKYFIND_DISCOGS_TOKEN"
		case http.StatusForbidden:
			return "Discogs refused the request (403)"
		case http.StatusTooManyRequests:
			return "Rate limited by Discogs. Try again in a minute"
		}
		if apiErr.Status >= 500 {
			return fmt.Sprintf("Discogs is unavailable (%d)", apiErr.Status)
		}
		return apiErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	}
	return err.Error()
}
