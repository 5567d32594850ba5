// Package window resolves a human-entered time-window token into an
// absolute UTC range and filters posts against it.
package window

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"creatorhoop/internal/core/feed"
)

// DefaultDays is used when the token does not match the "<digits>d" pattern.
// The fallback is silent for compatibility with existing callers.
const DefaultDays = 21

var tokenRe = regexp.MustCompile(`^(\d+)d$`)

// now is a seam for tests
var now = time.Now

// Parse resolves token into a (start, end) UTC pair. end is the current UTC
// instant; start is end minus the parsed day count. Days are unbounded.
func Parse(token string) (start, end time.Time) {
	end = now().UTC()

	days := DefaultDays
	m := tokenRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(token)))
	if m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			days = d
		}
	}

	start = end.AddDate(0, 0, -days)
	return start, end
}

// Filter retains posts whose PostedAt falls inside [start, end], inclusive
// on both bounds. Posts without a usable timestamp are dropped, not errored.
func Filter(posts []feed.Post, start, end time.Time) []feed.Post {
	out := make([]feed.Post, 0, len(posts))
	for _, p := range posts {
		if p.PostedAt.IsZero() {
			continue
		}
		ts := p.PostedAt.UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
