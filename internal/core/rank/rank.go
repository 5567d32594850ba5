// Package rank computes the per-pool baseline, scores posts against it, and
// selects the top-N under a deterministic sort.
package rank

import (
	"math"
	"sort"

	"creatorhoop/internal/core/feed"
)

// MaxSelect is the hard cap on selected items regardless of the request
const MaxSelect = 5

// baselineSample is how many of the most recent posts feed the baseline
const baselineSample = 10

// Baseline returns the reference view level for a pool: the average views
// of the 10 most recent posts by PostedAt, floored at 1.0. Empty input
// yields 1.0 so downstream division stays safe and "no data" is distinct
// from a real zero.
func Baseline(posts []feed.Post) float64 {
	if len(posts) == 0 {
		return 1.0
	}

	sample := make([]feed.Post, len(posts))
	copy(sample, posts)
	sort.SliceStable(sample, func(i, j int) bool {
		return sample[i].PostedAt.After(sample[j].PostedAt)
	})
	if len(sample) > baselineSample {
		sample = sample[:baselineSample]
	}

	var total float64
	for _, p := range sample {
		total += float64(clamp(p.Views))
	}
	avg := total / float64(len(sample))
	if avg < 1.0 {
		return 1.0
	}
	return avg
}

// Score rates a post against the pool baseline. Growth rewards beating the
// profile's own recent level (60%), engagement rewards interaction density
// relative to reach (40%). Negative when views fall far below baseline,
// unbounded above. Rounded to 2 decimals.
func Score(p feed.Post, baseline float64) float64 {
	views := float64(clamp(p.Views))
	likes := float64(clamp(p.Likes))
	comments := float64(clamp(p.Comments))

	engagement := (likes + comments) / math.Max(views, 1)
	growth := (views - baseline) / math.Max(baseline, 1)

	return round2(100 * (0.6*growth + 0.4*engagement))
}

// SelectTop sorts the pool and truncates it to max(1, min(n, MaxSelect)).
// sortBy is one of score|views|likes|comments, anything else falls back to
// score. Only an exact "asc" order sorts ascending. Ties break on views so
// fixtures stay reproducible. Empty input yields empty output.
func SelectTop(posts []feed.Post, n int, sortBy, order string) []feed.Post {
	limit := n
	if limit > MaxSelect {
		limit = MaxSelect
	}
	if limit < 1 {
		limit = 1
	}

	pool := make([]feed.Post, len(posts))
	copy(pool, posts)

	key := keyFunc(sortBy)
	if sortBy != "views" && sortBy != "likes" && sortBy != "comments" {
		// score sort annotates every post against the shared pool baseline
		baseline := Baseline(pool)
		for i := range pool {
			pool[i].Score = Score(pool[i], baseline)
		}
	}

	asc := order == "asc"
	sort.SliceStable(pool, func(i, j int) bool {
		ki, kj := key(pool[i]), key(pool[j])
		if ki != kj {
			if asc {
				return ki < kj
			}
			return ki > kj
		}
		// secondary tie-break on views, same direction
		if asc {
			return pool[i].Views < pool[j].Views
		}
		return pool[i].Views > pool[j].Views
	})

	if len(pool) > 0 {
		if len(pool) > limit {
			pool = pool[:limit]
		}
		return pool
	}

	return fallback(posts, limit)
}

// fallback re-scores by raw interaction volume, then degrades to an
// unscored prefix. It never panics; a truly empty pool selects nothing.
func fallback(posts []feed.Post, limit int) []feed.Post {
	if len(posts) == 0 {
		return []feed.Post{}
	}

	pool := make([]feed.Post, len(posts))
	copy(pool, posts)
	for i := range pool {
		pool[i].Score = float64(clamp(pool[i].Likes) + clamp(pool[i].Comments))
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		return pool[i].Likes > pool[j].Likes
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}

func keyFunc(sortBy string) func(feed.Post) float64 {
	switch sortBy {
	case "views":
		return func(p feed.Post) float64 { return float64(p.Views) }
	case "likes":
		return func(p feed.Post) float64 { return float64(p.Likes) }
	case "comments":
		return func(p feed.Post) float64 { return float64(p.Comments) }
	default:
		return func(p feed.Post) float64 { return p.Score }
	}
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
