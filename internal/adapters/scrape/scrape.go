// Package scrape implements the provider fetch capability: per-platform
// fetchers that turn raw scraper payloads into normalized feed posts.
package scrape

import (
	"context"
	"strings"
	"time"

	"creatorhoop/internal/core/feed"
)

// Fetcher is the provider fetch capability. Implementations return the
// normalized posts for a profile; callers treat any error as "this profile
// contributes nothing".
type Fetcher interface {
	Fetch(ctx context.Context, profileURL string, start, end time.Time, limit int) ([]feed.Post, error)
}

// Runner is the slice of the Apify client the fetchers need
type Runner interface {
	Configured() bool
	RunSyncItems(ctx context.Context, actor string, payload any) ([]feed.Record, error)
	RunPollItems(ctx context.Context, actor string, payload any) ([]feed.Record, error)
}

// ProxyConfig is the optional Apify proxy block shared by all actors
type ProxyConfig struct {
	Enabled bool
	Groups  []string
}

func (p ProxyConfig) payload() map[string]any {
	if !p.Enabled {
		return nil
	}
	cfg := map[string]any{"useApifyProxy": true}
	if len(p.Groups) > 0 {
		cfg["apifyProxyGroups"] = p.Groups
	}
	return cfg
}

// Registry dispatches a profile to the fetcher for its platform. An unknown
// or unconfigured platform yields no fetcher, the profile is skipped.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds a registry; nil fetchers are ignored
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register adds a fetcher under a platform key ("instagram", "tiktok")
func (r *Registry) Register(platform string, f Fetcher) {
	if f == nil {
		return
	}
	r.fetchers[strings.ToLower(platform)] = f
}

// ForProfile resolves a fetcher by explicit platform name first, then by
// URL substring
func (r *Registry) ForProfile(platform, profileURL string) (Fetcher, bool) {
	if f, ok := r.fetchers[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return f, true
	}
	lower := strings.ToLower(profileURL)
	for key, f := range r.fetchers {
		if strings.Contains(lower, key+".com") {
			return f, true
		}
	}
	return nil, false
}

func clampLimit(limit, lo, hi int) int {
	if limit < lo {
		return lo
	}
	if limit > hi {
		return hi
	}
	return limit
}
