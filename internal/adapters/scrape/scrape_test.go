package scrape

import (
	"context"
	"testing"
	"time"

	"creatorhoop/internal/core/feed"
)

// fakeRunner scripts Apify responses per payload variant
type fakeRunner struct {
	configured bool
	syncCalls  []map[string]any
	pollCalls  []map[string]any
	respond    func(payload map[string]any) []feed.Record
}

func (f *fakeRunner) Configured() bool { return f.configured }

func (f *fakeRunner) RunSyncItems(_ context.Context, _ string, payload any) ([]feed.Record, error) {
	p := payload.(map[string]any)
	f.syncCalls = append(f.syncCalls, p)
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(p), nil
}

func (f *fakeRunner) RunPollItems(_ context.Context, _ string, payload any) ([]feed.Record, error) {
	p := payload.(map[string]any)
	f.pollCalls = append(f.pollCalls, p)
	return nil, nil
}

func window() (time.Time, time.Time) {
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -21), end
}

func TestRegistry_ForProfile(t *testing.T) {
	ig := NewInstagram(&fakeRunner{}, "", ProxyConfig{})
	tt := NewTikTok(&fakeRunner{}, "", ProxyConfig{})

	r := NewRegistry()
	r.Register("instagram", ig)
	r.Register("tiktok", tt)

	tests := []struct {
		name     string
		platform string
		url      string
		want     Fetcher
		ok       bool
	}{
		{name: "explicit platform", platform: "instagram", url: "https://whatever", want: ig, ok: true},
		{name: "platform case insensitive", platform: "TikTok", url: "", want: tt, ok: true},
		{name: "url substring instagram", platform: "", url: "https://www.instagram.com/creator", want: ig, ok: true},
		{name: "url substring tiktok", platform: "", url: "https://www.tiktok.com/@creator", want: tt, ok: true},
		{name: "unknown platform", platform: "youtube", url: "https://youtube.com/@x", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.ForProfile(tc.platform, tc.url)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("wrong fetcher")
			}
		})
	}
}

func TestInstagram_Fetch(t *testing.T) {
	runner := &fakeRunner{
		configured: true,
		respond: func(payload map[string]any) []feed.Record {
			// only the usernames variant yields items
			if _, ok := payload["usernames"]; !ok {
				return nil
			}
			return []feed.Record{
				{
					"id":             "111",
					"url":            "https://instagram.com/p/abc",
					"timestamp":      float64(1750000000),
					"videoViewCount": float64(1200),
					"likesCount":     float64(90),
					"commentsCount":  float64(12),
					"videoDuration":  float64(34),
					"videoUrl":       "https://cdn/v.mp4",
				},
				{
					// no timestamp, dropped no matter how complete
					"id":         "222",
					"url":        "https://instagram.com/p/def",
					"views":      float64(99),
					"likesCount": float64(9),
				},
			}
		},
	}

	f := NewInstagram(runner, "", ProxyConfig{})
	start, end := window()
	posts, err := f.Fetch(context.Background(), "https://www.instagram.com/creator", start, end, 50)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len = %d, want 1", len(posts))
	}

	p := posts[0]
	if p.PlatformPostID != "111" || p.Views != 1200 || p.Likes != 90 || p.Comments != 12 {
		t.Fatalf("normalized wrong: %+v", p)
	}
	if !p.DurationKnown || p.DurationSec != 34 {
		t.Fatalf("duration wrong: %+v", p)
	}
	if !p.IsVideo || p.MediaType != feed.MediaVideo || p.MediaURL != "https://cdn/v.mp4" {
		t.Fatalf("media wrong: %+v", p)
	}

	// the failed directUrls variant should also have been polled before
	// moving on
	if len(runner.pollCalls) == 0 {
		t.Fatalf("expected poll fallback for the first variant")
	}
}

func TestInstagram_Unconfigured(t *testing.T) {
	f := NewInstagram(&fakeRunner{configured: false}, "", ProxyConfig{})
	start, end := window()
	posts, err := f.Fetch(context.Background(), "https://www.instagram.com/creator", start, end, 50)
	if err != nil || len(posts) != 0 {
		t.Fatalf("unconfigured should contribute nothing, got %v %v", posts, err)
	}
}

func TestInstagram_ProxyAttached(t *testing.T) {
	runner := &fakeRunner{configured: true}
	f := NewInstagram(runner, "", ProxyConfig{Enabled: true, Groups: []string{"RESIDENTIAL"}})
	start, end := window()
	_, _ = f.Fetch(context.Background(), "https://www.instagram.com/creator", start, end, 50)

	if len(runner.syncCalls) == 0 {
		t.Fatalf("no sync calls recorded")
	}
	cfg, ok := runner.syncCalls[0]["proxyConfiguration"].(map[string]any)
	if !ok || cfg["useApifyProxy"] != true {
		t.Fatalf("proxy config missing: %v", runner.syncCalls[0])
	}
}

func TestTikTok_Fetch(t *testing.T) {
	runner := &fakeRunner{
		configured: true,
		respond: func(payload map[string]any) []feed.Record {
			profiles, _ := payload["profiles"].([]string)
			if len(profiles) != 1 || profiles[0] != "creator" {
				return nil
			}
			return []feed.Record{
				{
					"id":          "777",
					"webVideoUrl": "https://www.tiktok.com/@creator/video/777",
					"createTime":  float64(1750000000),
					"stats": map[string]any{
						"playCount":    float64(50000),
						"diggCount":    float64(4000),
						"commentCount": float64(150),
					},
					"video": map[string]any{
						"duration": float64(45),
						"playAddr": "https://cdn/tt.mp4",
					},
				},
			}
		},
	}

	f := NewTikTok(runner, "", ProxyConfig{})
	start, end := window()
	posts, err := f.Fetch(context.Background(), "https://www.tiktok.com/@creator?lang=en", start, end, 50)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len = %d, want 1", len(posts))
	}

	p := posts[0]
	if p.Views != 50000 || p.Likes != 4000 || p.Comments != 150 {
		t.Fatalf("stats fallback wrong: %+v", p)
	}
	if !p.IsVideo || p.MediaType != feed.MediaVideo {
		t.Fatalf("tiktok items are always video: %+v", p)
	}
	if p.MediaURL != "https://cdn/tt.mp4" {
		t.Fatalf("media url wrong: %+v", p)
	}

	// date filters ride along in the actor payload
	sent := runner.syncCalls[0]
	if sent["oldestPostDateUnified"] != start.Format("2006-01-02") || sent["newestPostDate"] != end.Format("2006-01-02") {
		t.Fatalf("date filters missing: %v", sent)
	}
}

func TestTikTok_NoHandle(t *testing.T) {
	runner := &fakeRunner{configured: true}
	f := NewTikTok(runner, "", ProxyConfig{})
	start, end := window()
	posts, err := f.Fetch(context.Background(), "https://example.com/not-tiktok", start, end, 50)
	if err != nil || len(posts) != 0 {
		t.Fatalf("no handle should contribute nothing, got %v %v", posts, err)
	}
	if len(runner.syncCalls) != 0 {
		t.Fatalf("should not call the actor without a handle")
	}
}

func TestTikTok_DurationMillisHeuristic(t *testing.T) {
	runner := &fakeRunner{
		configured: true,
		respond: func(map[string]any) []feed.Record {
			return []feed.Record{{
				"id":         "1",
				"url":        "https://www.tiktok.com/@c/video/1",
				"createTime": float64(1750000000),
				"durationMs": float64(45000),
			}}
		},
	}
	f := NewTikTok(runner, "", ProxyConfig{})
	start, end := window()
	posts, _ := f.Fetch(context.Background(), "https://www.tiktok.com/@creator", start, end, 50)
	if len(posts) != 1 || posts[0].DurationSec != 45 || !posts[0].DurationKnown {
		t.Fatalf("duration heuristic wrong: %+v", posts)
	}
}

func TestInstagram_ResolveMedia(t *testing.T) {
	runner := &fakeRunner{
		configured: true,
		respond: func(payload map[string]any) []feed.Record {
			// only the postUrls variant knows this post
			if _, ok := payload["postUrls"]; !ok {
				return nil
			}
			return []feed.Record{{
				"video_versions": []any{map[string]any{"url": "https://cdn/resolved.mp4"}},
			}}
		},
	}
	f := NewInstagram(runner, "", ProxyConfig{})
	got := f.ResolveMedia(context.Background(), "https://instagram.com/p/abc")
	if got != "https://cdn/resolved.mp4" {
		t.Fatalf("got %q", got)
	}
}
