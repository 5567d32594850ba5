package scrape

import (
	"context"
	"regexp"
	"strings"
	"time"

	"creatorhoop/internal/core/feed"
	"creatorhoop/internal/platform/logger"
)

// Ordered candidate key lists for the TikTok actor
var (
	ttTimestampKeys = []string{"createTime", "createTimeISO"}
	ttURLKeys       = []string{"url", "webVideoUrl", "shareUrl", "webpageUrl", "playableUrl"}
	ttViewsKeys     = []string{"playCount", "stats.playCount"}
	ttLikesKeys     = []string{"diggCount", "stats.diggCount"}
	ttCommentsKeys  = []string{"commentCount", "stats.commentCount"}
	ttDurationKeys  = []string{"video.duration", "duration", "videoDuration", "durationMs"}
	ttMediaKeys     = []string{
		"video.playAddrH264",
		"video.playAddr",
		"video.downloadAddr",
		"playableUrl",
		"videoUrl",
	}
)

var ttHandleRe = regexp.MustCompile(`(?i)tiktok\.com/@([^/?#]+)`)

// TikTok fetches a profile's recent videos through the clockworks TikTok
// actor. Everything it returns is video; duration stays unknown when the
// actor omits it so downstream filters leave the item alone.
type TikTok struct {
	runner Runner
	actor  string
	proxy  ProxyConfig
	log    logger.Logger
}

// NewTikTok builds the TikTok fetcher
func NewTikTok(runner Runner, actor string, proxy ProxyConfig) *TikTok {
	if actor == "" {
		actor = "clockworks~tiktok-scraper"
	}
	return &TikTok{
		runner: runner,
		actor:  actor,
		proxy:  proxy,
		log:    *logger.Named("scrape.tiktok"),
	}
}

// Fetch implements Fetcher
func (f *TikTok) Fetch(ctx context.Context, profileURL string, start, end time.Time, limit int) ([]feed.Post, error) {
	if !f.runner.Configured() {
		return nil, nil
	}
	limit = clampLimit(limit, 1, 100)

	cleanURL := strings.TrimRight(strings.SplitN(profileURL, "?", 2)[0], "/")
	m := ttHandleRe.FindStringSubmatch(cleanURL)
	if m == nil {
		return nil, nil
	}
	handle := m[1]

	// input schema of the clockworks actor: usernames without @, date
	// filters work with latest sorting, binary downloads disabled for cost
	payload := map[string]any{
		"profiles":                  []string{handle},
		"resultsPerPage":            limit,
		"profileSorting":            "latest",
		"excludePinnedPosts":        true,
		"oldestPostDateUnified":     start.UTC().Format("2006-01-02"),
		"newestPostDate":            end.UTC().Format("2006-01-02"),
		"shouldDownloadVideos":      false,
		"shouldDownloadCovers":      false,
		"shouldDownloadSubtitles":   false,
		"shouldDownloadAvatars":     false,
		"shouldDownloadMusicCovers": false,
	}
	if cfg := f.proxy.payload(); cfg != nil {
		payload["proxyConfiguration"] = cfg
	}

	items, err := f.runner.RunSyncItems(ctx, f.actor, payload)
	if err != nil || len(items) == 0 {
		items, err = f.runner.RunPollItems(ctx, f.actor, payload)
		if err != nil {
			f.log.Debug().Str("profile", profileURL).Err(err).Msg("tiktok fetch failed")
			return nil, err
		}
	}

	posts := make([]feed.Post, 0, len(items))
	for _, it := range items {
		if p, ok := normalizeTikTok(it); ok {
			posts = append(posts, p)
		}
	}
	f.log.Debug().Str("profile", profileURL).Int("items", len(items)).Int("posts", len(posts)).Msg("tiktok fetch")
	return posts, nil
}

// normalizeTikTok maps a raw actor item into a Post. Records without a
// usable timestamp are dropped.
func normalizeTikTok(it feed.Record) (feed.Post, bool) {
	ts, ok := it.Time(ttTimestampKeys...)
	if !ok {
		return feed.Post{}, false
	}

	url := it.Str(ttURLKeys...)
	dur, known := it.DurationSec(ttDurationKeys...)

	id := it.Str("id")
	if id == "" {
		id = url
	}

	return feed.Post{
		PlatformPostID: id,
		URL:            url,
		PostedAt:       ts,
		Views:          it.Int(ttViewsKeys...),
		Likes:          it.Int(ttLikesKeys...),
		Comments:       it.Int(ttCommentsKeys...),
		DurationSec:    dur,
		DurationKnown:  known,
		MediaURL:       it.Str(ttMediaKeys...),
		IsVideo:        true,
		MediaType:      feed.MediaVideo,
	}, true
}
