package scrape

import (
	"context"
	"regexp"
	"time"

	"creatorhoop/internal/core/feed"
	"creatorhoop/internal/platform/logger"
)

// Ordered candidate key lists for the Instagram actor family. Order is the
// resolution contract, first present and truthy wins.
var (
	igTimestampKeys = []string{"timestamp", "takenAtTimestamp", "createdAt"}
	igURLKeys       = []string{"url", "shortCodeUrl", "shortCode"}
	igViewsKeys     = []string{"videoViewCount", "views"}
	igLikesKeys     = []string{"likesCount", "likes"}
	igCommentsKeys  = []string{"commentsCount", "comments"}
	igDurationKeys  = []string{"videoDuration", "duration"}
	igIDKeys        = []string{"id", "shortCode"}
	igMediaKeys     = []string{
		"videoUrl",
		"video_url",
		"videoUrlHd",
		"media.videoUrl",
		"video_versions.0.url",
		"dashInfo.videoUrl",
		"clipsMetadata.audio.audio_src",
	}
	igVideoFlagKeys    = []string{"isVideo", "is_video", "video"}
	igCarouselFlagKeys = []string{"isCarousel", "carousel_media", "sidecarChildren", "children"}
	igTypeHintKeys     = []string{"productType", "mediaType"}
)

var igHandleRe = regexp.MustCompile(`(?i)instagram\.com/([^/?#]+)`)

// payloadVariant is one actor input schema attempt; variants are tried in
// order until one yields items
type payloadVariant struct {
	tag     string
	payload map[string]any
}

// Instagram fetches a profile's recent posts through an Apify Instagram
// actor, trying payload schema variants until one yields items.
type Instagram struct {
	runner Runner
	actor  string
	proxy  ProxyConfig
	log    logger.Logger
}

// NewInstagram builds the Instagram fetcher
func NewInstagram(runner Runner, actor string, proxy ProxyConfig) *Instagram {
	if actor == "" {
		actor = "apify~instagram-scraper"
	}
	return &Instagram{
		runner: runner,
		actor:  actor,
		proxy:  proxy,
		log:    *logger.Named("scrape.instagram"),
	}
}

// Fetch implements Fetcher
func (f *Instagram) Fetch(ctx context.Context, profileURL string, start, end time.Time, limit int) ([]feed.Post, error) {
	if !f.runner.Configured() {
		return nil, nil
	}
	limit = clampLimit(limit, 10, 100)

	var handle string
	if m := igHandleRe.FindStringSubmatch(profileURL); m != nil {
		handle = m[1]
	}

	variants := []payloadVariant{{
		tag: "directUrls",
		payload: map[string]any{
			"directUrls":             []string{profileURL},
			"resultsLimit":           limit,
			"includeComments":        false,
			"includeVideoThumbnails": false,
		},
	}}
	if handle != "" {
		variants = append(variants,
			payloadVariant{tag: "usernames", payload: map[string]any{
				"usernames":       []string{handle},
				"resultsLimit":    limit,
				"includeComments": false,
			}},
			payloadVariant{tag: "profiles", payload: map[string]any{
				"profiles":     []string{handle},
				"resultsLimit": limit,
			}},
		)
	}

	items := f.runVariants(ctx, variants)
	posts := make([]feed.Post, 0, len(items))
	for _, it := range items {
		if p, ok := normalizeInstagram(it); ok {
			posts = append(posts, p)
		}
	}
	f.log.Debug().Str("profile", profileURL).Int("items", len(items)).Int("posts", len(posts)).Msg("instagram fetch")
	return posts, nil
}

// ResolveMedia tries to resolve a playable media URL for a single post URL,
// used as the transcription fallback when a feed item carried no media link
func (f *Instagram) ResolveMedia(ctx context.Context, postURL string) string {
	if !f.runner.Configured() {
		return ""
	}
	variants := []payloadVariant{
		{tag: "directUrls", payload: map[string]any{
			"directUrls":             []string{postURL},
			"resultsLimit":           1,
			"includeComments":        false,
			"includeVideoThumbnails": false,
		}},
		{tag: "postUrls", payload: map[string]any{
			"postUrls":        []string{postURL},
			"resultsLimit":    1,
			"includeComments": false,
		}},
		{tag: "resultsType", payload: map[string]any{
			"directUrls":   []string{postURL},
			"resultsType":  "posts",
			"resultsLimit": 1,
		}},
	}

	if items := f.runVariants(ctx, variants); len(items) > 0 {
		if media := items[0].Str(igMediaKeys...); media != "" {
			return media
		}
	}
	f.log.Debug().Str("post", postURL).Msg("instagram media resolve found nothing")
	return ""
}

// runVariants tries each payload variant sync-first then polled, returning
// the first non-empty item list
func (f *Instagram) runVariants(ctx context.Context, variants []payloadVariant) []feed.Record {
	for _, v := range variants {
		f.attachProxy(v.payload)

		items, err := f.runner.RunSyncItems(ctx, f.actor, v.payload)
		if err == nil && len(items) > 0 {
			return items
		}
		items, err = f.runner.RunPollItems(ctx, f.actor, v.payload)
		if err == nil && len(items) > 0 {
			return items
		}
		if err != nil {
			f.log.Debug().Str("variant", v.tag).Err(err).Msg("instagram variant failed")
		}
	}
	return nil
}

func (f *Instagram) attachProxy(payload map[string]any) {
	if cfg := f.proxy.payload(); cfg != nil {
		payload["proxyConfiguration"] = cfg
	}
}

// normalizeInstagram maps a raw actor item into a Post. Records without a
// usable timestamp are dropped.
func normalizeInstagram(it feed.Record) (feed.Post, bool) {
	ts, ok := it.Time(igTimestampKeys...)
	if !ok {
		return feed.Post{}, false
	}

	url := it.Str(igURLKeys...)
	mediaURL := it.Str(igMediaKeys...)
	dur, known := it.DurationSec(igDurationKeys...)

	isVideo, mediaType := feed.Classify(
		mediaURL,
		known, dur,
		it.Bool(igVideoFlagKeys...),
		it.Bool(igCarouselFlagKeys...),
		it.Str(igTypeHintKeys...),
	)

	id := it.Str(igIDKeys...)
	if id == "" {
		id = url
	}

	return feed.Post{
		PlatformPostID: id,
		URL:            url,
		PostedAt:       ts,
		Views:          it.Int(igViewsKeys...),
		Likes:          it.Int(igLikesKeys...),
		Comments:       it.Int(igCommentsKeys...),
		DurationSec:    dur,
		DurationKnown:  known,
		MediaURL:       mediaURL,
		IsVideo:        isVideo,
		MediaType:      mediaType,
	}, true
}
