// Package feed defines the canonical Post record and the raw provider
// payload helpers used to build one.
package feed

import (
	"strings"
	"time"
)

// MediaType classifies the media kind of a post
type MediaType string

// Media kinds
const (
	MediaVideo    MediaType = "video"
	MediaImage    MediaType = "image"
	MediaCarousel MediaType = "carousel"
)

// Post is the canonical unit of work. Constructed fresh per request from
// provider output, never persisted, discarded after the response is sent.
type Post struct {
	PlatformPostID string
	URL            string
	PostedAt       time.Time // always UTC
	Views          int64
	Likes          int64
	Comments       int64

	// DurationSec is meaningful only when DurationKnown is true. Unknown
	// duration means downstream duration filters must not exclude the item.
	DurationSec   int64
	DurationKnown bool

	MediaURL  string
	IsVideo   bool
	MediaType MediaType

	// Score is populated by the ranker over a request pool. It is not
	// comparable across requests.
	Score float64
}

// Classify derives IsVideo and MediaType from resolved fields.
// isVideoFlag is an explicit provider flag, carouselFlag an explicit
// multi-item flag, typeHint a provider product/media type string.
func Classify(
	mediaURL string,
	durationKnown bool,
	durationSec int64,
	isVideoFlag, carouselFlag bool,
	typeHint string,
) (isVideo bool, mt MediaType) {
	isVideo = mediaURL != "" || (durationKnown && durationSec > 0) || isVideoFlag

	if carouselFlag || strings.Contains(strings.ToLower(typeHint), "carousel") {
		return isVideo, MediaCarousel
	}
	if isVideo {
		return true, MediaVideo
	}
	return false, MediaImage
}
