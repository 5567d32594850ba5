// Package asr implements the transcript capability as a client for a
// whisper-style transcription sidecar. The sidecar owns media download and
// audio conversion; this client only hands it a link and reads text back.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"creatorhoop/internal/core/textnorm"
	perr "creatorhoop/internal/platform/errors"
	"creatorhoop/internal/platform/logger"
)

const defaultTimeout = 180 * time.Second

// MediaResolver resolves a playable media URL for a post URL when the feed
// item carried none. The Instagram fetcher provides one.
type MediaResolver interface {
	ResolveMedia(ctx context.Context, postURL string) string
}

// Options configures the Client
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client posts transcription requests to the sidecar
type Client struct {
	http     *http.Client
	opts     Options
	resolver MediaResolver
	log      logger.Logger
}

// NewClient builds a Client; resolver may be nil
func NewClient(o Options, resolver MediaResolver) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http:     &http.Client{Timeout: o.Timeout},
		opts:     o,
		resolver: resolver,
		log:      *logger.Named("asr"),
	}
}

// Configured reports whether a sidecar base URL is set
func (c *Client) Configured() bool { return strings.TrimSpace(c.opts.BaseURL) != "" }

// Transcribe produces a transcript for a post. The media hint is tried
// first, then the Instagram resolver for instagram links, then the post URL
// itself. The first attempt that yields text wins.
func (c *Client) Transcribe(ctx context.Context, postURL, mediaHint string) (string, error) {
	if !c.Configured() {
		return "", perr.Unavailablef("transcription service is not configured")
	}

	attempts := make([]string, 0, 3)
	if mediaHint != "" {
		attempts = append(attempts, mediaHint)
	}
	if mediaHint == "" && c.resolver != nil && strings.Contains(postURL, "instagram.com") {
		if resolved := c.resolver.ResolveMedia(ctx, postURL); resolved != "" {
			attempts = append(attempts, resolved)
		}
	}
	attempts = append(attempts, "")

	var lastErr error
	for _, media := range attempts {
		text, err := c.call(ctx, postURL, media)
		if err != nil {
			lastErr = err
			c.log.Debug().Str("post", postURL).Bool("with_media", media != "").Err(err).Msg("transcribe attempt failed")
			continue
		}
		if text != "" {
			return text, nil
		}
	}
	if lastErr == nil {
		lastErr = perr.Upstreamf("transcription returned no text")
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, postURL, mediaURL string) (string, error) {
	reqBody := struct {
		URL      string `json:"url"`
		MediaURL string `json:"media_url,omitempty"`
	}{URL: postURL, MediaURL: mediaURL}

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "asr encode failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.opts.BaseURL, "/")+"/transcribe", bytes.NewReader(buf))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "asr new request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "asr request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "asr read body failed")
	}
	if resp.StatusCode >= 400 {
		tail := string(body)
		if len(tail) > 200 {
			tail = tail[:200]
		}
		return "", perr.Upstreamf("asr status %d: %s", resp.StatusCode, tail)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "asr decode failed")
	}
	return textnorm.Clean(out.Text), nil
}
