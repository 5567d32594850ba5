package guideon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	perr "creatorhoop/internal/platform/errors"
	"creatorhoop/internal/platform/logger"
)

const (
	anthropicBaseDefault = "https://api.anthropic.com"
	anthropicVersion     = "2023-06-01"
)

// AnthropicOptions configures the Anthropic Messages client
type AnthropicOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Temp      float64
	Timeout   time.Duration
}

type anthropicClient struct {
	http *http.Client
	opts AnthropicOptions
	log  logger.Logger
}

// NewAnthropic builds the Anthropic provider
func NewAnthropic(o AnthropicOptions) Provider {
	if o.BaseURL == "" {
		o.BaseURL = anthropicBaseDefault
	}
	if o.Model == "" {
		o.Model = "claude-3-haiku-20240307"
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1400
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return &anthropicClient{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("guideon.anthropic"),
	}
}

func (c *anthropicClient) Name() string     { return "anthropic" }
func (c *anthropicClient) Configured() bool { return strings.TrimSpace(c.opts.APIKey) != "" }

func (c *anthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.Configured() {
		return "", perr.Unavailablef("anthropic api key is not configured")
	}

	payload := map[string]any{
		"model":       c.opts.Model,
		"max_tokens":  c.opts.MaxTokens,
		"temperature": c.opts.Temp,
		"system":      system,
		"messages": []map[string]any{
			{"role": "user", "content": user},
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "anthropic encode failed")
	}

	c.log.Debug().Str("model", c.opts.Model).Int("system_len", len(system)).Int("user_len", len(user)).Msg("anthropic messages call")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.opts.BaseURL, "/")+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "anthropic new request failed")
	}
	req.Header.Set("x-api-key", c.opts.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "anthropic request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "anthropic read body failed")
	}
	if resp.StatusCode >= 400 {
		tail := string(body)
		if len(tail) > 300 {
			tail = tail[:300]
		}
		return "", perr.Upstreamf("anthropic status %d: %s", resp.StatusCode, tail)
	}

	var out struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "anthropic decode failed")
	}

	texts := make([]string, 0, len(out.Content))
	for _, part := range out.Content {
		if part.Type == "text" && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(texts, "\n"))
	if text == "" {
		return "", perr.Upstreamf("anthropic returned no text content")
	}
	return text, nil
}
