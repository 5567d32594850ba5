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

const openaiBaseDefault = "https://api.openai.com/v1"

// OpenAIOptions configures the OpenAI Chat Completions client
type OpenAIOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Temp      float64
	Timeout   time.Duration
}

type openaiClient struct {
	http *http.Client
	opts OpenAIOptions
	log  logger.Logger
}

// NewOpenAI builds the OpenAI provider
func NewOpenAI(o OpenAIOptions) Provider {
	if o.BaseURL == "" {
		o.BaseURL = openaiBaseDefault
	}
	if o.Model == "" {
		o.Model = "gpt-4o-mini"
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1400
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return &openaiClient{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("guideon.openai"),
	}
}

func (c *openaiClient) Name() string     { return "openai" }
func (c *openaiClient) Configured() bool { return strings.TrimSpace(c.opts.APIKey) != "" }

func (c *openaiClient) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.Configured() {
		return "", perr.Unavailablef("openai api key is not configured")
	}

	payload := map[string]any{
		"model":       c.opts.Model,
		"temperature": c.opts.Temp,
		"max_tokens":  c.opts.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "openai encode failed")
	}

	c.log.Debug().Str("model", c.opts.Model).Int("system_len", len(system)).Int("user_len", len(user)).Msg("openai chat call")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.opts.BaseURL, "/")+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "openai new request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "openai request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "openai read body failed")
	}
	if resp.StatusCode >= 400 {
		tail := string(body)
		if len(tail) > 300 {
			tail = tail[:300]
		}
		return "", perr.Upstreamf("openai status %d: %s", resp.StatusCode, tail)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "openai decode failed")
	}
	if len(out.Choices) == 0 {
		return "", perr.Upstreamf("openai returned no choices")
	}

	text := contentText(out.Choices[0].Message.Content)
	if text == "" {
		return "", perr.Upstreamf("openai returned no text content")
	}
	return text, nil
}

// contentText accepts the plain-string content shape and the parts-array
// shape some gateways emit.
func contentText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		return strings.TrimSpace(strings.Join(texts, "\n"))
	}
	return ""
}
