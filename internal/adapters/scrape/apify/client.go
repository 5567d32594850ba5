// Package apify provides a generic Apify actor-run client used by the
// scrape fetchers. Failures degrade to empty item lists at the call sites,
// a profile that cannot be scraped contributes nothing.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creatorhoop/internal/core/feed"
	perr "creatorhoop/internal/platform/errors"
	"creatorhoop/internal/platform/logger"
)

const (
	baseURLDefault    = "https://api.apify.com"
	defaultTimeout    = 120 * time.Second
	defaultRunTimeout = 120 * time.Second
	defaultPollEvery  = 2 * time.Second
)

// terminal actor-run states
const (
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"
	statusAborted   = "ABORTED"
	statusTimedOut  = "TIMED-OUT"
)

// Options configures the Client
type Options struct {
	BaseURL string
	Token   string

	// Timeout bounds each HTTP call; RunTimeout bounds a whole polled run
	Timeout    time.Duration
	RunTimeout time.Duration
	PollEvery  time.Duration
}

// Client talks to the Apify v2 API
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = defaultRunTimeout
	}
	if o.PollEvery <= 0 {
		o.PollEvery = defaultPollEvery
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("apify"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Configured reports whether a token is present
func (c *Client) Configured() bool { return strings.TrimSpace(c.opts.Token) != "" }

// RunSyncItems executes actor via run-sync-get-dataset-items and returns
// the dataset items directly. Some actors answer NDJSON instead of a JSON
// array, both are accepted.
func (c *Client) RunSyncItems(ctx context.Context, actor string, payload any) ([]feed.Record, error) {
	u := c.opts.BaseURL + "/v2/acts/" + url.PathEscape(actor) + "/run-sync-get-dataset-items?token=" + url.QueryEscape(c.opts.Token)

	body, status, err := c.post(ctx, u, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		tail := body
		if len(tail) > 300 {
			tail = tail[:300]
		}
		c.log.Debug().Str("actor", actor).Int("status", status).Str("body", string(tail)).Msg("apify sync run rejected")
		return nil, perr.Upstreamf("apify sync run status %d", status)
	}

	items := decodeItems(body)
	c.log.Debug().Str("actor", actor).Int("items", len(items)).Msg("apify sync items")
	return items, nil
}

// RunPollItems starts an actor run and polls its status until a terminal
// state or the run timeout, then fetches the default dataset items.
func (c *Client) RunPollItems(ctx context.Context, actor string, payload any) ([]feed.Record, error) {
	runURL := c.opts.BaseURL + "/v2/acts/" + url.PathEscape(actor) + "/runs?token=" + url.QueryEscape(c.opts.Token)

	body, status, err := c.post(ctx, runURL, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, perr.Upstreamf("apify run start status %d", status)
	}

	var started struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &started); err != nil || started.Data.ID == "" {
		c.log.Debug().Str("actor", actor).Msg("apify run start returned no run id")
		return nil, perr.Upstreamf("apify run start returned no run id")
	}
	c.log.Debug().Str("actor", actor).Str("run_id", started.Data.ID).Msg("apify run started")

	deadline := c.now().Add(c.opts.RunTimeout)
	for c.now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		st, err := c.runStatus(ctx, started.Data.ID)
		if err != nil {
			return nil, err
		}
		c.log.Debug().Str("actor", actor).Str("status", st.Status).Msg("apify run status")

		switch st.Status {
		case statusSucceeded:
			if st.DefaultDatasetID == "" {
				return nil, nil
			}
			return c.datasetItems(ctx, st.DefaultDatasetID)
		case statusFailed, statusAborted, statusTimedOut:
			return nil, perr.Upstreamf("apify run ended %s", st.Status)
		}
		c.sleep(c.opts.PollEvery)
	}
	return nil, perr.Upstreamf("apify run timed out after %s", c.opts.RunTimeout)
}

type runState struct {
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

func (c *Client) runStatus(ctx context.Context, runID string) (runState, error) {
	u := c.opts.BaseURL + "/v2/actor-runs/" + url.PathEscape(runID) + "?token=" + url.QueryEscape(c.opts.Token)
	var out struct {
		Data runState `json:"data"`
	}
	body, status, err := c.get(ctx, u)
	if err != nil {
		return runState{}, err
	}
	if status >= 400 {
		return runState{}, perr.Upstreamf("apify run status %d", status)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return runState{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "apify run status decode failed")
	}
	return out.Data, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]feed.Record, error) {
	u := c.opts.BaseURL + "/v2/datasets/" + url.PathEscape(datasetID) + "/items?clean=true&token=" + url.QueryEscape(c.opts.Token)
	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, perr.Upstreamf("apify dataset items status %d", status)
	}
	items := decodeItems(body)
	c.log.Debug().Str("dataset_id", datasetID).Int("items", len(items)).Msg("apify dataset items")
	return items, nil
}

func (c *Client) post(ctx context.Context, u string, payload any) ([]byte, int, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "apify payload encode failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "apify new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "apify new request failed")
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "apify request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, perr.Wrapf(err, perr.ErrorCodeUnavailable, "apify read body failed")
	}
	return body, resp.StatusCode, nil
}

// decodeItems accepts a JSON array or NDJSON lines, skipping bad lines
func decodeItems(body []byte) []feed.Record {
	var arr []feed.Record
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr
	}
	var out []feed.Record
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec feed.Record
		if err := json.Unmarshal([]byte(line), &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out
}
