// Package github is a small GitHub REST v3 client used to look up commits
// for manual attendance inserts
package github

import (
	"cmp"
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"

	"github.com/cenkalti/backoff/v4"
)

// API is the public REST endpoint
const API = "https://api.github.com"

// Options configures the Client. Zero values take the defaults noted
type Options struct {
	BaseURL   string        // API
	UserAgent string        // "garden"
	Timeout   time.Duration // 10s per request

	// Comma separated tokens used in turn. Empty is anonymous access with
	// a low quota
	TokensCSV string

	// MaxRetries bounds retries of transport errors, 5xx and rate limits
	// (5). RetryBase is the first backoff interval (500ms)
	MaxRetries int
	RetryBase  time.Duration

	// MaxWait caps a Retry-After or rate limit reset wait (1m)
	MaxWait time.Duration
}

func (o Options) withDefaults() Options {
	o.BaseURL = strings.TrimRight(cmp.Or(o.BaseURL, API), "/")
	o.UserAgent = cmp.Or(o.UserAgent, "garden")
	o.Timeout = cmp.Or(max(o.Timeout, 0), 10*time.Second)
	o.MaxRetries = cmp.Or(max(o.MaxRetries, 0), 5)
	o.RetryBase = cmp.Or(max(o.RetryBase, 0), 500*time.Millisecond)
	o.MaxWait = cmp.Or(max(o.MaxWait, 0), time.Minute)
	return o
}

// Client looks commits up over the REST API
type Client struct {
	hc     *http.Client
	opts   Options
	log    logger.Logger
	tokens []string
	turn   atomic.Uint32
	now    func() time.Time

	// timer drives retry waits, nil uses a real timer
	timer backoff.Timer
}

// NewClient builds a Client from o
func NewClient(o Options) *Client {
	o = o.withDefaults()
	c := &Client{
		hc:   &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("github"),
		now:  time.Now,
	}
	for t := range strings.SplitSeq(o.TokensCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			c.tokens = append(c.tokens, t)
		}
	}
	return c
}

// token picks the next configured token, "" when anonymous
func (c *Client) token() string {
	if n := uint32(len(c.tokens)); n > 0 {
		return c.tokens[(c.turn.Add(1)-1)%n]
	}
	return ""
}

// hinted lets a response override the next exponential interval
type hinted struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hinted) NextBackOff() time.Duration {
	d := h.BackOff.NextBackOff()
	if d != backoff.Stop && h.hint > d {
		d = h.hint
	}
	h.hint = 0
	return d
}

func (c *Client) policy(ctx context.Context) (*hinted, backoff.BackOff) {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.opts.RetryBase),
		backoff.WithMaxInterval(30*time.Second),
		backoff.WithMaxElapsedTime(0),
	)
	h := &hinted{BackOff: exp}
	return h, backoff.WithContext(backoff.WithMaxRetries(h, uint64(c.opts.MaxRetries)), ctx)
}

// get issues one authenticated GET and retries transient failures and rate
// limits. Waits end early when ctx is done. The caller closes the body of
// the 200 response
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	url := c.opts.BaseURL + path
	h, b := c.policy(ctx)
	attempt := 0

	op := func() (*http.Response, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed"))
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		sent := c.now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github do failed")
		}

		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", c.now().Sub(sent)).
			Int("rate_remaining", rem).
			Time("rate_reset", reset).
			Msg("github http response")

		switch resp.StatusCode {
		case http.StatusOK:
			return resp, nil
		case http.StatusTooManyRequests, http.StatusForbidden:
			_ = drainAndClose(resp.Body)
			h.hint = min(computeWait(rem, reset, retryAfter, c.now()), c.opts.MaxWait)
			return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "github rate limited")
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			_ = drainAndClose(resp.Body)
			return nil, perr.Newf(perr.ErrorCodeUnavailable, "github transient server error %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		_ = resp.Body.Close()
		return nil, backoff.Permanent(statusError(resp.StatusCode, path, string(body)))
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt).Dur("retry_in", wait).Msg("github retrying")
	}
	return backoff.RetryNotifyWithTimerAndData(op, b, notify, c.timer)
}
