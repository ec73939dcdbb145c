// Package api is the HTTP client for the video bookmark backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koji0214/summaryoutube/internal/retry"
)

const (
	DefaultBaseURL  = "http://localhost:8000"
	RequestIDHeader = "X-Request-ID"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      retry.Config
	Logger     *slog.Logger
	HTTPClient *http.Client
	UserAgent  string
}

type Client struct {
	base  *url.URL
	http  *http.Client
	retry retry.Config
	log   *slog.Logger
	ua    string
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "summaryoutube"
	}
	return &Client{base: base, http: hc, retry: opts.Retry, log: log, ua: ua}, nil
}

// NoRetry returns a copy of c whose reads are attempted once. Job polling uses it
// because a failed poll is terminal.
func (c *Client) NoRetry() *Client {
	cp := *c
	cp.retry.MaxRetries = 0
	return &cp
}

func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends one request. GETs are retried per c.retry; other methods are sent once.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}
	target := c.endpoint(path, q)

	attempt := func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		reqID := uuid.NewString()
		req.Header.Set(RequestIDHeader, reqID)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.ua)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		c.log.Debug("api request", "method", method, "url", target, "status", resp.StatusCode,
			"request_id", reqID, "elapsed", time.Since(start))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return newHTTPError(resp.StatusCode, data)
		}
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &decodeError{err: err}
		}
		return nil
	}

	if method != http.MethodGet {
		return attempt(ctx)
	}
	return retry.Do(ctx, c.retry, classify, func(n int, wait time.Duration, err error) {
		c.log.Warn("retrying request", "url", target, "attempt", n, "wait", wait, "err", err)
	}, attempt)
}

func classify(err error) bool {
	return retry.IsRetryable(err) && IsRetryable(err)
}
