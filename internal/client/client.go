// Package client talks to the portfolio REST API.
//
// Every admin call carries the session's bearer token, read at request time.
// A 401 from any endpoint tears the session down before the error is returned,
// so no later call can go out with the rejected token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/session"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "folio/1.0"
	maxErrorBody     = 64 << 10
)

// Client is the portfolio API client. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   *session.Store
	logger    *slog.Logger
	limiter   *rate.Limiter
	metrics   metrics.Recorder
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMetrics records request metrics.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for the API served at baseURL (scheme and host, no /api suffix).
func New(baseURL string, sess *session.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url must be absolute: %q", baseURL)
	}
	if sess == nil {
		return nil, errors.New("client: session store is required")
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: defaultTimeout},
		session:   sess,
		logger:    slog.Default(),
		metrics:   metrics.Nop{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the session store the client authenticates with.
func (c *Client) Session() *session.Store { return c.session }

type request struct {
	op          string // human-readable operation, used in errors
	method      string
	path        string
	route       string // path template for metrics
	admin       bool
	body        io.Reader
	contentType string
}

// send performs r and returns the response for 2xx statuses. Everything else
// comes back as an *apperr.Error with the body consumed.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	// Read once: a 401 on any route tears down only the session this request ran under.
	token := c.session.Token()
	if r.admin && token == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, r.op, "not logged in")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &apperr.Error{Kind: apperr.ErrNetwork, Op: r.op, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL.String()+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.admin {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRequest(metrics.SideClient, r.method, r.route, 0, time.Since(start))
		c.logger.Warn("api request failed",
			slog.String("op", r.op),
			slog.String("error", err.Error()))
		return nil, &apperr.Error{Kind: apperr.ErrNetwork, Op: r.op, Message: "no response from server", Err: err}
	}
	c.metrics.RecordRequest(metrics.SideClient, r.method, r.route, resp.StatusCode, time.Since(start))
	c.logger.Debug("api request",
		slog.String("op", r.op),
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		if c.session.ClearToken(token) {
			c.metrics.RecordSessionTeardown("unauthorized")
			c.logger.Info("session torn down after 401", slog.String("op", r.op))
		}
	}
	return nil, classify(r.op, resp.StatusCode, body)
}

// doJSON sends in (if non-nil) as JSON and decodes the response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, r request, in, out any) error {
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", r.op, err)
		}
		r.body = bytes.NewReader(payload)
		r.contentType = "application/json"
	}
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &apperr.Error{Kind: apperr.ErrNetwork, Op: r.op, Err: err}
		}
		return &apperr.Error{Kind: apperr.ErrServer, Op: r.op, Message: "malformed response", Err: err}
	}
	return nil
}

// classify maps a non-2xx response to the error taxonomy.
func classify(op string, status int, body []byte) error {
	msg := detailMessage(body)
	e := &apperr.Error{Op: op, Status: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = apperr.ErrUnauthenticated
		if e.Message == "" {
			e.Message = "session expired"
		}
	case status == http.StatusNotFound:
		e.Kind = apperr.ErrNotFound
		if e.Message == "" {
			e.Message = "resource not found"
		}
	case status >= 500:
		e.Kind = apperr.ErrServer
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	default:
		e.Kind = apperr.ErrValidation
		if e.Message == "" {
			e.Message = fmt.Sprintf("request rejected (%d %s)", status, http.StatusText(status))
		}
	}
	return e
}

// detailMessage extracts a message from {"detail": ...}, {"error": ...} or {"message": ...}.
// A detail list (field validation errors) is joined.
func detailMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(payload.Detail, &list) == nil {
			msgs := make([]string, 0, len(list))
			for _, m := range list {
				if m.Msg != "" {
					msgs = append(msgs, m.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
