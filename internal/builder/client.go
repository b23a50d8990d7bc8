// Package builder is the HTTP client for the remote website builder
// service: accounts, identity, project listing and the generate, rebuild,
// deploy and download operations.
package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/model"
)

const maxErrorBody = 64 << 10

// Client talks to the builder service. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit paces outgoing calls. A zero rate disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// authed returns an HTTP client that attaches "Authorization: Bearer <token>".
func (c *Client) authed(token string) *http.Client {
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.httpClient.Transport,
		},
	}
}

type call struct {
	op          string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

// send issues the request and returns the response when the status is 2xx.
// Any other outcome is a *model.RemoteError.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	logger := ctxlog.FromContext(ctx)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &model.RemoteError{Op: cl.op, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return nil, &model.RemoteError{Op: cl.op, Err: fmt.Errorf("create request: %w", err)}
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")

	hc := c.httpClient
	if cl.token != "" {
		hc = c.authed(cl.token)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		logger.Debug("builder call failed", "op", cl.op, "duration", time.Since(start), "error", err)
		return nil, &model.RemoteError{Op: cl.op, Err: err}
	}
	logger.Debug("builder call", "op", cl.op, "status", resp.StatusCode, "duration", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &model.RemoteError{Op: cl.op, Status: resp.StatusCode, Body: errorMessage(body)}
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.RemoteError{Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// errorMessage prefers a FastAPI-style {"detail": "..."} message and falls
// back to the raw body.
func errorMessage(body []byte) string {
	var detail struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil {
		if s, ok := detail.Detail.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}

func projectPath(id, action string) string {
	return "/projects/" + url.PathEscape(id) + "/" + action
}
