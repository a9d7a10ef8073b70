// Package apiclient talks to the marketplace REST backend on behalf of one
// browser session. Reads go through the session's request cache, writes
// invalidate the resources they change, and an expired access token is
// refreshed once before the request is retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// maxBodySize caps how much of a backend response is read.
const maxBodySize = 8 << 20

// TokenSource holds the session's backend tokens.
type TokenSource interface {
	Tokens() model.Tokens
	SetTokens(ctx context.Context, tokens model.Tokens) error
	ClearTokens(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	RefreshPath string
	HTTPClient  *http.Client
	Cache       *cache.Cache
	Tokens      TokenSource
	Breaker     *gobreaker.CircuitBreaker

	// OnSessionExpired runs after a failed refresh has cleared the tokens.
	OnSessionExpired func()

	Logger zerolog.Logger
}

// Client is the per-session backend client.
type Client struct {
	base        *url.URL
	refreshPath string
	http        *http.Client
	cache       *cache.Cache
	tokens      TokenSource
	breaker     *gobreaker.CircuitBreaker
	onExpired   func()
	refreshes   singleflight.Group
	logger      zerolog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if opts.Tokens == nil {
		return nil, errors.New("token source is required")
	}

	c := &Client{
		base:        base,
		refreshPath: strings.TrimPrefix(opts.RefreshPath, "/"),
		http:        opts.HTTPClient,
		cache:       opts.Cache,
		tokens:      opts.Tokens,
		breaker:     opts.Breaker,
		onExpired:   opts.OnSessionExpired,
		logger:      opts.Logger.With().Str("component", "apiclient").Logger(),
	}
	if c.refreshPath == "" {
		c.refreshPath = "auth/token/refresh/"
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.cache == nil {
		c.cache = cache.New()
	}
	return c, nil
}

// Cache returns the session cache the client reads through.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Authenticated reports whether the session holds an access token.
func (c *Client) Authenticated() bool {
	return c.tokens.Tokens().Access != ""
}

// call is one logical backend request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
}

// do performs the call and decodes a 2xx body into out (which may be nil).
// A 401 with a stored refresh token triggers a single shared refresh and one
// retry of the original request.
func (c *Client) do(ctx context.Context, req call, out any) error {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", req.method, req.path, err)
		}
	}

	access := c.tokens.Tokens().Access
	body, err := c.send(ctx, req, payload, access)
	if err == nil {
		return decode(body, out, req)
	}

	if StatusOf(err) != http.StatusUnauthorized || req.path == c.refreshPath || access == "" {
		return err
	}

	c.logger.Debug().Str("path", req.path).Msg("access token rejected, refreshing")
	if rerr := c.refresh(ctx, access); rerr != nil {
		return c.expire(ctx, rerr)
	}

	body, err = c.send(ctx, req, payload, c.tokens.Tokens().Access)
	if err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			return c.expire(ctx, err)
		}
		return err
	}
	return decode(body, out, req)
}

// send performs a single HTTP exchange through the circuit breaker and
// returns the body of a 2xx response or an *APIError.
func (c *Client) send(ctx context.Context, req call, payload []byte, access string) ([]byte, error) {
	exchange := func() (interface{}, error) {
		return c.exchange(ctx, req, payload, access)
	}

	var (
		res interface{}
		err error
	)
	if c.breaker != nil {
		res, err = c.breaker.Execute(exchange)
	} else {
		res, err = exchange()
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBackendUnavailable
	}
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (c *Client) exchange(ctx context.Context, req call, payload []byte, access string) ([]byte, error) {
	target := c.base.ResolveReference(&url.URL{Path: req.path})
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.method).Str("path", req.path).Msg("backend request failed")
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	c.logger.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers share one refresh. A caller whose rejected token has already been
// replaced returns without refreshing again.
func (c *Client) refresh(ctx context.Context, rejected string) error {
	_, err, _ := c.refreshes.Do("refresh", func() (interface{}, error) {
		current := c.tokens.Tokens()
		if current.Access != "" && current.Access != rejected {
			return nil, nil
		}
		if current.Refresh == "" {
			return nil, errors.New("no refresh token")
		}

		payload, err := json.Marshal(map[string]string{"refresh": current.Refresh})
		if err != nil {
			return nil, err
		}

		body, err := c.send(context.WithoutCancel(ctx), call{method: http.MethodPost, path: c.refreshPath}, payload, "")
		if err != nil {
			return nil, err
		}

		var fresh model.Tokens
		if err := json.Unmarshal(body, &fresh); err != nil {
			return nil, fmt.Errorf("failed to decode refresh response: %w", err)
		}
		if fresh.Access == "" {
			return nil, errors.New("refresh response carried no access token")
		}
		if fresh.Refresh == "" {
			fresh.Refresh = current.Refresh
		}

		if err := c.tokens.SetTokens(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to store refreshed tokens: %w", err)
		}
		c.logger.Info().Msg("access token refreshed")
		return nil, nil
	})
	return err
}

// expire clears the session's tokens and cache and reports ErrSessionExpired.
func (c *Client) expire(ctx context.Context, cause error) error {
	c.logger.Warn().Err(cause).Msg("session expired, clearing tokens")

	if err := c.tokens.ClearTokens(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear tokens")
	}
	c.cache.Clear()
	if c.onExpired != nil {
		c.onExpired()
	}
	return ErrSessionExpired
}

func decode(body []byte, out any, req call) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// get is a cached GET decoded into T.
func get[T any](ctx context.Context, c *Client, key string, tags []cache.Resource, force bool, path string, query url.Values) (T, error) {
	return cache.Fetch(ctx, c.cache, key, tags, force, func(ctx context.Context) (T, error) {
		var out T
		err := c.do(ctx, call{method: http.MethodGet, path: path, query: query}, &out)
		return out, err
	})
}

// mutate is an uncached request decoded into T.
func mutate[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	err := c.do(ctx, call{method: method, path: path, body: body}, &out)
	return out, err
}

// exec is an uncached request whose response body is ignored.
func (c *Client) exec(ctx context.Context, method, path string, body any) error {
	return c.do(ctx, call{method: method, path: path, body: body}, nil)
}

// list decodes either a bare JSON array or a paginated {"results": [...]}.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		*l = page.Results
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func idString(id int64) string {
	return model.ProductKey(id)
}
