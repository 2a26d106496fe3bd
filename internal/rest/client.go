// Package rest is a small authenticated client for the Payload CMS REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

const (
	TokenTypeBearer = "Bearer"
	TokenTypeJWT    = "JWT"

	DefaultAPIPrefix = "api"
	defaultTimeout   = 30 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// Client issues authenticated requests against {base}/{prefix}/{collection}.
// Requests are never retried. The token is the only mutable state: Login and
// SetToken write it, every request reads it.
type Client struct {
	base      *url.URL
	apiPrefix string
	tokenType string
	http      *http.Client
	depth     *int
	logger    interfaces.Logger

	mu    sync.RWMutex
	token string
}

var _ interfaces.PayloadClient = (*Client)(nil)

// New returns a client for baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base, err := url.Parse(trimmed)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURLInvalid, baseURL)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	c := &Client{
		base:      base,
		apiPrefix: DefaultAPIPrefix,
		tokenType: TokenTypeBearer,
		http:      &http.Client{Timeout: defaultTimeout},
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// WithToken sets the initial token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTokenType sets the Authorization scheme, "Bearer" or "JWT".
func WithTokenType(tokenType string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(tokenType); trimmed != "" {
			c.tokenType = trimmed
		}
	}
}

// WithAPIPrefix overrides the "api" path prefix. An empty prefix is allowed.
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) { c.apiPrefix = strings.Trim(strings.TrimSpace(prefix), "/") }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied first and left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout < 0 {
			return
		}
		copied := *c.http
		copied.Timeout = timeout
		c.http = &copied
	}
}

// WithDepth sets the depth parameter sent when a query does not set one.
func WithDepth(depth int) Option {
	return func(c *Client) {
		d := depth
		c.depth = &d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) { c.logger = logging.Ensure(logger) }
}

// Token returns the current token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// TokenType returns the Authorization scheme.
func (c *Client) TokenType() string { return c.tokenType }

// Find returns the docs matching q.
func (c *Client) Find(ctx context.Context, collection string, q interfaces.Query) ([]interfaces.Document, error) {
	page, err := c.FindPage(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	return page.Docs, nil
}

// FindPage returns one page of docs matching q together with paging data.
func (c *Client) FindPage(ctx context.Context, collection string, q interfaces.Query) (*interfaces.Page, error) {
	var page interfaces.Page
	if err := c.do(ctx, http.MethodGet, c.endpoint(collection), encodeQuery(q, c.depth), nil, "", &page); err != nil {
		return nil, err
	}
	if page.Docs == nil {
		page.Docs = []interfaces.Document{}
	}
	return &page, nil
}

// Create posts payload as a new document.
func (c *Client) Create(ctx context.Context, collection string, payload map[string]any) (interfaces.Document, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload rest: encode %s payload: %w", collection, err)
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, c.endpoint(collection), nil, bytes.NewReader(body), jsonContentType, &out); err != nil {
		return nil, err
	}
	return unwrapDoc(out), nil
}

// Update patches the document id with payload. Callers send the complete
// field set they want stored.
func (c *Client) Update(ctx context.Context, collection string, id any, payload map[string]any) (interfaces.Document, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload rest: encode %s payload: %w", collection, err)
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPatch, c.endpoint(collection, interfaces.IDString(id)), nil, bytes.NewReader(body), jsonContentType, &out); err != nil {
		return nil, err
	}
	return unwrapDoc(out), nil
}

// Delete removes the document id.
func (c *Client) Delete(ctx context.Context, collection string, id any) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(collection, interfaces.IDString(id)), nil, nil, "", nil)
}

const jsonContentType = "application/json"

func (c *Client) endpoint(segments ...string) *url.URL {
	parts := make([]string, 0, len(segments)+1)
	if c.apiPrefix != "" {
		parts = append(parts, c.apiPrefix)
	}
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return c.base.JoinPath(parts...)
}

func (c *Client) do(ctx context.Context, method string, endpoint *url.URL, query url.Values, body io.Reader, contentType string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	target := *endpoint
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("payload rest: build %s request: %w", method, err)
	}
	req.Header.Set("Accept", jsonContentType)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", c.tokenType+" "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payload rest: %s %s: %w", method, endpoint.String(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payload rest: read %s %s response: %w", method, endpoint.String(), err)
	}

	c.logger.Debug("rest.request",
		"method", method,
		"path", endpoint.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, URL: endpoint.String(), StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("payload rest: decode %s %s response: %w", method, endpoint.String(), err)
	}
	return nil
}

// unwrapDoc returns the "doc" object Payload wraps write responses in, or
// the response itself when there is none.
func unwrapDoc(resp map[string]any) interfaces.Document {
	if resp == nil {
		return interfaces.Document{}
	}
	if doc, ok := resp["doc"].(map[string]any); ok {
		return doc
	}
	return resp
}
