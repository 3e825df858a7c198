package raindrop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "rdtagger/pkg/errors"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/ratelimit"
	"rdtagger/pkg/retry"
)

// Client is a Raindrop.io API client. Every call passes through the rate
// governor and is retried on 429 responses.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	token      string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API root
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLimiter replaces the rate governor
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry replaces the retry policy
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the client's logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client authenticated with a bearer token
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "rdtagger/1.0",
		},
		baseURL: BaseURL,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	if c.limiter == nil {
		c.limiter = ratelimit.NewGovernor(ratelimit.DefaultConfig(), ratelimit.WithLogger(c.logger))
	}
	if c.retry == nil {
		c.retry = retry.ThrottleConfig(3, 10*time.Second, c.logger)
	}

	return c
}

// ListRootCollections returns top-level collections in service order
func (c *Client) ListRootCollections(ctx context.Context) ([]Collection, error) {
	resp, err := call[collectionsResponse](ctx, c, http.MethodGet, CollectionsEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListNestedCollections returns every nested collection with its parent id
func (c *Client) ListNestedCollections(ctx context.Context) ([]Collection, error) {
	resp, err := call[collectionsResponse](ctx, c, http.MethodGet, ChildCollectionsEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListItems returns one page of a collection. An empty page means there
// are no more.
func (c *Client) ListItems(ctx context.Context, collectionID int64, page, perPage int, nested bool) ([]Item, error) {
	resp, err := call[itemsResponse](ctx, c, http.MethodGet, ItemsPath(collectionID, page, perPage, nested), nil)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// UpdateItemTags replaces the item's tag set
func (c *Client) UpdateItemTags(ctx context.Context, itemID int64, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	_, err := call[itemResponse](ctx, c, http.MethodPut, ItemPath(itemID), updateTagsRequest{Tags: tags})
	return err
}

// call runs one logical API operation under the retry policy. Each attempt
// decodes into a fresh T.
func call[T any](ctx context.Context, c *Client, method, path string, payload interface{}) (T, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			var zero T
			return zero, errs.Wrap(errs.ErrorTypeParsing, err, "failed to encode request")
		}
	}

	return retry.DoWithResult(ctx, func(ctx context.Context) (T, error) {
		var out T
		err := c.attempt(ctx, method, path, body, &out)
		return out, err
	}, c.retry)
}

// attempt issues a single request: governor wait, send, absorb quota
// headers, then status and body checks.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte, target interface{}) error {
	if err := c.limiter.WaitIfNeeded(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.limiter.UpdateFromResponse(resp.Header)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if err := c.checkResponseStatus(resp, data); err != nil {
		return err
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		bodyPreview := string(data)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL.String(),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if checker, ok := target.(interface{ apiFailure() (string, bool) }); ok {
		if msg, failed := checker.apiFailure(); failed {
			if msg == "" {
				msg = "request rejected"
			}
			return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, msg)
		}
	}

	return nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "network error")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus turns any non-2xx response into a typed error
// carrying the status and body
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := errs.FromResponse(resp.StatusCode, strings.TrimSpace(string(body)))
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	switch apiErr.Type {
	case errs.ErrorTypeRateLimit:
		c.logger.WarnWithFields("rate limit exceeded", fields)
	case errs.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication error", fields)
	case errs.ErrorTypeNotFound:
		c.logger.WarnWithFields("resource not found", fields)
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
	}

	return apiErr
}
