package cms

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/hospital-site/internal/observability/metrics"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

const defaultTimeout = 10 * time.Second

var cmsTracer = otel.Tracer("ktrh.internal.cms")

// Client reads and writes content through the CMS REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	metrics    *metrics.CMSMetrics
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithCache enables read-through caching of GET responses.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if cache != nil && ttl > 0 {
			c.cache = cache
			c.cacheTTL = ttl
		}
	}
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *metrics.CMSMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a client for the API rooted at baseURL (".../api").
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      NoopCache{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches one page of a collection. Failures never propagate: they are
// logged and produce an empty page so callers can render an empty state.
func (c *Client) List(ctx context.Context, q ListQuery) Page {
	page, size := q.page(), q.pageSize()

	ctx, span := cmsTracer.Start(ctx, "cms.list")
	defer span.End()
	span.SetAttributes(
		attribute.String("cms.resource", q.Resource),
		attribute.Int("cms.page", page),
	)

	body, err := c.getJSON(ctx, q.Resource, "/"+q.Resource, q.Values())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("cms list failed", "resource", q.Resource, "error", err)
		return emptyPage(page, size)
	}

	items, pagination, err := decodeEnvelope(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("cms list returned unexpected shape", "resource", q.Resource, "error", err)
		return emptyPage(page, size)
	}
	if pagination == nil {
		pagination = &Pagination{Page: page, PageSize: size, PageCount: 1, Total: len(items)}
	}
	span.SetAttributes(attribute.Int("cms.items", len(items)))
	return Page{Items: items, Pagination: *pagination}
}

// Get fetches a single record with every relation populated.
func (c *Client) Get(ctx context.Context, resource, id string) (RawItem, error) {
	if strings.TrimSpace(id) == "" {
		return RawItem{}, ErrNotFound
	}

	ctx, span := cmsTracer.Start(ctx, "cms.get")
	defer span.End()
	span.SetAttributes(attribute.String("cms.resource", resource), attribute.String("cms.id", id))

	body, err := c.getJSON(ctx, resource, "/"+resource+"/"+url.PathEscape(id), url.Values{"populate": {"*"}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return RawItem{}, err
	}
	item, err := decodeSingle(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return RawItem{}, err
	}
	return item, nil
}

// Single fetches a single type such as home-page or about-page.
func (c *Client) Single(ctx context.Context, resource string) (map[string]any, error) {
	ctx, span := cmsTracer.Start(ctx, "cms.single")
	defer span.End()
	span.SetAttributes(attribute.String("cms.resource", resource))

	body, err := c.getJSON(ctx, resource, "/"+resource, url.Values{"populate": {"*"}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	item, err := decodeSingle(body)
	if err != nil {
		return nil, err
	}
	return item.Attributes, nil
}

// Submit creates a record in a collection, wrapping payload in {data: ...}.
func (c *Client) Submit(ctx context.Context, resource string, payload any) (RawItem, error) {
	ctx, span := cmsTracer.Start(ctx, "cms.submit")
	defer span.End()
	span.SetAttributes(attribute.String("cms.resource", resource))

	raw, err := json.Marshal(map[string]any{"data": payload})
	if err != nil {
		return RawItem{}, fmt.Errorf("cms: marshal submission: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+resource, bytes.NewReader(raw))
	if err != nil {
		return RawItem{}, fmt.Errorf("cms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	respBody, err := c.do(req)
	c.observe(resource, err, start)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("cms submit failed", "resource", resource, "error", err)
		return RawItem{}, err
	}

	var decoded any
	if len(respBody) == 0 {
		return RawItem{}, nil
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return RawItem{}, fmt.Errorf("cms: decode response: %w", err)
	}
	item, _ := decodeSingle(decoded)
	return item, nil
}

func decodeSingle(body any) (RawItem, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return RawItem{}, ErrUnexpectedShape
	}
	if data, present := obj["data"]; present {
		if data == nil {
			return RawItem{}, ErrNotFound
		}
		item, ok := decodeItem(data)
		if !ok {
			return RawItem{}, ErrUnexpectedShape
		}
		return item, nil
	}
	item, _ := decodeItem(obj)
	return item, nil
}

func (c *Client) getJSON(ctx context.Context, resource, path string, params url.Values) (any, error) {
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	body, hit := c.cached(ctx, endpoint)
	if !hit {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("cms: build request: %w", err)
		}
		body, err = c.do(req)
		c.observe(resource, err, start)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, endpoint, body, c.cacheTTL); err != nil {
			c.logger.Debug("cms cache write failed", "error", err)
		}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return decoded, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if _, noop := c.cache.(NoopCache); noop {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.ObserveCache("error")
		c.logger.Debug("cms cache read failed", "error", err)
		return nil, false
	case !ok:
		c.metrics.ObserveCache("miss")
		return nil, false
	default:
		c.metrics.ObserveCache("hit")
		return body, true
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("cms API non-2xx response", "status", resp.StatusCode, "path", req.URL.Path, "body", msg)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) observe(resource string, err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ObserveFetch(resource, outcome, time.Since(start).Seconds())
}
