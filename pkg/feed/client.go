package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/Pazar/pazar_sdk_go/internal/httpx"
	"github.com/Pazar/pazar_sdk_go/pkg/filter"
)

const tracerName = "pazar-sdk/feed"

// DefaultStaleness is the window during which cached pages and chains are
// served without refetching.
const DefaultStaleness = 30 * time.Second

const (
	defaultMaxChains = 32
	defaultMaxPages  = 128
)

// Option configures a Client.
type Option func(*Client)

// WithLogger overrides the logger used for cache and fetch diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStaleness sets how long cached results are served without refetching.
// Zero or a negative duration disables expiry and cached entries stay fresh
// until invalidated or evicted.
func WithStaleness(d time.Duration) Option {
	return func(c *Client) {
		c.ttl = d
	}
}

// WithClock injects the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCacheLimit bounds how many chains and single pages are retained. The
// oldest entries are evicted first.
func WithCacheLimit(chains, pages int) Option {
	return func(c *Client) {
		if chains > 0 {
			c.maxChains = chains
		}
		if pages > 0 {
			c.maxPages = pages
		}
	}
}

// WithAPIKey authenticates HTTP requests with a bearer token. The option has
// no effect on custom backends.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.transportOpts = append(c.transportOpts, httpx.WithBearerToken(key))
	}
}

// WithHTTPClient overrides the underlying HTTP client used for transport.
// The option has no effect on custom backends.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.transportOpts = append(c.transportOpts, httpx.WithHTTPClient(h))
	}
}

// Client fetches and caches feed pages. Every distinct (criteria, cursor,
// mode) combination occupies its own cache slot, concurrent requests for the
// same slot share a single upstream fetch, and results within the staleness
// window are served without touching the network.
type Client struct {
	backend       Backend
	logger        logrus.FieldLogger
	tracer        trace.Tracer
	ttl           time.Duration
	now           func() time.Time
	maxChains     int
	maxPages      int
	transportOpts []httpx.Option

	flight singleflight.Group

	mu     sync.Mutex
	chains map[CacheKey]*Chain
	pages  map[CacheKey]*pageEntry
}

type pageEntry struct {
	page      *Page
	fetchedAt time.Time
}

func newClient(opts ...Option) *Client {
	c := &Client{
		logger:    logrus.StandardLogger(),
		tracer:    otel.Tracer(tracerName),
		ttl:       DefaultStaleness,
		now:       time.Now,
		maxChains: defaultMaxChains,
		maxPages:  defaultMaxPages,
		chains:    make(map[CacheKey]*Chain),
		pages:     make(map[CacheKey]*pageEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New constructs a Client speaking to the feed API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := newClient(opts...)
	httpClient, err := httpx.NewClient(baseURL, c.transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("feed: init HTTP client: %w", err)
	}
	c.backend = &httpBackend{client: httpClient}
	return c, nil
}

// NewWithBackend constructs a Client over a custom Backend (e.g. a mock).
func NewWithBackend(b Backend, opts ...Option) *Client {
	c := newClient(opts...)
	c.backend = b
	return c
}

// GetPage fetches a single page for the criteria and cursor, serving a
// cached copy when one is still fresh. An empty cursor addresses the first
// page. Concurrent calls for the same page share one upstream request.
func (c *Client) GetPage(ctx context.Context, criteria filter.Criteria, cursor string) (*Page, error) {
	ctx, span := c.tracer.Start(ctx, "feed.GetPage")
	defer span.End()
	span.SetAttributes(
		attribute.String("feed.fingerprint", criteria.Fingerprint()),
		attribute.String("feed.cursor", cursor),
	)

	key := NewCacheKey(criteria, cursor, ModeSingle)
	if page, ok := c.cachedPage(key); ok {
		span.SetAttributes(attribute.Bool("feed.cache_hit", true))
		c.logger.WithFields(logrus.Fields{"key": key, "items": len(page.Items)}).Debug("feed page served from cache")
		return page, nil
	}

	page, err := c.fetchShared(ctx, string(key), criteria, cursor, func(p *Page) {
		c.storePage(key, p)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.items", len(page.Items)))
	return page, nil
}

// Resolve returns the pagination chain for the criteria, fetching the first
// page when no fresh chain is cached. Repeated calls with equal criteria
// return the same chain while it stays fresh, regardless of filter toggle
// order.
func (c *Client) Resolve(ctx context.Context, criteria filter.Criteria) (*Chain, error) {
	ctx, span := c.tracer.Start(ctx, "feed.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("feed.fingerprint", criteria.Fingerprint()))

	key := NewCacheKey(criteria, "", ModeInfinite)
	if chain, ok := c.cachedChain(key); ok {
		span.SetAttributes(attribute.Bool("feed.cache_hit", true))
		return chain, nil
	}

	_, err := c.fetchShared(ctx, string(key), criteria, "", func(p *Page) {
		c.storeChain(key, criteria, p)
	})
	if err != nil {
		return nil, err
	}
	chain, ok := c.cachedChain(key)
	if !ok {
		// Evicted between the fetch and this lookup.
		return nil, fmt.Errorf("%w: chain evicted during resolve", ErrFetchFailed)
	}
	span.SetAttributes(attribute.Int("feed.pages", chain.Len()))
	return chain, nil
}

// GetNextPage advances the chain by one page. It returns ErrExhausted, and
// performs no request, once the chain's final page has been reached, and
// ErrInvalidState when the chain is empty or inconsistent. Concurrent calls
// on the same chain share one upstream request and append the page once.
func (c *Client) GetNextPage(ctx context.Context, chain *Chain) (*Page, error) {
	ctx, span := c.tracer.Start(ctx, "feed.GetNextPage")
	defer span.End()

	if chain == nil {
		return nil, fmt.Errorf("%w: nil chain", ErrInvalidState)
	}
	span.SetAttributes(attribute.String("feed.fingerprint", chain.criteria.Fingerprint()))

	tail := chain.last()
	if tail == nil {
		return nil, fmt.Errorf("%w: chain has no pages", ErrInvalidState)
	}
	if !tail.HasMore {
		return nil, ErrExhausted
	}
	cursor := tail.NextCursor
	if cursor == "" {
		return nil, fmt.Errorf("%w: page reports more results but carries no cursor", ErrInvalidState)
	}
	span.SetAttributes(attribute.String("feed.cursor", cursor))

	page, err := c.fetchShared(ctx, string(chain.key)+"|"+cursor, chain.criteria, cursor, func(p *Page) {
		chain.appendAfter(cursor, p, c.now())
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.items", len(page.Items)))
	return page, nil
}

// CachedChain returns the cached chain for the criteria without fetching.
func (c *Client) CachedChain(criteria filter.Criteria) (*Chain, bool) {
	return c.cachedChain(NewCacheKey(criteria, "", ModeInfinite))
}

// Invalidate drops every cached page and chain for the criteria, forcing
// the next access to refetch. Other criteria keep their entries.
func (c *Client) Invalidate(criteria filter.Criteria) {
	fp := criteria.Fingerprint()
	chainKey := NewCacheKey(criteria, "", ModeInfinite)
	pagePrefix := string(ModeSingle) + ":" + fp + ":"

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chains, chainKey)
	for key := range c.pages {
		if strings.HasPrefix(string(key), pagePrefix) {
			delete(c.pages, key)
		}
	}
}

// fetchShared funnels concurrent fetches for the same flight key into a
// single backend call and broadcasts the result. The fetch itself is
// detached from any one caller's context: a caller that stops waiting does
// not abort the request for the others, and the result still lands in the
// cache via commit.
func (c *Client) fetchShared(ctx context.Context, flightKey string, criteria filter.Criteria, cursor string, commit func(*Page)) (*Page, error) {
	ch := c.flight.DoChan(flightKey, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		q := Query{Filters: criteria.Tokens(), Search: criteria.Search(), Cursor: cursor}

		start := c.now()
		page, err := c.backend.FetchPage(fetchCtx, q)
		if err != nil {
			err = classifyError(err)
			c.logger.WithFields(logrus.Fields{
				"key":    flightKey,
				"cursor": cursor,
			}).WithError(err).Warn("feed fetch failed")
			return nil, err
		}
		c.logger.WithFields(logrus.Fields{
			"key":      flightKey,
			"cursor":   cursor,
			"items":    len(page.Items),
			"has_more": page.HasMore,
			"took":     c.now().Sub(start).String(),
		}).Debug("feed page fetched")
		if commit != nil {
			commit(page)
		}
		return page, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Page), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classifyError maps backend failures onto the package error taxonomy.
// Malformed payloads pass through; everything else counts as a fetch
// failure with the cause preserved.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrFetchFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFetchFailed, err)
}

func (c *Client) cachedPage(key CacheKey) (*Page, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.pages[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && now.Sub(entry.fetchedAt) > c.ttl {
		delete(c.pages, key)
		return nil, false
	}
	return entry.page, true
}

func (c *Client) storePage(key CacheKey, page *Page) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = &pageEntry{page: page, fetchedAt: now}
	if len(c.pages) > c.maxPages {
		c.evictOldestPageLocked()
	}
}

func (c *Client) cachedChain(key CacheKey) (*Chain, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	chain, ok := c.chains[key]
	if !ok {
		return nil, false
	}
	if !chain.freshAt(now, c.ttl) {
		delete(c.chains, key)
		return nil, false
	}
	return chain, true
}

func (c *Client) storeChain(key CacheKey, criteria filter.Criteria, first *Page) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chains[key] = newChain(key, criteria, first, now)
	if len(c.chains) > c.maxChains {
		c.evictOldestChainLocked()
	}
}

func (c *Client) evictOldestPageLocked() {
	var oldestKey CacheKey
	var oldest time.Time
	first := true
	for key, entry := range c.pages {
		if first || entry.fetchedAt.Before(oldest) {
			oldestKey, oldest, first = key, entry.fetchedAt, false
		}
	}
	if !first {
		delete(c.pages, oldestKey)
	}
}

func (c *Client) evictOldestChainLocked() {
	var oldestKey CacheKey
	var oldest time.Time
	first := true
	for key, chain := range c.chains {
		chain.mu.Lock()
		at := chain.fetchedAt
		chain.mu.Unlock()
		if first || at.Before(oldest) {
			oldestKey, oldest, first = key, at, false
		}
	}
	if !first {
		delete(c.chains, oldestKey)
	}
}

type httpBackend struct {
	client *httpx.Client
}

type feedRequest struct {
	Filters []string `json:"filters"`
	Search  string   `json:"search"`
	Cursor  string   `json:"cursor,omitempty"`
}

// FetchPage posts the query to /feed and decodes the page payload.
func (b *httpBackend) FetchPage(ctx context.Context, q Query) (*Page, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("feed: http backend not configured")
	}
	filters := q.Filters
	if filters == nil {
		filters = []string{}
	}
	body, contentType, err := httpx.WithJSONBody(feedRequest{
		Filters: filters,
		Search:  q.Search,
		Cursor:  q.Cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("feed: encode request: %w", err)
	}

	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   "feed",
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodePage(data)
}

// decodePage validates the feed contract: items and has_more must be
// present, and has_more must agree with next_cursor.
func decodePage(data []byte) (*Page, error) {
	var wire struct {
		Items      *[]Item `json:"items"`
		HasMore    *bool   `json:"has_more"`
		NextCursor string  `json:"next_cursor"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wire.Items == nil {
		return nil, fmt.Errorf("%w: missing items", ErrMalformedResponse)
	}
	if wire.HasMore == nil {
		return nil, fmt.Errorf("%w: missing has_more", ErrMalformedResponse)
	}
	if *wire.HasMore && wire.NextCursor == "" {
		return nil, fmt.Errorf("%w: has_more without next_cursor", ErrMalformedResponse)
	}
	if !*wire.HasMore && wire.NextCursor != "" {
		return nil, fmt.Errorf("%w: next_cursor on final page", ErrMalformedResponse)
	}
	return &Page{
		Items:      *wire.Items,
		HasMore:    *wire.HasMore,
		NextCursor: wire.NextCursor,
	}, nil
}
