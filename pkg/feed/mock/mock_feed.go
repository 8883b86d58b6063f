// Package mock provides an in-memory feed backend for tests and offline
// development. It implements feed.Backend with the same query semantics as
// the production API: filter tokens must all match a listing's tags, search
// matches titles case-insensitively, and pages resume after the cursor id.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Pazar/pazar_sdk_go/pkg/feed"
)

// Backend is an in-memory feed.Backend. Items are served in insertion
// order, which stands in for ranking order.
type Backend struct {
	mu       sync.Mutex
	items    []feed.Item
	pageSize int
	latency  time.Duration
	failErr  error
	calls    int
}

// Option configures the mock backend.
type Option func(*Backend)

// WithItems seeds the backend catalog.
func WithItems(items ...feed.Item) Option {
	return func(b *Backend) {
		b.items = append(b.items, items...)
	}
}

// WithPageSize sets how many items one page carries.
func WithPageSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

// WithLatency delays every fetch, simulating a slow network.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.latency = d
		}
	}
}

// New creates a mock backend.
func New(opts ...Option) *Backend {
	b := &Backend{pageSize: 20}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetItems replaces the catalog.
func (b *Backend) SetItems(items ...feed.Item) {
	b.mu.Lock()
	b.items = append([]feed.Item(nil), items...)
	b.mu.Unlock()
}

// Add appends items to the catalog.
func (b *Backend) Add(items ...feed.Item) {
	b.mu.Lock()
	b.items = append(b.items, items...)
	b.mu.Unlock()
}

// FailWith makes subsequent fetches return err; pass nil to recover.
func (b *Backend) FailWith(err error) {
	b.mu.Lock()
	b.failErr = err
	b.mu.Unlock()
}

// Calls reports how many fetches reached the backend.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// FetchPage serves one page of matching items.
func (b *Backend) FetchPage(ctx context.Context, q feed.Query) (*feed.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.calls++
	latency := b.latency
	failErr := b.failErr
	size := b.pageSize
	matched := make([]feed.Item, 0, len(b.items))
	for _, item := range b.items {
		if matches(item, q) {
			matched = append(matched, item)
		}
	}
	b.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if failErr != nil {
		return nil, failErr
	}

	start := 0
	if q.Cursor != "" {
		idx := -1
		for i, item := range matched {
			if item.ID == q.Cursor {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("mock feed: unknown cursor %q", q.Cursor)
		}
		start = idx + 1
	}

	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	page := &feed.Page{Items: matched[start:end]}
	if end < len(matched) {
		page.HasMore = true
		page.NextCursor = matched[end-1].ID
	}
	return page, nil
}

func matches(item feed.Item, q feed.Query) bool {
	for _, f := range q.Filters {
		if f == "" {
			continue
		}
		found := false
		for _, tag := range item.Tags {
			if tag == f {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(q.Search)) {
		return false
	}
	return true
}
