package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Pazar/pazar_sdk_go/pkg/filter"
)

// Item is a single feed listing. Beyond the fields every listing carries,
// Raw retains the original wire object so callers can reach fields this SDK
// does not model yet.
type Item struct {
	ID         string
	Title      string
	PriceCents int64
	Tags       []string
	Raw        json.RawMessage
}

type itemWire struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	PriceCents int64    `json:"price_cents"`
	Tags       []string `json:"tags,omitempty"`
}

// UnmarshalJSON decodes a wire listing. An item without an id is rejected.
func (it *Item) UnmarshalJSON(data []byte) error {
	var wire itemWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.ID == "" {
		return errors.New("item missing id")
	}
	it.ID = wire.ID
	it.Title = wire.Title
	it.PriceCents = wire.PriceCents
	it.Tags = wire.Tags
	it.Raw = append([]byte(nil), data...)
	return nil
}

// MarshalJSON re-emits the original wire object when present so round-trips
// preserve fields the SDK does not model.
func (it Item) MarshalJSON() ([]byte, error) {
	if len(it.Raw) > 0 {
		return it.Raw, nil
	}
	return json.Marshal(itemWire{
		ID:         it.ID,
		Title:      it.Title,
		PriceCents: it.PriceCents,
		Tags:       it.Tags,
	})
}

// Page is one page of feed results. HasMore and NextCursor are always
// consistent: HasMore is true exactly when NextCursor is non-empty.
//
// Pages returned by the Client may be shared between concurrent callers and
// must be treated as read-only.
type Page struct {
	Items      []Item
	HasMore    bool
	NextCursor string
}

// Query describes a single feed request.
type Query struct {
	Filters []string
	Search  string
	Cursor  string
}

// Backend abstracts the feed transport so alternative runtimes (mocks, test
// doubles) can stand in for the HTTP API.
type Backend interface {
	FetchPage(ctx context.Context, q Query) (*Page, error)
}

// Mode selects how a cache entry relates to pagination.
type Mode string

const (
	// ModeInfinite caches a growing chain of pages under a single key.
	ModeInfinite Mode = "infinite"
	// ModeSingle caches each page independently, keyed by its cursor.
	ModeSingle Mode = "single"
)

// CacheKey identifies one cache slot. Keys combine the pagination mode, the
// criteria fingerprint and the page cursor, so differing criteria or modes
// can never collide.
type CacheKey string

// NewCacheKey derives the cache key for a criteria, cursor and mode. Chains
// in ModeInfinite always use an empty cursor component.
func NewCacheKey(c filter.Criteria, cursor string, mode Mode) CacheKey {
	if mode == ModeInfinite {
		cursor = ""
	}
	return CacheKey(string(mode) + ":" + c.Fingerprint() + ":" + cursor)
}

var (
	// ErrFetchFailed wraps transport failures; the underlying cause remains
	// reachable through errors.As.
	ErrFetchFailed = errors.New("feed: fetch failed")
	// ErrMalformedResponse indicates a payload that decoded but violates the
	// feed contract (missing fields, inconsistent pagination flags).
	ErrMalformedResponse = errors.New("feed: malformed response")
	// ErrInvalidState is returned when a pagination chain cannot advance,
	// e.g. it has no pages or its last page is internally inconsistent.
	ErrInvalidState = errors.New("feed: invalid pagination state")
	// ErrExhausted signals that a chain has no further pages. It is a
	// terminal condition, not a failure; callers stop paginating when they
	// see it.
	ErrExhausted = errors.New("feed: no more pages")
)

// Chain accumulates the pages fetched so far for one criteria in
// ModeInfinite. A Chain is safe for concurrent use; concurrent calls to
// Client.GetNextPage on the same chain fetch the next page once and append
// it once.
type Chain struct {
	key      CacheKey
	criteria filter.Criteria

	mu        sync.Mutex
	pages     []*Page
	fetchedAt time.Time
}

func newChain(key CacheKey, criteria filter.Criteria, first *Page, now time.Time) *Chain {
	return &Chain{
		key:       key,
		criteria:  criteria,
		pages:     []*Page{first},
		fetchedAt: now,
	}
}

// Criteria returns the criteria the chain was resolved for.
func (ch *Chain) Criteria() filter.Criteria {
	return ch.criteria
}

// Len returns the number of pages accumulated so far.
func (ch *Chain) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.pages)
}

// Pages returns the accumulated pages in fetch order.
func (ch *Chain) Pages() []*Page {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make([]*Page, len(ch.pages))
	copy(out, ch.pages)
	return out
}

// Items flattens the accumulated pages into a single slice.
func (ch *Chain) Items() []Item {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	n := 0
	for _, p := range ch.pages {
		n += len(p.Items)
	}
	out := make([]Item, 0, n)
	for _, p := range ch.pages {
		out = append(out, p.Items...)
	}
	return out
}

// Exhausted reports whether the last page declared the feed complete.
func (ch *Chain) Exhausted() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.pages) == 0 {
		return false
	}
	return !ch.pages[len(ch.pages)-1].HasMore
}

// last returns the final page, or nil for an empty chain.
func (ch *Chain) last() *Page {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.pages) == 0 {
		return nil
	}
	return ch.pages[len(ch.pages)-1]
}

// appendAfter appends page if the chain's last cursor still equals cursor.
// When another goroutine has appended the same page first, the call is a
// no-op, keeping the chain free of duplicates.
func (ch *Chain) appendAfter(cursor string, page *Page, now time.Time) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.pages) == 0 {
		return false
	}
	tail := ch.pages[len(ch.pages)-1]
	if !tail.HasMore || tail.NextCursor != cursor {
		return false
	}
	ch.pages = append(ch.pages, page)
	ch.fetchedAt = now
	return true
}

func (ch *Chain) freshAt(now time.Time, ttl time.Duration) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ttl <= 0 {
		return true
	}
	return now.Sub(ch.fetchedAt) <= ttl
}
