package devseed

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultPageSize is the page size mock runtimes use when none is set.
const DefaultPageSize = 20

// Catalog answers feed queries over an in-memory listing set. Listing order
// is rank order: pages are cut from the catalog in the order listings were
// seeded.
type Catalog struct {
	mu       sync.RWMutex
	listings []Listing
}

// NewCatalog builds a catalog from the supplied listings.
func NewCatalog(listings []Listing) *Catalog {
	c := &Catalog{}
	c.Replace(listings)
	return c
}

// Replace swaps the catalog contents.
func (c *Catalog) Replace(listings []Listing) {
	copied := make([]Listing, len(listings))
	copy(copied, listings)
	c.mu.Lock()
	c.listings = copied
	c.mu.Unlock()
}

// Add appends a listing to the catalog.
func (c *Catalog) Add(l Listing) {
	c.mu.Lock()
	c.listings = append(c.listings, l)
	c.mu.Unlock()
}

// Len returns the number of listings in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listings)
}

// Page returns one page of listings matching the query. Every filter token
// must appear among a listing's tags, and the search term matches listing
// titles case-insensitively. An empty cursor starts at the top; otherwise
// the page resumes after the listing whose id equals the cursor.
func (c *Catalog) Page(filters []string, search, cursor string, size int) (items []Listing, hasMore bool, nextCursor string, err error) {
	if size <= 0 {
		size = DefaultPageSize
	}

	c.mu.RLock()
	matched := make([]Listing, 0, len(c.listings))
	for _, l := range c.listings {
		if matches(l, filters, search) {
			matched = append(matched, l)
		}
	}
	c.mu.RUnlock()

	start := 0
	if cursor != "" {
		idx := -1
		for i, l := range matched {
			if l.ID == cursor {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false, "", fmt.Errorf("devseed: unknown cursor %q", cursor)
		}
		start = idx + 1
	}

	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	items = make([]Listing, end-start)
	copy(items, matched[start:end])

	if end < len(matched) {
		hasMore = true
		nextCursor = matched[end-1].ID
	}
	return items, hasMore, nextCursor, nil
}

func matches(l Listing, filters []string, search string) bool {
	for _, f := range filters {
		if f == "" {
			continue
		}
		found := false
		for _, tag := range l.Tags {
			if tag == f {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(search)) {
		return false
	}
	return true
}

// DefaultListings returns the built-in demo catalog used when no seed file
// is configured.
func DefaultListings() []Listing {
	return []Listing{
		{ID: "lst_lamp", Title: "Vintage Brass Lamp", PriceCents: 4500, Tags: []string{"home", "lighting", "vintage"}},
		{ID: "lst_chair", Title: "Mid-Century Desk Chair", PriceCents: 12000, Tags: []string{"office", "furniture", "vintage"}},
		{ID: "lst_desk", Title: "Standing Desk", PriceCents: 39900, Tags: []string{"office", "furniture"}},
		{ID: "lst_rug", Title: "Handwoven Wool Rug", PriceCents: 8750, Tags: []string{"home", "textile"}},
		{ID: "lst_poster", Title: "Botanical Print Poster", PriceCents: 1500, Tags: []string{"home", "art"}},
		{ID: "lst_monitor", Title: "27 Inch Monitor", PriceCents: 24999, Tags: []string{"office", "electronics"}},
		{ID: "lst_kettle", Title: "Stovetop Kettle", PriceCents: 3200, Tags: []string{"home", "kitchen"}},
		{ID: "lst_shelf", Title: "Oak Wall Shelf", PriceCents: 5600, Tags: []string{"home", "furniture"}},
	}
}

// DefaultSessions returns the built-in purchasable sessions for mock
// checkout runtimes.
func DefaultSessions() []Session {
	return []Session{
		{ID: "sess_starter", PriceCents: 5000},
		{ID: "sess_pro", PriceCents: 10001},
		{ID: "sess_studio", PriceCents: 25000},
	}
}

// DefaultMemberships returns the built-in memberships for mock checkout
// runtimes.
func DefaultMemberships() []Membership {
	return []Membership{
		{ID: "mem_basic", DiscountPercent: 10},
		{ID: "mem_plus", DiscountPercent: 20},
		{ID: "mem_founder", DiscountPercent: 50},
	}
}

// DefaultTiers returns the built-in subscription tiers for mock checkout
// runtimes.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "basic", PriceCents: 499},
		{Name: "gold", PriceCents: 999},
		{Name: "platinum", PriceCents: 1999},
	}
}
