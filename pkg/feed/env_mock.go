package feed

import (
	"context"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
)

// mockBackend serves feed pages from an in-memory catalog. It backs the
// mock runtime selected by NewFromEnv.
type mockBackend struct {
	catalog  *devseed.Catalog
	pageSize int
}

func newMockBackend(catalog *devseed.Catalog) *mockBackend {
	return &mockBackend{catalog: catalog, pageSize: devseed.DefaultPageSize}
}

func (b *mockBackend) FetchPage(ctx context.Context, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	listings, hasMore, next, err := b.catalog.Page(q.Filters, q.Search, q.Cursor, b.pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(listings))
	for _, l := range listings {
		items = append(items, itemFromListing(l))
	}
	return &Page{Items: items, HasMore: hasMore, NextCursor: next}, nil
}

func itemFromListing(l devseed.Listing) Item {
	return Item{
		ID:         l.ID,
		Title:      l.Title,
		PriceCents: l.PriceCents,
		Tags:       append([]string(nil), l.Tags...),
	}
}
