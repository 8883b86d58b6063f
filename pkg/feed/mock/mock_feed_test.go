package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pazar/pazar_sdk_go/pkg/feed"
	"github.com/Pazar/pazar_sdk_go/pkg/feed/mock"
	"github.com/Pazar/pazar_sdk_go/pkg/filter"
)

func demoItems() []feed.Item {
	return []feed.Item{
		{ID: "a", Title: "Vintage Lamp", PriceCents: 100, Tags: []string{"home", "lighting"}},
		{ID: "b", Title: "Desk Chair", PriceCents: 200, Tags: []string{"office"}},
		{ID: "c", Title: "Floor Lamp", PriceCents: 300, Tags: []string{"home", "lighting"}},
		{ID: "d", Title: "Ceiling Lamp", PriceCents: 400, Tags: []string{"home", "lighting"}},
	}
}

func TestFetchPageFiltersAndSearch(t *testing.T) {
	b := mock.New(mock.WithItems(demoItems()...))
	ctx := context.Background()

	page, err := b.FetchPage(ctx, feed.Query{Filters: []string{"home", "lighting"}, Search: "LAMP"})
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 lamps, got %#v", page.Items)
	}
	if page.HasMore {
		t.Fatal("single page expected")
	}
}

func TestFetchPagePagination(t *testing.T) {
	b := mock.New(mock.WithItems(demoItems()...), mock.WithPageSize(2))
	ctx := context.Background()

	page1, err := b.FetchPage(ctx, feed.Query{})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Items) != 2 || !page1.HasMore || page1.NextCursor != "b" {
		t.Fatalf("page 1 mismatch: %#v", page1)
	}

	page2, err := b.FetchPage(ctx, feed.Query{Cursor: page1.NextCursor})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2.Items) != 2 || page2.HasMore || page2.NextCursor != "" {
		t.Fatalf("page 2 mismatch: %#v", page2)
	}
	if page2.Items[0].ID != "c" || page2.Items[1].ID != "d" {
		t.Fatalf("page 2 items mismatch: %#v", page2.Items)
	}
}

func TestFetchPageUnknownCursor(t *testing.T) {
	b := mock.New(mock.WithItems(demoItems()...))
	if _, err := b.FetchPage(context.Background(), feed.Query{Cursor: "zzz"}); err == nil {
		t.Fatal("expected error for unknown cursor")
	}
}

func TestFailWith(t *testing.T) {
	b := mock.New(mock.WithItems(demoItems()...))
	boom := errors.New("boom")
	b.FailWith(boom)

	if _, err := b.FetchPage(context.Background(), feed.Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	b.FailWith(nil)
	if _, err := b.FetchPage(context.Background(), feed.Query{}); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if b.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", b.Calls())
	}
}

func TestLatencyHonorsContext(t *testing.T) {
	b := mock.New(mock.WithItems(demoItems()...), mock.WithLatency(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := b.FetchPage(ctx, feed.Query{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestBackendDrivesClientChain(t *testing.T) {
	b := mock.New(mock.WithItems(demoItems()...), mock.WithPageSize(3))
	client := feed.NewWithBackend(b)
	ctx := context.Background()

	chain, err := client.Resolve(ctx, filter.NewCriteria([]string{"home"}, ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for !chain.Exhausted() {
		if _, err := client.GetNextPage(ctx, chain); err != nil {
			t.Fatalf("GetNextPage: %v", err)
		}
	}
	items := chain.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 home items, got %#v", items)
	}
}
