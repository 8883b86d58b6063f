package devseed

import "testing"

func testListings() []Listing {
	return []Listing{
		{ID: "a", Title: "Vintage Lamp", PriceCents: 100, Tags: []string{"home", "lighting"}},
		{ID: "b", Title: "Desk Chair", PriceCents: 200, Tags: []string{"office"}},
		{ID: "c", Title: "Floor Lamp", PriceCents: 300, Tags: []string{"home", "lighting"}},
		{ID: "d", Title: "Wall Art", PriceCents: 400, Tags: []string{"home", "art"}},
		{ID: "e", Title: "Table Lamp", PriceCents: 500, Tags: []string{"home", "lighting"}},
	}
}

func TestCatalogPageFiltersConjunction(t *testing.T) {
	c := NewCatalog(testListings())

	items, hasMore, next, err := c.Page([]string{"home", "lighting"}, "", "", 10)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if hasMore || next != "" {
		t.Fatalf("unexpected pagination: hasMore=%v next=%q", hasMore, next)
	}
	if len(items) != 3 || items[0].ID != "a" || items[1].ID != "c" || items[2].ID != "e" {
		t.Fatalf("unexpected items: %#v", items)
	}
}

func TestCatalogPageSearchCaseInsensitive(t *testing.T) {
	c := NewCatalog(testListings())

	items, _, _, err := c.Page(nil, "LAMP", "", 10)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 lamp listings, got %#v", items)
	}

	items, _, _, err = c.Page([]string{"office"}, "chair", "", 10)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("combined filter and search mismatch: %#v", items)
	}
}

func TestCatalogPageCursorWalk(t *testing.T) {
	c := NewCatalog(testListings())

	page1, hasMore, next, err := c.Page(nil, "", "", 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 2 || page1[0].ID != "a" || page1[1].ID != "b" {
		t.Fatalf("page 1 mismatch: %#v", page1)
	}
	if !hasMore || next != "b" {
		t.Fatalf("page 1 pagination mismatch: hasMore=%v next=%q", hasMore, next)
	}

	page2, hasMore, next, err := c.Page(nil, "", next, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 2 || page2[0].ID != "c" || page2[1].ID != "d" {
		t.Fatalf("page 2 mismatch: %#v", page2)
	}
	if !hasMore || next != "d" {
		t.Fatalf("page 2 pagination mismatch: hasMore=%v next=%q", hasMore, next)
	}

	page3, hasMore, next, err := c.Page(nil, "", next, 2)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 || page3[0].ID != "e" {
		t.Fatalf("page 3 mismatch: %#v", page3)
	}
	if hasMore || next != "" {
		t.Fatalf("page 3 should be final: hasMore=%v next=%q", hasMore, next)
	}
}

func TestCatalogPageUnknownCursor(t *testing.T) {
	c := NewCatalog(testListings())
	if _, _, _, err := c.Page(nil, "", "nope", 2); err == nil {
		t.Fatal("expected error for unknown cursor")
	}
}

func TestCatalogPageEmptyResult(t *testing.T) {
	c := NewCatalog(testListings())
	items, hasMore, next, err := c.Page([]string{"nonexistent"}, "", "", 2)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(items) != 0 || hasMore || next != "" {
		t.Fatalf("expected empty final page, got items=%#v hasMore=%v next=%q", items, hasMore, next)
	}
}

func TestCatalogReplaceAndAdd(t *testing.T) {
	c := NewCatalog(nil)
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d", c.Len())
	}
	c.Add(Listing{ID: "x", Title: "Thing"})
	c.Replace(testListings())
	if c.Len() != 5 {
		t.Fatalf("expected 5 after replace, got %d", c.Len())
	}
}
