package pazar_sdk

import (
	"fmt"
	"os"
	"strings"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
	"github.com/Pazar/pazar_sdk_go/pkg/checkout"
	checkoutmock "github.com/Pazar/pazar_sdk_go/pkg/checkout/mock"
	"github.com/Pazar/pazar_sdk_go/pkg/feed"
	feedmock "github.com/Pazar/pazar_sdk_go/pkg/feed/mock"
)

const (
	envMode        = "PAZAR_RUNTIME_MODE"
	envFeedURL     = "PAZAR_FEED_API_URL"
	envCommerceURL = "PAZAR_COMMERCE_API_URL"
	envAPIKey      = "PAZAR_API_KEY"
	envCatalogSeed = "PAZAR_MOCK_CATALOG_SEED"
	modeAuto       = "auto"
	modeHTTP       = "http"
	modeMock       = "mock"
)

// NewFromEnv initialises feed and checkout clients based on Pazar
// environment variables. It returns the resolved mode ("http" or "mock").
// Auto mode uses HTTP only when both service URLs are configured, so the
// pair never ends up split across modes.
func NewFromEnv() (*feed.Client, *checkout.Orchestrator, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	feedURL := strings.TrimSpace(os.Getenv(envFeedURL))
	commerceURL := strings.TrimSpace(os.Getenv(envCommerceURL))

	switch mode {
	case "", modeAuto:
		if feedURL != "" && commerceURL != "" {
			return newHTTPClients(feedURL, commerceURL)
		}
		return newMockClients()
	case modeHTTP:
		if feedURL == "" || commerceURL == "" {
			return nil, nil, "", fmt.Errorf("pazar_sdk: HTTP mode requires %s and %s", envFeedURL, envCommerceURL)
		}
		return newHTTPClients(feedURL, commerceURL)
	case modeMock:
		return newMockClients()
	default:
		return nil, nil, "", fmt.Errorf("pazar_sdk: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPClients(feedURL, commerceURL string) (*feed.Client, *checkout.Orchestrator, string, error) {
	var feedOpts []feed.Option
	var checkoutOpts []checkout.Option
	if key := strings.TrimSpace(os.Getenv(envAPIKey)); key != "" {
		feedOpts = append(feedOpts, feed.WithAPIKey(key))
		checkoutOpts = append(checkoutOpts, checkout.WithAPIKey(key))
	}

	f, err := feed.New(feedURL, feedOpts...)
	if err != nil {
		return nil, nil, "", fmt.Errorf("pazar_sdk: init feed HTTP client: %w", err)
	}
	o, err := checkout.New(commerceURL, checkoutOpts...)
	if err != nil {
		return nil, nil, "", fmt.Errorf("pazar_sdk: init checkout HTTP client: %w", err)
	}
	return f, o, modeHTTP, nil
}

func newMockClients() (*feed.Client, *checkout.Orchestrator, string, error) {
	listings := devseed.DefaultListings()
	sessions := devseed.DefaultSessions()
	memberships := devseed.DefaultMemberships()
	tiers := devseed.DefaultTiers()

	if path := strings.TrimSpace(os.Getenv(envCatalogSeed)); path != "" {
		seed, err := devseed.LoadCatalogSeed(path)
		if err != nil {
			return nil, nil, "", fmt.Errorf("pazar_sdk: load catalog seed: %w", err)
		}
		if len(seed.Listings) > 0 {
			listings = seed.Listings
		}
		if len(seed.Sessions) > 0 {
			sessions = seed.Sessions
		}
		if len(seed.Memberships) > 0 {
			memberships = seed.Memberships
		}
		if len(seed.Tiers) > 0 {
			tiers = seed.Tiers
		}
	}

	feedBackend := feedmock.New(
		feedmock.WithItems(itemsFromListings(listings)...),
		feedmock.WithPageSize(devseed.DefaultPageSize),
	)

	checkoutOpts := make([]checkoutmock.Option, 0, len(sessions)+len(memberships)+len(tiers))
	for _, s := range sessions {
		checkoutOpts = append(checkoutOpts, checkoutmock.WithSession(s.ID, s.PriceCents))
	}
	for _, m := range memberships {
		checkoutOpts = append(checkoutOpts, checkoutmock.WithMembership(m.ID, m.DiscountPercent))
	}
	for _, t := range tiers {
		checkoutOpts = append(checkoutOpts, checkoutmock.WithTier(t.Name, t.PriceCents))
	}
	checkoutBackend := checkoutmock.New(checkoutOpts...)

	return feed.NewWithBackend(feedBackend), checkout.NewWithBackend(checkoutBackend), modeMock, nil
}

func itemsFromListings(listings []devseed.Listing) []feed.Item {
	items := make([]feed.Item, 0, len(listings))
	for _, l := range listings {
		items = append(items, feed.Item{
			ID:         l.ID,
			Title:      l.Title,
			PriceCents: l.PriceCents,
			Tags:       append([]string(nil), l.Tags...),
		})
	}
	return items
}
