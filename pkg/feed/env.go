package feed

import (
	"fmt"
	"os"
	"strings"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
)

const (
	envMode        = "PAZAR_RUNTIME_MODE"
	envFeedURL     = "PAZAR_FEED_API_URL"
	envAPIKey      = "PAZAR_API_KEY"
	envCatalogSeed = "PAZAR_MOCK_CATALOG_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client based on Pazar environment variables and
// returns the resolved mode ("http" or "mock"). With PAZAR_RUNTIME_MODE
// unset or "auto", the HTTP client is used whenever PAZAR_FEED_API_URL is
// configured and the in-memory mock otherwise.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	baseURL := strings.TrimSpace(os.Getenv(envFeedURL))

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newHTTPFromEnv(baseURL, opts)
		}
		return newMockFromEnv(opts)
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("feed: HTTP mode requires %s", envFeedURL)
		}
		return newHTTPFromEnv(baseURL, opts)
	case modeMock:
		return newMockFromEnv(opts)
	default:
		return nil, "", fmt.Errorf("feed: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPFromEnv(baseURL string, opts []Option) (*Client, string, error) {
	if key := strings.TrimSpace(os.Getenv(envAPIKey)); key != "" {
		opts = append([]Option{WithAPIKey(key)}, opts...)
	}
	client, err := New(baseURL, opts...)
	if err != nil {
		return nil, "", err
	}
	return client, modeHTTP, nil
}

func newMockFromEnv(opts []Option) (*Client, string, error) {
	listings := devseed.DefaultListings()
	if path := strings.TrimSpace(os.Getenv(envCatalogSeed)); path != "" {
		seed, err := devseed.LoadCatalogSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("feed: load mock seed: %w", err)
		}
		if len(seed.Listings) > 0 {
			listings = seed.Listings
		}
	}
	backend := newMockBackend(devseed.NewCatalog(listings))
	return NewWithBackend(backend, opts...), modeMock, nil
}
