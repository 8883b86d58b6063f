package checkout

import (
	"fmt"
	"os"
	"strings"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
)

const (
	envMode        = "PAZAR_RUNTIME_MODE"
	envCommerceURL = "PAZAR_COMMERCE_API_URL"
	envAPIKey      = "PAZAR_API_KEY"
	envCatalogSeed = "PAZAR_MOCK_CATALOG_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises an Orchestrator based on Pazar environment
// variables and returns the resolved mode ("http" or "mock"). With
// PAZAR_RUNTIME_MODE unset or "auto", the HTTP backend is used whenever
// PAZAR_COMMERCE_API_URL is configured and the in-memory mock otherwise.
func NewFromEnv(opts ...Option) (orchestrator *Orchestrator, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	baseURL := strings.TrimSpace(os.Getenv(envCommerceURL))

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newHTTPFromEnv(baseURL, opts)
		}
		return newMockFromEnv(opts)
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("checkout: HTTP mode requires %s", envCommerceURL)
		}
		return newHTTPFromEnv(baseURL, opts)
	case modeMock:
		return newMockFromEnv(opts)
	default:
		return nil, "", fmt.Errorf("checkout: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPFromEnv(baseURL string, opts []Option) (*Orchestrator, string, error) {
	if key := strings.TrimSpace(os.Getenv(envAPIKey)); key != "" {
		opts = append([]Option{WithAPIKey(key)}, opts...)
	}
	orchestrator, err := New(baseURL, opts...)
	if err != nil {
		return nil, "", err
	}
	return orchestrator, modeHTTP, nil
}

func newMockFromEnv(opts []Option) (*Orchestrator, string, error) {
	sessions := devseed.DefaultSessions()
	memberships := devseed.DefaultMemberships()
	tiers := devseed.DefaultTiers()
	if path := strings.TrimSpace(os.Getenv(envCatalogSeed)); path != "" {
		seed, err := devseed.LoadCatalogSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("checkout: load mock seed: %w", err)
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
	return NewWithBackend(newMockBackend(sessions, memberships, tiers), opts...), modeMock, nil
}
