// Package devseed loads development seed catalogs consumed by the mock
// backends and the sandbox server.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Listing seeds the mock feed catalog. Seed order defines ranking order.
type Listing struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	PriceCents int64    `json:"price_cents"`
	Tags       []string `json:"tags"`
}

// Session seeds the mock checkout backend with purchasable sessions.
type Session struct {
	ID         string `json:"id"`
	PriceCents int64  `json:"price_cents"`
}

// Membership seeds the mock checkout backend with discount-bearing memberships.
type Membership struct {
	ID              string `json:"id"`
	DiscountPercent int    `json:"discount_percent"`
}

// Tier seeds the mock subscription catalog.
type Tier struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// CatalogSeed is the on-disk JSON format for seeding mock runtimes.
type CatalogSeed struct {
	Listings    []Listing    `json:"listings"`
	Sessions    []Session    `json:"sessions"`
	Memberships []Membership `json:"memberships"`
	Tiers       []Tier       `json:"tiers"`
}

// LoadCatalogSeed reads and validates the seed file at path.
func LoadCatalogSeed(path string) (*CatalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed file: %w", err)
	}
	var seed CatalogSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("devseed: parse seed file %s: %w", path, err)
	}
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("devseed: invalid seed file %s: %w", path, err)
	}
	return &seed, nil
}

func (s *CatalogSeed) validate() error {
	listingIDs := make(map[string]struct{}, len(s.Listings))
	for i, l := range s.Listings {
		if strings.TrimSpace(l.ID) == "" {
			return fmt.Errorf("listing %d: id is required", i)
		}
		if _, dup := listingIDs[l.ID]; dup {
			return fmt.Errorf("listing %d: duplicate id %q", i, l.ID)
		}
		listingIDs[l.ID] = struct{}{}
		if l.PriceCents < 0 {
			return fmt.Errorf("listing %q: negative price", l.ID)
		}
	}

	sessionIDs := make(map[string]struct{}, len(s.Sessions))
	for i, sess := range s.Sessions {
		if strings.TrimSpace(sess.ID) == "" {
			return fmt.Errorf("session %d: id is required", i)
		}
		if _, dup := sessionIDs[sess.ID]; dup {
			return fmt.Errorf("session %d: duplicate id %q", i, sess.ID)
		}
		sessionIDs[sess.ID] = struct{}{}
		if sess.PriceCents < 0 {
			return fmt.Errorf("session %q: negative price", sess.ID)
		}
	}

	membershipIDs := make(map[string]struct{}, len(s.Memberships))
	for i, m := range s.Memberships {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("membership %d: id is required", i)
		}
		if _, dup := membershipIDs[m.ID]; dup {
			return fmt.Errorf("membership %d: duplicate id %q", i, m.ID)
		}
		membershipIDs[m.ID] = struct{}{}
		if m.DiscountPercent < 0 || m.DiscountPercent > 100 {
			return fmt.Errorf("membership %q: discount percent %d out of range", m.ID, m.DiscountPercent)
		}
	}

	tierNames := make(map[string]struct{}, len(s.Tiers))
	for i, tier := range s.Tiers {
		if strings.TrimSpace(tier.Name) == "" {
			return fmt.Errorf("tier %d: name is required", i)
		}
		if _, dup := tierNames[tier.Name]; dup {
			return fmt.Errorf("tier %d: duplicate name %q", i, tier.Name)
		}
		tierNames[tier.Name] = struct{}{}
		if tier.PriceCents < 0 {
			return fmt.Errorf("tier %q: negative price", tier.Name)
		}
	}
	return nil
}
