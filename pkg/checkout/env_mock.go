package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
	"github.com/Pazar/pazar_sdk_go/pkg/pricing"
)

// mockBackend is the in-process commerce backend used when NewFromEnv
// resolves to mock mode. It prices checkouts from the seeded catalog and
// replays responses for repeated idempotency keys.
type mockBackend struct {
	mu          sync.Mutex
	sessions    map[string]devseed.Session
	memberships map[string]devseed.Membership
	tiers       map[string]devseed.Tier
	intents     map[string]*Intent
	subs        map[string]*SubscriptionIntent
}

func newMockBackend(sessions []devseed.Session, memberships []devseed.Membership, tiers []devseed.Tier) *mockBackend {
	b := &mockBackend{
		sessions:    make(map[string]devseed.Session, len(sessions)),
		memberships: make(map[string]devseed.Membership, len(memberships)),
		tiers:       make(map[string]devseed.Tier, len(tiers)),
		intents:     make(map[string]*Intent),
		subs:        make(map[string]*SubscriptionIntent),
	}
	for _, s := range sessions {
		b.sessions[s.ID] = s
	}
	for _, m := range memberships {
		b.memberships[m.ID] = m
	}
	for _, t := range tiers {
		b.tiers[t.Name] = t
	}
	return b
}

func (b *mockBackend) CreateCheckout(ctx context.Context, req CheckoutRequest, idempotencyKey string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if intent, ok := b.intents[idempotencyKey]; ok {
		return cloneIntent(intent), nil
	}

	session, ok := b.sessions[req.SessionID]
	if !ok {
		return nil, &CheckoutError{Message: fmt.Sprintf("Unknown session %q", req.SessionID)}
	}
	var discountPercent int
	if req.MembershipID != nil {
		membership, ok := b.memberships[*req.MembershipID]
		if !ok {
			return nil, &CheckoutError{Message: fmt.Sprintf("Unknown membership %q", *req.MembershipID)}
		}
		discountPercent = membership.DiscountPercent
	}

	quote := pricing.QuoteDiscount(session.PriceCents, discountPercent)
	intent := &Intent{
		PaymentIntentID: "pi_mock_" + uuid.NewString(),
		ClientSecret:    "cs_mock_" + uuid.NewString(),
		AmountCents:     quote.TotalCents,
		DiscountCents:   quote.DiscountCents,
	}
	b.intents[idempotencyKey] = intent
	return cloneIntent(intent), nil
}

func (b *mockBackend) CreateSubscription(ctx context.Context, tier string, idempotencyKey string) (*SubscriptionIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if intent, ok := b.subs[idempotencyKey]; ok {
		out := *intent
		return &out, nil
	}

	t, ok := b.tiers[tier]
	if !ok {
		return nil, &SubscriptionError{Message: fmt.Sprintf("Unknown tier %q", tier)}
	}
	intent := &SubscriptionIntent{
		SubscriptionID: "sub_mock_" + uuid.NewString(),
		ClientSecret:   "cs_mock_" + uuid.NewString(),
		Tier:           t.Name,
	}
	b.subs[idempotencyKey] = intent
	out := *intent
	return &out, nil
}

func cloneIntent(in *Intent) *Intent {
	out := *in
	return &out
}
