// Package mock provides an in-memory commerce backend for tests and offline
// development. It implements checkout.Backend with the same pricing and
// idempotency semantics as the production API: discounts are rounded before
// subtraction and a repeated idempotency key replays the original intent.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Pazar/pazar_sdk_go/pkg/checkout"
	"github.com/Pazar/pazar_sdk_go/pkg/pricing"
)

// Backend is an in-memory checkout.Backend. Intent identifiers are
// sequential, so assertions against them stay deterministic.
type Backend struct {
	mu          sync.Mutex
	sessions    map[string]int64
	memberships map[string]int
	tiers       map[string]int64
	intents     map[string]*checkout.Intent
	subs        map[string]*checkout.SubscriptionIntent
	latency     time.Duration
	failErr     error
	calls       int
	seq         int
}

// Option configures the mock backend.
type Option func(*Backend)

// WithSession registers a purchasable session and its price.
func WithSession(id string, priceCents int64) Option {
	return func(b *Backend) {
		b.sessions[id] = priceCents
	}
}

// WithMembership registers a membership and its discount percentage.
func WithMembership(id string, discountPercent int) Option {
	return func(b *Backend) {
		b.memberships[id] = discountPercent
	}
}

// WithTier registers a subscription tier and its price.
func WithTier(name string, priceCents int64) Option {
	return func(b *Backend) {
		b.tiers[name] = priceCents
	}
}

// WithLatency delays every call, simulating a slow network.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.latency = d
		}
	}
}

// New creates a mock backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		sessions:    make(map[string]int64),
		memberships: make(map[string]int),
		tiers:       make(map[string]int64),
		intents:     make(map[string]*checkout.Intent),
		subs:        make(map[string]*checkout.SubscriptionIntent),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FailWith makes subsequent calls return err; pass nil to recover.
func (b *Backend) FailWith(err error) {
	b.mu.Lock()
	b.failErr = err
	b.mu.Unlock()
}

// Calls reports how many calls reached the backend, replays included.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// CreateCheckout prices the session, applies the membership discount and
// returns a payment intent. A repeated idempotency key returns a copy of
// the intent created for that key.
func (b *Backend) CreateCheckout(ctx context.Context, req checkout.CheckoutRequest, idempotencyKey string) (*checkout.Intent, error) {
	if err := b.begin(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if intent, ok := b.intents[idempotencyKey]; ok {
		out := *intent
		return &out, nil
	}

	price, ok := b.sessions[req.SessionID]
	if !ok {
		return nil, checkout.NewCheckoutError(fmt.Sprintf("Unknown session %q", req.SessionID), nil)
	}
	var discountPercent int
	if req.MembershipID != nil {
		discountPercent, ok = b.memberships[*req.MembershipID]
		if !ok {
			return nil, checkout.NewCheckoutError(fmt.Sprintf("Unknown membership %q", *req.MembershipID), nil)
		}
	}

	quote := pricing.QuoteDiscount(price, discountPercent)
	b.seq++
	intent := &checkout.Intent{
		PaymentIntentID: fmt.Sprintf("pi_mock_%d", b.seq),
		ClientSecret:    fmt.Sprintf("cs_mock_%d", b.seq),
		AmountCents:     quote.TotalCents,
		DiscountCents:   quote.DiscountCents,
	}
	b.intents[idempotencyKey] = intent
	out := *intent
	return &out, nil
}

// CreateSubscription returns a subscription intent for a registered tier,
// replaying repeated idempotency keys the same way CreateCheckout does.
func (b *Backend) CreateSubscription(ctx context.Context, tier string, idempotencyKey string) (*checkout.SubscriptionIntent, error) {
	if err := b.begin(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if intent, ok := b.subs[idempotencyKey]; ok {
		out := *intent
		return &out, nil
	}

	if _, ok := b.tiers[tier]; !ok {
		return nil, checkout.NewSubscriptionError(fmt.Sprintf("Unknown tier %q", tier), nil)
	}

	b.seq++
	intent := &checkout.SubscriptionIntent{
		SubscriptionID: fmt.Sprintf("sub_mock_%d", b.seq),
		ClientSecret:   fmt.Sprintf("cs_mock_%d", b.seq),
		Tier:           tier,
	}
	b.subs[idempotencyKey] = intent
	out := *intent
	return &out, nil
}

// begin counts the call, waits out the configured latency and reports the
// configured failure, in that order.
func (b *Backend) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.calls++
	latency := b.latency
	failErr := b.failErr
	b.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return failErr
}
