package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pazar/pazar_sdk_go/pkg/checkout"
	"github.com/Pazar/pazar_sdk_go/pkg/checkout/mock"
)

func newBackend() *mock.Backend {
	return mock.New(
		mock.WithSession("sess_pro", 10001),
		mock.WithMembership("mem_founder", 50),
		mock.WithTier("gold", 999),
	)
}

func TestCreateCheckoutPricing(t *testing.T) {
	b := newBackend()

	membership := "mem_founder"
	intent, err := b.CreateCheckout(context.Background(), checkout.CheckoutRequest{
		SessionID:    "sess_pro",
		MembershipID: &membership,
	}, "key-1")
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if intent.DiscountCents != 5001 || intent.AmountCents != 5000 {
		t.Fatalf("amounts = %d/%d, want 5000/5001", intent.AmountCents, intent.DiscountCents)
	}
	if intent.PaymentIntentID != "pi_mock_1" {
		t.Fatalf("PaymentIntentID = %q, want deterministic id", intent.PaymentIntentID)
	}
}

func TestCreateCheckoutUnknownIDs(t *testing.T) {
	b := newBackend()

	_, err := b.CreateCheckout(context.Background(), checkout.CheckoutRequest{SessionID: "sess_nope"}, "key-1")
	var ce *checkout.CheckoutError
	if !errors.As(err, &ce) || ce.Message != `Unknown session "sess_nope"` {
		t.Fatalf("error = %v, want unknown session message", err)
	}

	membership := "mem_nope"
	_, err = b.CreateCheckout(context.Background(), checkout.CheckoutRequest{
		SessionID:    "sess_pro",
		MembershipID: &membership,
	}, "key-2")
	if !errors.As(err, &ce) || ce.Message != `Unknown membership "mem_nope"` {
		t.Fatalf("error = %v, want unknown membership message", err)
	}
}

func TestIdempotencyReplay(t *testing.T) {
	b := newBackend()
	req := checkout.CheckoutRequest{SessionID: "sess_pro"}

	first, err := b.CreateCheckout(context.Background(), req, "key-1")
	if err != nil {
		t.Fatalf("CreateCheckout #1: %v", err)
	}
	replay, err := b.CreateCheckout(context.Background(), req, "key-1")
	if err != nil {
		t.Fatalf("CreateCheckout #2: %v", err)
	}
	fresh, err := b.CreateCheckout(context.Background(), req, "key-2")
	if err != nil {
		t.Fatalf("CreateCheckout #3: %v", err)
	}

	if replay.PaymentIntentID != first.PaymentIntentID {
		t.Fatalf("replayed intent differs: %q vs %q", replay.PaymentIntentID, first.PaymentIntentID)
	}
	if fresh.PaymentIntentID == first.PaymentIntentID {
		t.Fatal("fresh key replayed a previous intent")
	}
	if got := b.Calls(); got != 3 {
		t.Fatalf("Calls = %d, want 3", got)
	}
}

func TestCreateSubscription(t *testing.T) {
	b := newBackend()

	intent, err := b.CreateSubscription(context.Background(), "gold", "key-1")
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if intent.Tier != "gold" || intent.SubscriptionID == "" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	replay, err := b.CreateSubscription(context.Background(), "gold", "key-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.SubscriptionID != intent.SubscriptionID {
		t.Fatalf("replayed subscription differs: %q vs %q", replay.SubscriptionID, intent.SubscriptionID)
	}

	_, err = b.CreateSubscription(context.Background(), "diamond", "key-2")
	var se *checkout.SubscriptionError
	if !errors.As(err, &se) || se.Message != `Unknown tier "diamond"` {
		t.Fatalf("error = %v, want unknown tier message", err)
	}
}

func TestFailWith(t *testing.T) {
	b := newBackend()
	boom := errors.New("socket closed")
	b.FailWith(boom)

	_, err := b.CreateCheckout(context.Background(), checkout.CheckoutRequest{SessionID: "sess_pro"}, "key-1")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want injected failure", err)
	}

	b.FailWith(nil)
	if _, err := b.CreateCheckout(context.Background(), checkout.CheckoutRequest{SessionID: "sess_pro"}, "key-1"); err != nil {
		t.Fatalf("recovery call: %v", err)
	}
}

func TestLatencyHonorsContext(t *testing.T) {
	b := mock.New(
		mock.WithSession("sess_pro", 10001),
		mock.WithLatency(5*time.Second),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.CreateCheckout(ctx, checkout.CheckoutRequest{SessionID: "sess_pro"}, "key-1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestOrchestratorIntegration(t *testing.T) {
	o := checkout.NewWithBackend(newBackend())

	intent, err := o.CreateCheckout(context.Background(), "sess_pro", nil)
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if intent.AmountCents != 10001 {
		t.Fatalf("AmountCents = %d, want 10001", intent.AmountCents)
	}

	_, err = o.CreateCheckout(context.Background(), "sess_missing", nil)
	var ce *checkout.CheckoutError
	if !errors.As(err, &ce) || ce.Message != `Unknown session "sess_missing"` {
		t.Fatalf("error = %v, want backend message passed through verbatim", err)
	}
}
