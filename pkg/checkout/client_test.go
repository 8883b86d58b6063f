package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Pazar/pazar_sdk_go/internal/httpx"
	"github.com/Pazar/pazar_sdk_go/pkg/checkout"
)

func intentJSON() string {
	return `{"payment_intent_id":"pi_123","client_secret":"cs_456","amount_cents":5000,"discount_cents":5001}`
}

func TestCreateCheckoutWireFormat(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotKey    string
		gotAuth   string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(intentJSON()))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL,
		checkout.WithAPIKey("secret-key"),
		checkout.WithKeyFunc(func() string { return "key-abc" }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	intent, err := o.CreateCheckout(context.Background(), "sess_pro", nil)
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/create-checkout" {
		t.Fatalf("request = %s %s, want POST /create-checkout", gotMethod, gotPath)
	}
	if gotKey != "key-abc" {
		t.Fatalf("Idempotency-Key = %q, want %q", gotKey, "key-abc")
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotBody["session_id"] != "sess_pro" {
		t.Fatalf("session_id = %v, want sess_pro", gotBody["session_id"])
	}
	if v, ok := gotBody["membership_id"]; !ok || v != nil {
		t.Fatalf("membership_id = %v (present=%v), want explicit null", v, ok)
	}

	if intent.PaymentIntentID != "pi_123" || intent.ClientSecret != "cs_456" {
		t.Fatalf("unexpected intent identifiers: %+v", intent)
	}
	if intent.AmountCents != 5000 || intent.DiscountCents != 5001 {
		t.Fatalf("unexpected intent amounts: %+v", intent)
	}
}

func TestCreateCheckoutSendsMembershipID(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(intentJSON()))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	membership := "mem_plus"
	if _, err := o.CreateCheckout(context.Background(), "sess_pro", &membership); err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if gotBody["membership_id"] != "mem_plus" {
		t.Fatalf("membership_id = %v, want mem_plus", gotBody["membership_id"])
	}
}

func TestCreateCheckoutServerMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"Session has expired"}`))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.CreateCheckout(context.Background(), "sess_old", nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var ce *checkout.CheckoutError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *CheckoutError", err)
	}
	if ce.Message != "Session has expired" {
		t.Fatalf("Message = %q, want server text verbatim", ce.Message)
	}
	if got := ce.Error(); got != "checkout: Session has expired" {
		t.Fatalf("Error() = %q", got)
	}
	var he *httpx.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected wrapped 422 HTTPError, got %v", err)
	}
}

func TestCreateCheckoutPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream processor unavailable"))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.CreateCheckout(context.Background(), "sess_pro", nil)

	var ce *checkout.CheckoutError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *CheckoutError", err)
	}
	if ce.Message != "upstream processor unavailable" {
		t.Fatalf("Message = %q, want raw body", ce.Message)
	}
}

func TestIdempotencyKeyStableAcrossRetries(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		n := len(keys)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(intentJSON()))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := o.CreateCheckout(context.Background(), "sess_pro", nil); err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}

	if len(keys) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(keys))
	}
	if keys[0] == "" || keys[0] != keys[1] {
		t.Fatalf("idempotency keys across retries = %q, %q; want identical non-empty", keys[0], keys[1])
	}
}

func TestIdempotencyKeyFreshPerCall(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()
		w.Write([]byte(intentJSON()))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := o.CreateCheckout(context.Background(), "sess_pro", nil); err != nil {
			t.Fatalf("CreateCheckout #%d: %v", i+1, err)
		}
	}

	if len(keys) != 2 || keys[0] == keys[1] {
		t.Fatalf("keys across calls = %v, want two distinct", keys)
	}
}

func TestCreateCheckoutValidatesSessionID(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(intentJSON()))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.CreateCheckout(context.Background(), "   ", nil)

	var ce *checkout.CheckoutError
	if !errors.As(err, &ce) || ce.Message != "session id is required" {
		t.Fatalf("error = %v, want session id validation", err)
	}
	if calls != 0 {
		t.Fatalf("server saw %d requests, want none", calls)
	}
}

func TestCreateCheckoutRejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"client_secret":"cs_456","amount_cents":5000}`))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.CreateCheckout(context.Background(), "sess_pro", nil)

	var ce *checkout.CheckoutError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *CheckoutError", err)
	}
	if !strings.Contains(ce.Message, "payment_intent_id") {
		t.Fatalf("Message = %q, want missing field named", ce.Message)
	}
}

func TestCreateSubscriptionWireFormat(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(`{"subscription_id":"sub_789","client_secret":"cs_sub","tier":"gold"}`))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL, checkout.WithKeyFunc(func() string { return "key-sub" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	intent, err := o.CreateSubscription(context.Background(), "gold")
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	if gotPath != "/create-subscription" {
		t.Fatalf("path = %q, want /create-subscription", gotPath)
	}
	if gotKey != "key-sub" {
		t.Fatalf("Idempotency-Key = %q", gotKey)
	}
	if gotBody["tier"] != "gold" {
		t.Fatalf("tier = %v, want gold", gotBody["tier"])
	}
	if intent.SubscriptionID != "sub_789" || intent.ClientSecret != "cs_sub" || intent.Tier != "gold" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}

func TestCreateSubscriptionTierFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"subscription_id":"sub_789","client_secret":"cs_sub"}`))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	intent, err := o.CreateSubscription(context.Background(), "platinum")
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if intent.Tier != "platinum" {
		t.Fatalf("Tier = %q, want requested tier echoed", intent.Tier)
	}
}

func TestCreateSubscriptionServerMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Tier already active"}`))
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.CreateSubscription(context.Background(), "gold")

	var se *checkout.SubscriptionError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *SubscriptionError", err)
	}
	if se.Message != "Tier already active" {
		t.Fatalf("Message = %q, want server text verbatim", se.Message)
	}
	if got := se.Error(); got != "checkout: subscription: Tier already active" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestCreateSubscriptionValidatesTier(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	o, err := checkout.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.CreateSubscription(context.Background(), "")

	var se *checkout.SubscriptionError
	if !errors.As(err, &se) || se.Message != "tier is required" {
		t.Fatalf("error = %v, want tier validation", err)
	}
	if calls != 0 {
		t.Fatalf("server saw %d requests, want none", calls)
	}
}

func TestNilOrchestrator(t *testing.T) {
	var o *checkout.Orchestrator
	if _, err := o.CreateCheckout(context.Background(), "sess_pro", nil); err == nil {
		t.Fatal("expected error from nil orchestrator")
	}
	if _, err := o.CreateSubscription(context.Background(), "gold"); err == nil {
		t.Fatal("expected error from nil orchestrator")
	}
}
