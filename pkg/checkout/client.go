package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Pazar/pazar_sdk_go/internal/httpx"
	"github.com/Pazar/pazar_sdk_go/internal/pazarapi"
)

const tracerName = "pazar-sdk/checkout"

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger overrides the logger used for intent diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithKeyFunc overrides idempotency key generation. Keys must be unique per
// logical call; the default uses random UUIDs.
func WithKeyFunc(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newKey = fn
		}
	}
}

// WithAPIKey authenticates HTTP requests with a bearer token. The option
// has no effect on custom backends.
func WithAPIKey(key string) Option {
	return func(o *Orchestrator) {
		o.transportOpts = append(o.transportOpts, httpx.WithBearerToken(key))
	}
}

// WithHTTPClient overrides the underlying HTTP client used for transport.
// The option has no effect on custom backends.
func WithHTTPClient(h *http.Client) Option {
	return func(o *Orchestrator) {
		o.transportOpts = append(o.transportOpts, httpx.WithHTTPClient(h))
	}
}

// Orchestrator creates payment intents against the commerce API. Each
// logical call carries one fresh idempotency key; the transport replays
// that key unchanged across its retries.
type Orchestrator struct {
	backend       Backend
	logger        logrus.FieldLogger
	tracer        trace.Tracer
	newKey        func() string
	transportOpts []httpx.Option
}

func newOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger: logrus.StandardLogger(),
		tracer: otel.Tracer(tracerName),
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New constructs an Orchestrator speaking to the commerce API at baseURL.
func New(baseURL string, opts ...Option) (*Orchestrator, error) {
	o := newOrchestrator(opts...)
	httpClient, err := httpx.NewClient(baseURL, o.transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("checkout: init HTTP client: %w", err)
	}
	o.backend = &httpBackend{client: httpClient}
	return o, nil
}

// NewWithBackend constructs an Orchestrator over a custom Backend.
func NewWithBackend(b Backend, opts ...Option) *Orchestrator {
	o := newOrchestrator(opts...)
	o.backend = b
	return o
}

// CreateCheckout creates a payment intent for a session purchase. Passing a
// membership id applies the membership's discount server-side; nil means no
// membership. Failures are reported as *CheckoutError carrying the server
// message verbatim.
func (o *Orchestrator) CreateCheckout(ctx context.Context, sessionID string, membershipID *string) (*Intent, error) {
	if o == nil || o.backend == nil {
		return nil, &CheckoutError{Message: "orchestrator is not configured"}
	}

	ctx, span := o.tracer.Start(ctx, "checkout.CreateCheckout")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.session_id", sessionID),
		attribute.Bool("checkout.has_membership", membershipID != nil),
	)

	if strings.TrimSpace(sessionID) == "" {
		return nil, &CheckoutError{Message: "session id is required"}
	}

	key := o.newKey()
	intent, err := o.backend.CreateCheckout(ctx, CheckoutRequest{SessionID: sessionID, MembershipID: membershipID}, key)
	if err != nil {
		err = asCheckoutError(err)
		o.logger.WithFields(logrus.Fields{
			"session_id":      sessionID,
			"idempotency_key": key,
		}).WithError(err).Warn("create checkout failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("checkout.amount_cents", intent.AmountCents),
		attribute.Int64("checkout.discount_cents", intent.DiscountCents),
	)
	o.logger.WithFields(logrus.Fields{
		"session_id":        sessionID,
		"payment_intent_id": intent.PaymentIntentID,
		"amount_cents":      intent.AmountCents,
		"discount_cents":    intent.DiscountCents,
		"idempotency_key":   key,
	}).Debug("checkout intent created")
	return intent, nil
}

// CreateSubscription creates a payment intent for a tier subscription.
// Failures are reported as *SubscriptionError carrying the server message
// verbatim.
func (o *Orchestrator) CreateSubscription(ctx context.Context, tier string) (*SubscriptionIntent, error) {
	if o == nil || o.backend == nil {
		return nil, &SubscriptionError{Message: "orchestrator is not configured"}
	}

	ctx, span := o.tracer.Start(ctx, "checkout.CreateSubscription")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.tier", tier))

	if strings.TrimSpace(tier) == "" {
		return nil, &SubscriptionError{Message: "tier is required"}
	}

	key := o.newKey()
	intent, err := o.backend.CreateSubscription(ctx, tier, key)
	if err != nil {
		err = asSubscriptionError(err)
		o.logger.WithFields(logrus.Fields{
			"tier":            tier,
			"idempotency_key": key,
		}).WithError(err).Warn("create subscription failed")
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"tier":            tier,
		"subscription_id": intent.SubscriptionID,
		"idempotency_key": key,
	}).Debug("subscription intent created")
	return intent, nil
}

// asCheckoutError passes backend-authored CheckoutErrors through untouched
// and wraps everything else with the extracted server message.
func asCheckoutError(err error) error {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce
	}
	return &CheckoutError{Message: pazarapi.ErrorMessage(err), cause: err}
}

func asSubscriptionError(err error) error {
	var se *SubscriptionError
	if errors.As(err, &se) {
		return se
	}
	return &SubscriptionError{Message: pazarapi.ErrorMessage(err), cause: err}
}

type httpBackend struct {
	client *httpx.Client
}

type checkoutWire struct {
	SessionID    string  `json:"session_id"`
	MembershipID *string `json:"membership_id"`
}

type intentWire struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     *int64 `json:"amount_cents"`
	DiscountCents   int64  `json:"discount_cents"`
}

func (b *httpBackend) CreateCheckout(ctx context.Context, req CheckoutRequest, idempotencyKey string) (*Intent, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("checkout: http backend not configured")
	}
	body, contentType, err := httpx.WithJSONBody(checkoutWire{
		SessionID:    req.SessionID,
		MembershipID: req.MembershipID,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: encode request: %w", err)
	}

	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   "create-checkout",
		Header: http.Header{
			"Content-Type":    []string{contentType},
			"Idempotency-Key": []string{idempotencyKey},
		},
		Body: body,
	})
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, err
	}

	var wire intentWire
	if err := pazarapi.DecodeResponse(data, &wire); err != nil {
		return nil, fmt.Errorf("checkout: decode response: %w", err)
	}
	if wire.PaymentIntentID == "" {
		return nil, fmt.Errorf("checkout: response missing payment_intent_id")
	}
	if wire.ClientSecret == "" {
		return nil, fmt.Errorf("checkout: response missing client_secret")
	}
	if wire.AmountCents == nil {
		return nil, fmt.Errorf("checkout: response missing amount_cents")
	}
	return &Intent{
		PaymentIntentID: wire.PaymentIntentID,
		ClientSecret:    wire.ClientSecret,
		AmountCents:     *wire.AmountCents,
		DiscountCents:   wire.DiscountCents,
	}, nil
}

type subscriptionWire struct {
	Tier string `json:"tier"`
}

type subscriptionIntentWire struct {
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
	Tier           string `json:"tier"`
}

func (b *httpBackend) CreateSubscription(ctx context.Context, tier string, idempotencyKey string) (*SubscriptionIntent, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("checkout: http backend not configured")
	}
	body, contentType, err := httpx.WithJSONBody(subscriptionWire{Tier: tier})
	if err != nil {
		return nil, fmt.Errorf("checkout: encode request: %w", err)
	}

	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   "create-subscription",
		Header: http.Header{
			"Content-Type":    []string{contentType},
			"Idempotency-Key": []string{idempotencyKey},
		},
		Body: body,
	})
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, err
	}

	var wire subscriptionIntentWire
	if err := pazarapi.DecodeResponse(data, &wire); err != nil {
		return nil, fmt.Errorf("checkout: decode response: %w", err)
	}
	if wire.SubscriptionID == "" {
		return nil, fmt.Errorf("checkout: response missing subscription_id")
	}
	if wire.ClientSecret == "" {
		return nil, fmt.Errorf("checkout: response missing client_secret")
	}
	if wire.Tier == "" {
		wire.Tier = tier
	}
	return &SubscriptionIntent{
		SubscriptionID: wire.SubscriptionID,
		ClientSecret:   wire.ClientSecret,
		Tier:           wire.Tier,
	}, nil
}
