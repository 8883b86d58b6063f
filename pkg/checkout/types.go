package checkout

import (
	"context"
	"fmt"
)

// CheckoutRequest describes a session purchase. MembershipID is optional;
// nil means the buyer holds no membership and is serialized as JSON null.
type CheckoutRequest struct {
	SessionID    string
	MembershipID *string
}

// Intent is the payment intent created for a session checkout. AmountCents
// is the final charge after any membership discount; DiscountCents is the
// amount saved.
type Intent struct {
	PaymentIntentID string
	ClientSecret    string
	AmountCents     int64
	DiscountCents   int64
}

// SubscriptionIntent is the payment intent created for a tier subscription.
type SubscriptionIntent struct {
	SubscriptionID string
	ClientSecret   string
	Tier           string
}

// Backend abstracts the commerce transport. The idempotency key is attached
// to the outbound request and replayed verbatim on transport retries.
type Backend interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest, idempotencyKey string) (*Intent, error)
	CreateSubscription(ctx context.Context, tier string, idempotencyKey string) (*SubscriptionIntent, error)
}

// CheckoutError reports a failed checkout. Message holds the server's error
// text verbatim, fit for direct display; Error adds the package prefix for
// logs. The transport-level cause, when any, is reachable via Unwrap.
type CheckoutError struct {
	Message string
	cause   error
}

// NewCheckoutError builds a CheckoutError wrapping cause. Backends use it
// to attach their own verbatim messages.
func NewCheckoutError(message string, cause error) *CheckoutError {
	return &CheckoutError{Message: message, cause: cause}
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout: %s", e.Message)
}

func (e *CheckoutError) Unwrap() error {
	return e.cause
}

// SubscriptionError mirrors CheckoutError for subscription intents.
type SubscriptionError struct {
	Message string
	cause   error
}

// NewSubscriptionError builds a SubscriptionError wrapping cause.
func NewSubscriptionError(message string, cause error) *SubscriptionError {
	return &SubscriptionError{Message: message, cause: cause}
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("checkout: subscription: %s", e.Message)
}

func (e *SubscriptionError) Unwrap() error {
	return e.cause
}
