// Package checkout orchestrates payment intent creation for session
// purchases and tier subscriptions. Every call sends a fresh idempotency
// key that survives transport retries, so a network blip can never charge
// twice. Failures surface as CheckoutError or SubscriptionError whose
// Message field carries the server's error text verbatim, ready to show to
// the buyer. The transport can be swapped for any Backend implementation;
// NewFromEnv wires either the HTTP backend or an in-memory mock commerce
// catalog from environment variables.
package checkout
