// Package filter models the browse criteria a marketplace client applies to
// the listing feed: a set of filter tokens plus a free-text search query.
// Criteria is an immutable value whose Fingerprint method yields a canonical,
// order-independent identity used by feed caching. State wraps a Criteria
// with mutation operations (Toggle, SetSearch, Clear) and synchronous
// subscriber notification so UI layers can react to every effective change.
package filter
