// Package feed provides the caching client for the marketplace listing
// feed. The Client keys its cache by pagination mode, criteria fingerprint
// and cursor, deduplicates concurrent fetches for the same key into a
// single upstream request whose result is broadcast to every waiter, and
// serves cached pages within a configurable staleness window. Infinite
// scrolling is modelled by Chain, an append-only sequence of pages advanced
// via GetNextPage until ErrExhausted. The HTTP transport can be swapped for
// any Backend implementation; NewFromEnv wires either the HTTP backend or
// an in-memory mock catalog from environment variables.
package feed
