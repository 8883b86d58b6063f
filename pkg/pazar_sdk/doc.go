// Package pazar_sdk provides helpers to bootstrap feed and checkout clients
// based on environment variables conventionally exposed to Pazar
// applications. The behaviour is documented in detail in README.md and
// mirrors the runtime contract described for PAZAR_RUNTIME_MODE,
// PAZAR_FEED_API_URL, and PAZAR_COMMERCE_API_URL. When the upstream REST
// services are unavailable, the helpers produce in-memory mocks that remain
// API compatible with the HTTP clients.
package pazar_sdk
