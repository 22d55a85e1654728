// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): source adapters, the document and table
// stores, the embedding service, post-processors and the rate limiter.
package driven
