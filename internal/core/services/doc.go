// Package services implements the driving port interfaces: the ingest
// orchestrator that runs source listings through chunking, embedding
// and persistence, and the semantic search service that fans out over
// the store's partitions.
//
// Services contain the core business logic and orchestrate calls to
// driven ports (adapters).
package services
