// Package sqlite provides a unified SQLite-based implementation of the
// storage driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. One database
// connection backs both store interfaces:
//
//   - DocumentStore: document and chunk persistence, embedding blobs
//   - TableStore: allow-list-driven browse, aggregation, semantic match
//     and structured-row upserts
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Embeddings are stored as little-endian
// float32 blobs on the chunk rows; similarity is computed in process.
//
// # Data Location
//
// By default, the database is stored at ~/.vke/data/knowledge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
