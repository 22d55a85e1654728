// Package domain contains the core business entities and rules for the
// knowledge engine: documents, chunks, sources, the error taxonomy with
// retry classification, and the declarative table schema registry that
// bounds the retrieval surface.
//
// The domain layer has no dependencies on infrastructure. All I/O goes
// through the port interfaces in core/ports.
package domain
