// Package migrations holds the schema migration scripts for the
// knowledge store, embedded so the binary can bootstrap a fresh
// database without external files.
package migrations

import "embed"

// FS exposes the numbered *.sql migration scripts.
//
//go:embed *.sql
var FS embed.FS
