// Package file provides the TOML-backed configuration store.
// Configuration lives at ~/.vke/config.toml; nested TOML tables are
// flattened to dot-notation keys on load.
package file
