// Package driving provides interfaces for application entry points
// (primary/inbound ports) consumed by the CLI and the MCP server.
package driving
