// Package connectors provides source adapter implementations that
// fetch documents from external systems: the local filesystem, Notion
// workspaces, Slack export archives and HubSpot.
//
// Adapters are constructed through the registry subpackage so new
// source types can be added without touching a central switch. This
// package holds only the shared adapter plumbing, which keeps it
// importable by every adapter. Every adapter goes
// through the one-shot initialization handshake in Base before it is
// used; a failed Initialize leaves the adapter unusable and the error
// is surfaced to the caller, who skips that source for the run.
package connectors
