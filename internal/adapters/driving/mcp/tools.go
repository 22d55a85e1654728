package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/logger"
)

// Numeric bounds the dispatcher enforces before a query reaches the
// store.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	MaxTraversal     = 200
	MaxGroups        = 50
)

// registerTools registers the full operation catalog. The catalog is
// closed: these are the only operations the server exposes.
func (s *Server) registerTools() {
	s.registerSearchTools()
	s.registerBrowseTools()
	s.registerAggregateTools()
	s.registerTraversalTools()
	s.registerMetaTools()
}

// addTool wraps a typed handler with the shared dispatcher concerns:
// per-client rate limiting, panic containment, and the uniform
// one-text-item JSON envelope.
func addTool[In, Out any](s *Server, family string, tool *mcp.Tool, handler func(context.Context, In) (Out, error)) {
	s.catalog = append(s.catalog, toolInfo{Name: tool.Name, Description: tool.Description, Family: family})

	mcp.AddTool(s.server, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (result *mcp.CallToolResult, out Out, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("Handler %s panicked: %v", tool.Name, r)
				result = errorResult(fmt.Sprintf("%s: internal error", tool.Name))
				err = nil
			}
		}()

		if denied := s.gate(req); denied != nil {
			return denied, out, nil
		}

		out, herr := handler(ctx, in)
		if herr != nil {
			return errorResult(userMessage(tool.Name, herr)), out, nil
		}
		return textResult(out), out, nil
	})
}

// textResult wraps a handler result in the uniform envelope: one text
// content item holding pretty-printed JSON.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorResult builds the failure envelope. Handler failures are tool
// results, not protocol errors, so clients can read them as content.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// userMessage converts a handler error into a human-readable envelope
// message.
func userMessage(tool string, err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		return fmt.Sprintf("%s: unknown table: %v", tool, err)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("%s: not found", tool)
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Sprintf("%s: %v", tool, err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Sprintf("%s: semantic search is unavailable (no embedding provider configured)", tool)
	default:
		return fmt.Sprintf("%s: %v", tool, err)
	}
}

// gate applies per-client rate limiting before any handler runs.
// Returns the rejection envelope, or nil when the request may proceed.
func (s *Server) gate(req *mcp.CallToolRequest) *mcp.CallToolResult {
	if s.ports.Limiter == nil || s.ports.Limiter.TryAcquire(clientID(req)) {
		return nil
	}
	return errorResult("rate limited: request budget exhausted, retry shortly")
}

// clientID derives the rate-limiting identity from the session when the
// transport carries one.
func clientID(req *mcp.CallToolRequest) string {
	if req == nil || req.Session == nil {
		return "local"
	}
	if ider, ok := any(req.Session).(interface{ ID() string }); ok {
		if id := ider.ID(); id != "" {
			return id
		}
	}
	return "local"
}

// clampListLimit folds a requested row limit into [1, MaxListLimit],
// zero meaning the default.
func clampListLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	default:
		return n
	}
}

// clampTraversal folds a traversal limit into [1, MaxTraversal], zero
// meaning the full cap.
func clampTraversal(n int) int {
	if n <= 0 || n > MaxTraversal {
		return MaxTraversal
	}
	return n
}

// clampOffset rejects negative offsets.
func clampOffset(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// parseDate accepts RFC3339 timestamps or bare dates.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q (want RFC3339 or YYYY-MM-DD)", domain.ErrInvalidInput, value)
}

// dateRange parses optional from/to bounds.
func dateRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := parseDate(from)
	if err != nil {
		return nil, nil, err
	}
	t, err := parseDate(to)
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}
