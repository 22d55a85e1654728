package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// stubSearch implements driving.SearchService over canned results.
type stubSearch struct {
	grouped map[string][]domain.Match
	flat    []domain.Match
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (s *stubSearch) Search(_ context.Context, query string, opts domain.SearchOptions) (map[string][]domain.Match, error) {
	s.lastQuery = query
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.grouped, nil
}

func (s *stubSearch) SearchAll(_ context.Context, query string, limit int) ([]domain.Match, error) {
	s.lastQuery = query
	s.lastOpts = domain.SearchOptions{MatchCount: limit}
	if s.err != nil {
		return nil, s.err
	}
	return s.flat, nil
}

// stubTables implements driven.TableStore and records every call so
// tests can assert the store was, or was not, reached.
type stubTables struct {
	rows   []map[string]any
	row    map[string]any
	groups []driven.Group
	err    error

	rowQueries []driven.RowQuery
	aggQueries []driven.AggregateQuery
	getCalls   []string
}

func (s *stubTables) QueryRows(_ context.Context, q driven.RowQuery) ([]map[string]any, error) {
	s.rowQueries = append(s.rowQueries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubTables) GetRow(_ context.Context, table, id string) (map[string]any, error) {
	s.getCalls = append(s.getCalls, table+"/"+id)
	if s.err != nil {
		return nil, s.err
	}
	if s.row == nil {
		return nil, domain.ErrNotFound
	}
	return s.row, nil
}

func (s *stubTables) Aggregate(_ context.Context, q driven.AggregateQuery) ([]driven.Group, error) {
	s.aggQueries = append(s.aggQueries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.groups, nil
}

func (s *stubTables) Match(_ context.Context, _ string, _ []float32, _ int) ([]domain.Match, error) {
	return nil, fmt.Errorf("not used in dispatcher tests")
}

func (s *stubTables) UpsertRows(_ context.Context, _ []driven.TableRecord) error {
	return nil
}

// denyAllLimiter rejects every request.
type denyAllLimiter struct{}

func (denyAllLimiter) TryAcquire(string) bool { return false }

func newTestServer(t *testing.T, search *stubSearch, tables *stubTables) *Server {
	t.Helper()
	srv, err := NewServer(&Ports{Search: search, Tables: tables})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}
