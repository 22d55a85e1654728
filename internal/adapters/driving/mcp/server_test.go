package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RequiresSearchService(t *testing.T) {
	_, err := NewServer(&Ports{Tables: &stubTables{}})
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestNewServer_RequiresTableStore(t *testing.T) {
	_, err := NewServer(&Ports{Search: &stubSearch{}})
	assert.ErrorIs(t, err, ErrMissingTableStore)
}

func TestNewServer_LimiterIsOptional(t *testing.T) {
	srv, err := NewServer(&Ports{Search: &stubSearch{}, Tables: &stubTables{}})
	require.NoError(t, err)
	assert.NotNil(t, srv)
}
