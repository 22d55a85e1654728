package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTable(t *testing.T) {
	spec, err := LookupTable("tickets")
	require.NoError(t, err)
	assert.Equal(t, "tickets", spec.Name)
	assert.Equal(t, "created_at", spec.DateColumn)

	_, err = LookupTable("users")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	// SQL injection attempts are just unknown names.
	_, err = LookupTable("tickets; DROP TABLE tickets")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestTableSpec_AllowLists(t *testing.T) {
	spec, err := LookupTable("deals")
	require.NoError(t, err)

	assert.True(t, spec.HasColumn("amount"))
	assert.False(t, spec.HasColumn("internal_notes"))

	assert.True(t, spec.CanFilter("stage"))
	assert.False(t, spec.CanFilter("amount"))

	assert.True(t, spec.CanGroupBy("stage"))
	assert.False(t, spec.CanGroupBy("id"))

	assert.True(t, spec.CanSum("amount"))
	assert.False(t, spec.CanSum("id"))
}

func TestTableNames_MatchesRegistry(t *testing.T) {
	names := TableNames()
	assert.Len(t, names, len(Tables))
	for _, name := range names {
		_, ok := Tables[name]
		assert.True(t, ok, "TableNames lists %q which is not in Tables", name)
	}
}

func TestIsPartition(t *testing.T) {
	for _, p := range Partitions {
		assert.True(t, IsPartition(p))
	}
	assert.False(t, IsPartition("everything"))
}
