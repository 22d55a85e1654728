package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

func TestDefault_BuildsEveryBuiltinAdapter(t *testing.T) {
	r := Default()

	for _, sourceType := range []string{
		domain.SourceFilesystem,
		domain.SourceNotion,
		domain.SourceSlack,
		domain.SourceHubSpot,
	} {
		adapter, err := r.Create(domain.Source{Type: sourceType, Config: map[string]string{}})
		require.NoError(t, err, sourceType)
		require.NotNil(t, adapter, sourceType)
	}
}

func TestCreate_UnknownType(t *testing.T) {
	_, err := Default().Create(domain.Source{Type: "sharepoint"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "sharepoint")
}

func TestTypes_Sorted(t *testing.T) {
	assert.Equal(t,
		[]string{"filesystem", "hubspot", "notion", "slack"},
		Default().Types())
}

func TestRegister_ExtendsWithoutTouchingBuiltins(t *testing.T) {
	r := New()
	assert.Empty(t, r.Types())

	r.Register("custom", func(s domain.Source) (driven.SourceAdapter, error) {
		return nil, nil
	})
	assert.Equal(t, []string{"custom"}, r.Types())

	_, err := r.Create(domain.Source{Type: "custom"})
	assert.NoError(t, err)
}
