package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

func TestLookupNormalizesNames(t *testing.T) {
	c := New([]domain.Neighborhood{
		{Name: "Jardim Itália", PredominantStandard: "alto"},
		{Name: "Centro"},
		{Name: "jardim italia", PredominantStandard: "medio"},
		{Name: "  "},
	})
	require.Equal(t, 2, c.Len())

	n, ok := c.Lookup("JARDIM  ITALIA")
	require.True(t, ok)
	assert.Equal(t, "alto", n.PredominantStandard)

	_, ok = c.Lookup("Porto")
	assert.False(t, ok)

	assert.Equal(t, []string{"Centro", "Jardim Itália"}, c.Names())
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	_, ok := c.Lookup("x")
	assert.False(t, ok)
	assert.Empty(t, c.Names())
}
