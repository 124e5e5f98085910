package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
projects:
  - key: VCS-191
    name: Kasigau Corridor REDD
    country: Kenya
    registry: VCS
    methodologies:
      - id: VM0009
        category: Forestry
        name: Avoided Ecosystem Conversion
    prices:
      - sourceId: pool-bct
        poolName: BCT
        purchasePrice: 3.75
        supply: 1200
      - sourceId: listing-1
        poolName: Listing
        purchasePrice: 2.10
        supply: 300
  - key: GS-42
    name: Cookstoves Ghana
    country: Ghana
    methodologies:
      - id: GS-TPDDTEC
        category: Energy Efficiency
`

func TestCatalog_Search(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.Search(ctx, domain.SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsCount)

	res, err = c.Search(ctx, domain.SearchFilter{Country: "kenya", Name: "kasigau"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "VCS-191", res.Items[0].Key)
	assert.Equal(t, domain.Number(2.10), res.Items[0].Price)
	assert.Equal(t, domain.Number(1500), res.Items[0].Stats.TotalSupply)

	res, err = c.Search(ctx, domain.SearchFilter{Methodology: "Energy Efficiency"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "GS-42", res.Items[0].Key)
}

func TestCatalog_ReferenceData(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	countries, _ := c.Countries(context.Background())
	assert.Equal(t, []string{"Ghana", "Kenya"}, countries)

	cats, _ := c.Categories(context.Background())
	assert.Equal(t, []string{"Energy Efficiency", "Forestry"}, cats)
}

func TestCatalog_Project(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	p, err := c.Project(context.Background(), "VCS-191")
	require.NoError(t, err)
	p.Prices[0].Supply = 0

	again, _ := c.Project(context.Background(), "VCS-191")
	assert.NotEqual(t, domain.Number(0), again.Prices[0].Supply, "callers must not mutate the catalog")

	_, err = c.Project(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("projects:\n  - name: nameless\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("projects:\n  - key: a\n  - key: a\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.projects, 2)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
