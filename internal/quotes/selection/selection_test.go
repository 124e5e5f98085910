package selection

import (
	"testing"

	mkt "github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/calc"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pools() []mkt.Pool {
	return []mkt.Pool{
		{SourceID: "expensive", PoolName: "NCT", PricePerTon: 3.5, Supply: 100},
		{SourceID: "cheap-small", PoolName: "BCT", PricePerTon: 1.25, Supply: 2},
		{SourceID: "cheap-big", PoolName: "UBO", PricePerTon: 1.25, Supply: 10},
		{SourceID: "empty", PoolName: "NBO", PricePerTon: 0.5, Supply: 0},
		{SourceID: "free", PoolName: "X", PricePerTon: 0, Supply: 50},
	}
}

func TestSelect_SinglePool(t *testing.T) {
	res, err := Select(pools(), 4)
	require.NoError(t, err)

	require.Len(t, res.Sources, 1)
	assert.Equal(t, "cheap-big", res.Sources[0].SourceID)
	assert.Equal(t, 4.0, res.Sources[0].Quantity)
	assert.Equal(t, 5.0, res.Sources[0].TotalCost)
	assert.Equal(t, 5.0, res.TotalCost)
}

func TestSelect_SpillsAcrossPools(t *testing.T) {
	res, err := Select(pools(), 13)
	require.NoError(t, err)

	require.Len(t, res.Sources, 3)
	assert.Equal(t, []string{"cheap-big", "cheap-small", "expensive"},
		[]string{res.Sources[0].SourceID, res.Sources[1].SourceID, res.Sources[2].SourceID})
	assert.Equal(t, 10.0, res.Sources[0].Quantity)
	assert.Equal(t, 2.0, res.Sources[1].Quantity)
	assert.Equal(t, 1.0, res.Sources[2].Quantity)
	// 12.5 + 2.5 + 3.5
	assert.Equal(t, 18.5, res.TotalCost)
}

func TestSelect_TieOnPriceAndSupplyUsesSourceID(t *testing.T) {
	res, err := Select([]mkt.Pool{
		{SourceID: "b", PricePerTon: 2, Supply: 5},
		{SourceID: "a", PricePerTon: 2, Supply: 5},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Sources[0].SourceID)
}

func TestSelect_FractionalCostRoundsToCents(t *testing.T) {
	res, err := Select([]mkt.Pool{{SourceID: "a", PricePerTon: 0.333, Supply: 10}}, 1.01)
	require.NoError(t, err)
	// 1.01 * 0.333 = 0.33633
	assert.Equal(t, 0.34, res.TotalCost)
}

func TestSelect_Errors(t *testing.T) {
	_, err := Select(pools(), 200)
	assert.ErrorIs(t, err, domain.ErrInsufficientSupply)

	_, err = Select([]mkt.Pool{{SourceID: "empty", PricePerTon: 1, Supply: 0}}, 1)
	assert.ErrorIs(t, err, domain.ErrNoSupply)

	_, err = Select(pools(), 0)
	assert.ErrorIs(t, err, calc.ErrNegativeQuantity)
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, 112.0, Available(pools()))
}

func TestCostExceedsExpected(t *testing.T) {
	assert.False(t, CostExceedsExpected(10.01, 10, 0.01))
	assert.True(t, CostExceedsExpected(10.02, 10, 0.01))
	assert.False(t, CostExceedsExpected(9, 10, 0.01))
}
