// Package selection decides which supply pools fill a purchase.
package selection

import (
	"math"
	"sort"

	mkt "github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/calc"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
)

// quantities below this are treated as filled
const epsilon = 1e-9

// Result is the outcome of a selection run.
type Result struct {
	Sources   []domain.SelectedSource
	Quantity  float64
	TotalCost float64
}

// Available is the total tradable supply across pools.
func Available(pools []mkt.Pool) float64 {
	var total float64
	for _, p := range tradable(pools) {
		total += float64(p.Supply)
	}
	return total
}

// Select fills quantity from the cheapest pools first. Ties on price prefer
// the deeper pool so fewer sources are used, then the source id keeps the
// order stable.
func Select(pools []mkt.Pool, quantity float64) (*Result, error) {
	if quantity <= 0 || math.IsNaN(quantity) {
		return nil, calc.ErrNegativeQuantity
	}

	candidates := tradable(pools)
	if len(candidates) == 0 {
		return nil, domain.ErrNoSupply
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.PricePerTon != b.PricePerTon {
			return a.PricePerTon < b.PricePerTon
		}
		if a.Supply != b.Supply {
			return a.Supply > b.Supply
		}
		return a.SourceID < b.SourceID
	})

	res := &Result{Quantity: quantity}
	remaining := quantity
	var totalCents int64

	for _, p := range candidates {
		if remaining <= epsilon {
			break
		}

		take := math.Min(remaining, float64(p.Supply))
		price := float64(p.PricePerTon)
		cents := int64(math.Round(take * price * 100))

		res.Sources = append(res.Sources, domain.SelectedSource{
			SourceID:    p.SourceID,
			PoolName:    p.PoolName,
			Quantity:    take,
			PricePerTon: price,
			TotalCost:   float64(cents) / 100,
		})
		totalCents += cents
		remaining -= take
	}

	if remaining > epsilon {
		return nil, domain.ErrInsufficientSupply
	}

	res.TotalCost = float64(totalCents) / 100
	return res, nil
}

// CostExceedsExpected reports whether actual is above expected by more than
// tolerance.
func CostExceedsExpected(actual, expected, tolerance float64) bool {
	return actual-expected > tolerance+epsilon
}

func tradable(pools []mkt.Pool) []mkt.Pool {
	out := make([]mkt.Pool, 0, len(pools))
	for _, p := range pools {
		if p.Supply > 0 && p.PricePerTon > 0 {
			out = append(out, p)
		}
	}
	return out
}
