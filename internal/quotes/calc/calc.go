// Package calc holds the unit conversions shared by quoting and the purchase
// form: tons <-> USD at the current project price, two-decimal truncation and
// capping against available supply.
package calc

import (
	"errors"
	"math"
)

var (
	ErrZeroPrice        = errors.New("price must be positive to convert between USD and tons")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

// FloorCents truncates x to two decimals, rounding toward negative infinity.
func FloorCents(x float64) float64 {
	// the epsilon absorbs representation error such as 0.29*100 = 28.999999999999996
	return math.Floor(x*100+1e-9) / 100
}

// RoundCents rounds x half away from zero to two decimals.
func RoundCents(x float64) float64 {
	return math.Round(x*100) / 100
}

// ClampQuantity floors q to two decimals and caps it at the available supply.
// exceeded reports that the cap is in effect, either because q was above it or
// because q sits exactly on it. A non-positive supply means "unknown" and
// disables the cap.
func ClampQuantity(q, supply float64) (clamped float64, exceeded bool, err error) {
	if q < 0 || math.IsNaN(q) {
		return 0, false, ErrNegativeQuantity
	}

	rounded := FloorCents(q)
	if supply <= 0 {
		return rounded, false, nil
	}

	max := FloorCents(supply)
	if rounded > max {
		return max, true, nil
	}
	return rounded, rounded == max, nil
}

// USDToTons converts a USD amount into tons at price per ton.
func USDToTons(usd, price float64) (float64, error) {
	if price <= 0 {
		return 0, ErrZeroPrice
	}
	if usd < 0 {
		return 0, ErrNegativeQuantity
	}
	return usd / price, nil
}

// TonsToUSD is the expected cost of tons at price per ton.
func TonsToUSD(tons, price float64) float64 {
	return tons * price
}

// CapUSD floors usd to cents and, when the equivalent tonnage exceeds supply,
// replaces it with the largest USD amount the supply can cover.
func CapUSD(usd, price, supply float64) (capped float64, exceeded bool, err error) {
	if usd < 0 || math.IsNaN(usd) {
		return 0, false, ErrNegativeQuantity
	}

	rounded := FloorCents(usd)
	if price <= 0 {
		return rounded, false, ErrZeroPrice
	}
	if supply > 0 && rounded/price > supply {
		return FloorCents(supply * price), true, nil
	}
	return rounded, false, nil
}
