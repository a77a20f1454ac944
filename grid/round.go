package grid

import (
	"math"

	"github.com/shopspring/decimal"
)

// validPrice reports whether p is a finite, positive price.
func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// RoundToIncrement rounds v to the nearest multiple of inc, with halves
// rounded away from zero. A non-positive inc or a non-finite v leaves v
// unchanged.
//
// Every trigger and target price goes through this function.
func RoundToIncrement(v, inc float64) float64 {
	if inc <= 0 || math.IsInf(v, 0) || math.IsNaN(v) || math.IsInf(inc, 0) {
		return v
	}
	step := decimal.NewFromFloat(inc)
	return decimal.NewFromFloat(v).Div(step).Round(0).Mul(step).InexactFloat64()
}

// realizedProfit is (exit - spread - entry) * quantity.
func realizedProfit(exit, spread, entry, qty float64) float64 {
	return decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(spread)).
		Sub(decimal.NewFromFloat(entry)).
		Mul(decimal.NewFromFloat(qty)).
		InexactFloat64()
}

func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}
