package indicators

import (
	"fmt"
)

// EMA calculates the Exponential Moving Average of values for the given span.
//
// The smoothing factor is 2/(span+1) and the average is seeded with the first
// value rather than a simple average, so no future bar leaks into the seed.
// Entries before index span-1 are not ready.
func EMA(values []float64, span int) ([]Value, error) {
	name := fmt.Sprintf("EMA(%d)", span)
	if span <= 0 {
		return nil, invalidPeriod(name, span)
	}
	if len(values) < span {
		return nil, insufficient(name, span, len(values))
	}
	return ema(values, span, 0), nil
}

// ema smooths values starting at index from; earlier entries are zero and
// not ready. Readiness begins span-1 entries after from.
func ema(values []float64, span, from int) []Value {
	alpha := 2.0 / float64(span+1)
	out := make([]Value, len(values))

	var e float64
	for i := from; i < len(values); i++ {
		x := values[i]
		if i == from {
			e = x
		} else {
			e = alpha*x + (1.0-alpha)*e
		}
		out[i] = Value{V: e, Ready: i-from >= span-1}
	}
	return out
}

// SMA calculates the Simple Moving Average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	name := fmt.Sprintf("SMA(%d)", period)
	if period <= 0 {
		return 0, invalidPeriod(name, period)
	}
	if len(values) < period {
		return 0, insufficient(name, period, len(values))
	}

	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}
