package indicators

import "fmt"

// MACDPoint is the MACD line, its signal line and their difference at one bar.
type MACDPoint struct {
	MACD      Value `json:"macd"`
	Signal    Value `json:"signal"`
	Histogram Value `json:"histogram"`
}

// MACD calculates EMA(fast) - EMA(slow) and an EMA(signal) of that line.
//
// The MACD line is ready from bar slow-1. The signal line is seeded with the
// first ready MACD value (bar slow-1) and is ready signal-1 bars later, so
// its values differ from a signal EMA seeded at bar 0 over the warm-up line.
func MACD(closes []float64, fast, slow, signal int) ([]MACDPoint, error) {
	name := fmt.Sprintf("MACD(%d,%d,%d)", fast, slow, signal)
	switch {
	case fast <= 0:
		return nil, invalidPeriod(name, fast)
	case slow <= 0:
		return nil, invalidPeriod(name, slow)
	case signal <= 0:
		return nil, invalidPeriod(name, signal)
	case fast >= slow:
		return nil, fmt.Errorf("%w: %s requires fast < slow", ErrInvalidPeriod, name)
	}

	need := slow + signal - 1
	if len(closes) < need {
		return nil, insufficient(name, need, len(closes))
	}

	fastEMA := ema(closes, fast, 0)
	slowEMA := ema(closes, slow, 0)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i].V - slowEMA[i].V
	}

	start := slow - 1
	sig := ema(line, signal, start)

	out := make([]MACDPoint, len(closes))
	for i := range closes {
		m := Value{V: line[i], Ready: i >= start}
		s := sig[i]
		out[i] = MACDPoint{
			MACD:      m,
			Signal:    s,
			Histogram: Value{V: m.V - s.V, Ready: m.Ready && s.Ready},
		}
	}
	return out, nil
}
