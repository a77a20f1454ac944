package indicators

import "fmt"

// RSI calculates the Relative Strength Index using Wilder's smoothing.
//
// Average gain and loss are exponentially smoothed with alpha = 1/period,
// seeded with the first close-to-close change and updated bar by bar.
// RSI saturates at 100 when the average loss is zero. The first period bars
// are not ready, so at least period+1 closes are required.
func RSI(closes []float64, period int) ([]Value, error) {
	name := fmt.Sprintf("RSI(%d)", period)
	if period <= 0 {
		return nil, invalidPeriod(name, period)
	}
	if len(closes) < period+1 {
		return nil, insufficient(name, period+1, len(closes))
	}

	alpha := 1.0 / float64(period)
	out := make([]Value, len(closes))

	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1.0-alpha)*avgGain
			avgLoss = alpha*loss + (1.0-alpha)*avgLoss
		}

		out[i] = Value{V: rsiValue(avgGain, avgLoss), Ready: i >= period}
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
