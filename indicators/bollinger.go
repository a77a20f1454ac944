package indicators

import (
	"fmt"
	"math"
)

// Band is one Bollinger Bands reading.
type Band struct {
	Upper  Value `json:"upper"`
	Middle Value `json:"middle"`
	Lower  Value `json:"lower"`
}

// Bollinger calculates Bollinger Bands over a trailing window using the
// population standard deviation. The first window-1 bars are not ready.
func Bollinger(closes []float64, window int, k float64) ([]Band, error) {
	name := fmt.Sprintf("BOLL(%d,%g)", window, k)
	if window <= 0 {
		return nil, invalidPeriod(name, window)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: %s width must be positive", ErrInvalidPeriod, name)
	}
	if len(closes) < window {
		return nil, insufficient(name, window, len(closes))
	}

	out := make([]Band, len(closes))
	for i := window - 1; i < len(closes); i++ {
		win := closes[i-window+1 : i+1]

		sum := 0.0
		for _, v := range win {
			sum += v
		}
		mean := sum / float64(window)

		variance := 0.0
		for _, v := range win {
			variance += (v - mean) * (v - mean)
		}
		sd := math.Sqrt(variance / float64(window))

		out[i] = Band{
			Upper:  Value{V: mean + k*sd, Ready: true},
			Middle: Value{V: mean, Ready: true},
			Lower:  Value{V: mean - k*sd, Ready: true},
		}
	}
	return out, nil
}
