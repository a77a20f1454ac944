package indicators

import (
	"fmt"
	"time"

	"github.com/rustyeddy/gridsniper/market"
)

// Params selects the periods used to build a Set.
type Params struct {
	RSIPeriod       int     `json:"rsi_period" yaml:"rsi_period"`
	EMAFast         int     `json:"ema_fast" yaml:"ema_fast"`
	EMASlow         int     `json:"ema_slow" yaml:"ema_slow"`
	MACDFast        int     `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow        int     `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal      int     `json:"macd_signal" yaml:"macd_signal"`
	BollingerWindow int     `json:"bollinger_window" yaml:"bollinger_window"`
	BollingerK      float64 `json:"bollinger_k" yaml:"bollinger_k"`
}

func DefaultParams() Params {
	return Params{
		RSIPeriod:       14,
		EMAFast:         20,
		EMASlow:         50,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerWindow: 20,
		BollingerK:      2,
	}
}

// Validate checks that every period is usable.
func (p Params) Validate() error {
	checks := []struct {
		name string
		v    int
	}{
		{"rsi_period", p.RSIPeriod},
		{"ema_fast", p.EMAFast},
		{"ema_slow", p.EMASlow},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"bollinger_window", p.BollingerWindow},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidPeriod, c.name, c.v)
		}
	}
	if p.EMAFast >= p.EMASlow {
		return fmt.Errorf("%w: ema_fast must be less than ema_slow", ErrInvalidPeriod)
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("%w: macd_fast must be less than macd_slow", ErrInvalidPeriod)
	}
	if p.BollingerK <= 0 {
		return fmt.Errorf("%w: bollinger_k must be positive", ErrInvalidPeriod)
	}
	return nil
}

// MinBars is the shortest series for which every indicator in the set has
// at least one ready value.
func (p Params) MinBars() int {
	need := p.RSIPeriod + 1
	for _, n := range []int{p.EMAFast, p.EMASlow, p.MACDSlow + p.MACDSignal - 1, p.BollingerWindow} {
		if n > need {
			need = n
		}
	}
	return need
}

// Set holds every indicator value for a single bar.
type Set struct {
	Time            time.Time `json:"time"`
	Close           float64   `json:"close"`
	RSI             Value     `json:"rsi"`
	EMAFast         Value     `json:"ema_fast"`
	EMASlow         Value     `json:"ema_slow"`
	MACD            Value     `json:"macd"`
	MACDSignal      Value     `json:"macd_signal"`
	BollingerUpper  Value     `json:"bollinger_upper"`
	BollingerMiddle Value     `json:"bollinger_middle"`
	BollingerLower  Value     `json:"bollinger_lower"`
}

// Ready reports whether every value in the set is past its warm-up.
func (s Set) Ready() bool {
	for _, v := range []Value{s.RSI, s.EMAFast, s.EMASlow, s.MACD, s.MACDSignal,
		s.BollingerUpper, s.BollingerMiddle, s.BollingerLower} {
		if !v.Ready {
			return false
		}
	}
	return true
}

// Compute builds one Set per bar.
func Compute(bars []market.Bar, p Params) ([]Set, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if need := p.MinBars(); len(bars) < need {
		return nil, insufficient("indicator set", need, len(bars))
	}

	closes := market.Closes(bars)

	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, err
	}
	fast, err := EMA(closes, p.EMAFast)
	if err != nil {
		return nil, err
	}
	slow, err := EMA(closes, p.EMASlow)
	if err != nil {
		return nil, err
	}
	macd, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, err
	}
	boll, err := Bollinger(closes, p.BollingerWindow, p.BollingerK)
	if err != nil {
		return nil, err
	}

	out := make([]Set, len(bars))
	for i, b := range bars {
		out[i] = Set{
			Time:            b.Time,
			Close:           b.Close,
			RSI:             rsi[i],
			EMAFast:         fast[i],
			EMASlow:         slow[i],
			MACD:            macd[i].MACD,
			MACDSignal:      macd[i].Signal,
			BollingerUpper:  boll[i].Upper,
			BollingerMiddle: boll[i].Middle,
			BollingerLower:  boll[i].Lower,
		}
	}
	return out, nil
}

// Latest returns the Set for the most recent bar.
func Latest(bars []market.Bar, p Params) (Set, error) {
	sets, err := Compute(bars, p)
	if err != nil {
		return Set{}, err
	}
	return sets[len(sets)-1], nil
}
