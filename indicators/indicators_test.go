package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/gridsniper/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBars(n int) []market.Bar {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		// Rising trend with a wobble so both gains and losses occur.
		c := 40000 + float64(i)*25 + 300*math.Sin(float64(i)/3)
		bars[i] = market.Bar{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  c - 10,
			High:  c + 50,
			Low:   c - 50,
			Close: c,
		}
	}
	return bars
}

func TestRSIHandComputed(t *testing.T) {
	t.Parallel()

	got, err := RSI([]float64{1, 2, 3, 2}, 2)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.False(t, got[0].Ready)
	assert.False(t, got[1].Ready)
	assert.True(t, got[2].Ready)
	assert.InDelta(t, 100.0, got[2].V, 1e-9)
	assert.InDelta(t, 50.0, got[3].V, 1e-9)
}

func TestRSIMonotonic(t *testing.T) {
	t.Parallel()

	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
	}

	rUp, err := RSI(up, 14)
	require.NoError(t, err)
	rDown, err := RSI(down, 14)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, rUp[len(rUp)-1].V, 1e-9)
	assert.InDelta(t, 0.0, rDown[len(rDown)-1].V, 1e-9)
}

func TestRSIBounds(t *testing.T) {
	t.Parallel()

	closes := market.Closes(createTestBars(200))
	got, err := RSI(closes, 14)
	require.NoError(t, err)

	for i, v := range got {
		if !v.Ready {
			assert.Less(t, i, 14)
			continue
		}
		assert.GreaterOrEqual(t, v.V, 0.0)
		assert.LessOrEqual(t, v.V, 100.0)
	}
}

func TestRSIErrors(t *testing.T) {
	t.Parallel()

	_, err := RSI(nil, 14)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = RSI(make([]float64, 14), 14)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Contains(t, err.Error(), "RSI(14) needs 15 bars, got 14")

	_, err = RSI([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	got, err := EMA([]float64{1, 2, 3}, 3)
	require.NoError(t, err)

	// alpha = 0.5, seeded with the first value.
	assert.InDelta(t, 1.0, got[0].V, 1e-12)
	assert.InDelta(t, 1.5, got[1].V, 1e-12)
	assert.InDelta(t, 2.25, got[2].V, 1e-12)
	assert.False(t, got[1].Ready)
	assert.True(t, got[2].Ready)

	_, err = EMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = EMA([]float64{1, 2}, -1)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSMA(t *testing.T) {
	t.Parallel()

	closes := []float64{102, 105, 106, 108, 110, 111, 113, 114, 116, 118}
	ma, err := SMA(closes, 5)
	assert.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = SMA(closes[:3], 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACD(t *testing.T) {
	t.Parallel()

	flat := make([]float64, 10)
	for i := range flat {
		flat[i] = 50
	}
	got, err := MACD(flat, 3, 5, 2)
	require.NoError(t, err)

	assert.False(t, got[3].MACD.Ready)
	assert.True(t, got[4].MACD.Ready)
	assert.False(t, got[4].Signal.Ready)
	assert.True(t, got[5].Signal.Ready)
	assert.True(t, got[5].Histogram.Ready)
	for _, p := range got[5:] {
		assert.InDelta(t, 0.0, p.MACD.V, 1e-12)
		assert.InDelta(t, 0.0, p.Signal.V, 1e-12)
	}

	_, err = MACD(flat[:5], 3, 5, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = MACD(flat, 5, 3, 2)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestMACDRisingIsPositive(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got, err := MACD(closes, 12, 26, 9)
	require.NoError(t, err)

	last := got[len(got)-1]
	assert.Greater(t, last.MACD.V, 0.0)
	assert.True(t, last.Signal.Ready)
}

func TestMACDSignalSeededAtFirstReadyLine(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 11, 13, 12, 15, 17, 16, 18}
	got, err := MACD(closes, 3, 5, 2)
	require.NoError(t, err)

	// warm-up bars carry no signal value
	for _, p := range got[:4] {
		assert.Zero(t, p.Signal.V)
	}
	assert.Equal(t, got[4].MACD.V, got[4].Signal.V)
	assert.False(t, got[4].Signal.Ready)

	alpha := 2.0 / 3.0
	want := alpha*got[5].MACD.V + (1-alpha)*got[4].MACD.V
	assert.True(t, got[5].Signal.Ready)
	assert.InDelta(t, want, got[5].Signal.V, 1e-12)
}

func TestBollinger(t *testing.T) {
	t.Parallel()

	got, err := Bollinger([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	assert.False(t, got[0].Middle.Ready)
	assert.InDelta(t, 1.5, got[1].Middle.V, 1e-12)
	assert.InDelta(t, 2.5, got[1].Upper.V, 1e-12)
	assert.InDelta(t, 0.5, got[1].Lower.V, 1e-12)
	assert.InDelta(t, 3.5, got[3].Middle.V, 1e-12)

	_, err = Bollinger([]float64{1}, 2, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Bollinger([]float64{1, 2}, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestComputeLatestReady(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	bars := createTestBars(p.MinBars())

	set, err := Latest(bars, p)
	require.NoError(t, err)
	assert.True(t, set.Ready())
	assert.Equal(t, bars[len(bars)-1].Close, set.Close)
	assert.Equal(t, bars[len(bars)-1].Time, set.Time)
	assert.Greater(t, set.BollingerUpper.V, set.BollingerLower.V)
}

func TestComputeNoLookAhead(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	bars := createTestBars(120)

	full, err := Compute(bars, p)
	require.NoError(t, err)

	for _, k := range []int{60, 90, 119} {
		part, err := Compute(bars[:k], p)
		require.NoError(t, err)
		assert.Equal(t, full[k-1], part[k-1], "bar %d", k-1)
	}
}

func TestComputeInsufficient(t *testing.T) {
	t.Parallel()

	p := DefaultParams()

	_, err := Compute(nil, p)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Latest(createTestBars(p.MinBars()-1), p)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Params)
		errMsg string
	}{
		{"defaults", func(*Params) {}, ""},
		{"zero rsi", func(p *Params) { p.RSIPeriod = 0 }, "rsi_period must be positive"},
		{"fast >= slow", func(p *Params) { p.EMAFast = 60 }, "ema_fast must be less than ema_slow"},
		{"macd order", func(p *Params) { p.MACDFast = 30 }, "macd_fast must be less than macd_slow"},
		{"bollinger k", func(p *Params) { p.BollingerK = 0 }, "bollinger_k must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMinBars(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50, DefaultParams().MinBars())

	p := DefaultParams()
	p.EMASlow = 30
	// MACD 26+9-1 = 34 dominates.
	assert.Equal(t, 34, p.MinBars())
}
