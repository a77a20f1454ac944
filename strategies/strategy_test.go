package strategies

import (
	"testing"

	"github.com/rustyeddy/gridsniper/indicators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ready(v float64) indicators.Value { return indicators.Value{V: v, Ready: true} }

// readySet builds a fully warmed-up set; callers override the fields they
// care about.
func readySet(close, rsi float64) indicators.Set {
	return indicators.Set{
		Close:           close,
		RSI:             ready(rsi),
		EMAFast:         ready(close),
		EMASlow:         ready(close),
		MACD:            ready(0),
		MACDSignal:      ready(0),
		BollingerUpper:  ready(close + 100),
		BollingerMiddle: ready(close),
		BollingerLower:  ready(close - 100),
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile Profile
		set     func() indicators.Set
		want    Action
	}{
		{
			name:    "warming up holds",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 20)
				s.EMASlow.Ready = false
				return s
			},
			want: Hold,
		},
		{
			name:    "overbought regardless of trend",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 75)
				s.EMASlow = ready(200)
				return s
			},
			want: OverboughtSell,
		},
		{
			name:    "strong rebound beats dip",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 22)
				s.MACD = ready(1)
				return s
			},
			want: StrongReboundBuy,
		},
		{
			name:    "deep dip without macd turn",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 22)
				s.MACD = ready(-1)
				return s
			},
			want: DipBuy,
		},
		{
			name:    "mid dip in uptrend",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 40)
				s.EMASlow = ready(90)
				return s
			},
			want: DipBuy,
		},
		{
			name:    "mid dip in downtrend waits",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 40)
				s.EMASlow = ready(110)
				return s
			},
			want: Wait,
		},
		{
			name:    "breakout",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 60)
				s.EMAFast = ready(95)
				s.MACD = ready(2)
				s.MACDSignal = ready(1)
				return s
			},
			want: BreakoutBuy,
		},
		{
			name:    "breakout outside momentum band",
			profile: Sniper,
			set: func() indicators.Set {
				s := readySet(100, 68)
				s.EMAFast = ready(95)
				s.MACD = ready(2)
				s.MACDSignal = ready(1)
				return s
			},
			want: Wait,
		},
		{
			name:    "breakout profile ignores dips",
			profile: Breakout,
			set: func() indicators.Set {
				return readySet(100, 10)
			},
			want: Wait,
		},
		{
			name:    "dip profile ignores breakouts",
			profile: DipBuyer,
			set: func() indicators.Set {
				s := readySet(100, 60)
				s.EMAFast = ready(95)
				s.MACD = ready(2)
				s.MACDSignal = ready(1)
				return s
			},
			want: Wait,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.set(), tt.profile)
			assert.Equal(t, tt.want, d.Action, d.Reason)
			assert.Equal(t, tt.profile.Name, d.Profile)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestClassifyPure(t *testing.T) {
	t.Parallel()

	s := readySet(100, 75)
	a := Classify(s, Sniper)
	b := Classify(s, Sniper)
	assert.Equal(t, a, b)
	assert.Equal(t, s, a.Set)
}

func TestActionText(t *testing.T) {
	t.Parallel()

	for _, a := range []Action{Wait, Hold, BreakoutBuy, DipBuy, StrongReboundBuy, OverboughtSell} {
		b, err := a.MarshalText()
		require.NoError(t, err)

		var got Action
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, a, got)
	}

	var a Action
	assert.Error(t, a.UnmarshalText([]byte("MOON")))

	assert.True(t, DipBuy.IsActionable())
	assert.True(t, DipBuy.IsBuy())
	assert.True(t, OverboughtSell.IsActionable())
	assert.False(t, OverboughtSell.IsBuy())
	assert.False(t, Wait.IsActionable())
	assert.False(t, Hold.IsActionable())
}

func TestRegistry(t *testing.T) {
	p, err := GetProfile(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, Sniper, p)

	_, err = GetProfile("nope")
	assert.Error(t, err)

	custom := Profile{Name: "test-custom", RSILow: 25, RSIHigh: 80}
	require.NoError(t, Register(custom))
	got, err := GetProfile("test-custom")
	require.NoError(t, err)
	assert.Equal(t, custom, got)
	assert.Contains(t, Profiles(), "test-custom")

	assert.Error(t, Register(Profile{Name: "bad", RSILow: 120}))
}

func TestProfileValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile Profile
		errMsg  string
	}{
		{"sniper", Sniper, ""},
		{"dip", DipBuyer, ""},
		{"breakout", Breakout, ""},
		{"no name", Profile{RSILow: 30}, "name is required"},
		{"out of range", Profile{Name: "x", RSIHigh: 101}, "rsi_high must be within"},
		{"mid below low", Profile{Name: "x", RSILow: 40, RSIMid: 30}, "rsi_mid must be >= rsi_low"},
		{"high below mid", Profile{Name: "x", RSILow: 30, RSIMid: 60, RSIHigh: 50}, "rsi_high must be > rsi_mid"},
		{"momentum order", Profile{Name: "x", MomentumLow: 70, MomentumHigh: 60}, "momentum_low must be <= momentum_high"},
		{"all disabled", Profile{Name: "x"}, "every rule is disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
