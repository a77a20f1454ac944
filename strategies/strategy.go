// Package strategies classifies indicator readings into discrete trading
// actions using named threshold profiles.
package strategies

import (
	"fmt"
	"sort"
	"sync"
)

// Action is an advisory trading label.
type Action int

const (
	Wait Action = iota
	Hold
	BreakoutBuy
	DipBuy
	StrongReboundBuy
	OverboughtSell
)

func (a Action) String() string {
	switch a {
	case Hold:
		return "HOLD"
	case BreakoutBuy:
		return "BREAKOUT_BUY"
	case DipBuy:
		return "DIP_BUY"
	case StrongReboundBuy:
		return "STRONG_REBOUND_BUY"
	case OverboughtSell:
		return "OVERBOUGHT_SELL"
	default:
		return "WAIT"
	}
}

// IsActionable reports whether the action suggests doing something.
func (a Action) IsActionable() bool {
	switch a {
	case BreakoutBuy, DipBuy, StrongReboundBuy, OverboughtSell:
		return true
	}
	return false
}

// IsBuy reports whether the action suggests opening a position.
func (a Action) IsBuy() bool {
	return a == BreakoutBuy || a == DipBuy || a == StrongReboundBuy
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	for _, c := range []Action{Wait, Hold, BreakoutBuy, DipBuy, StrongReboundBuy, OverboughtSell} {
		if c.String() == string(b) {
			*a = c
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", string(b))
}

// Profile is a named, immutable set of classifier thresholds. Every profile
// runs the same rule chain; a zero threshold disables the rule it gates.
type Profile struct {
	Name string `json:"name" yaml:"name"`

	// RSILow fires dip-buy unconditionally; RSIMid extends it up to RSIMid
	// while price is above the slow EMA.
	RSILow float64 `json:"rsi_low" yaml:"rsi_low"`
	RSIMid float64 `json:"rsi_mid" yaml:"rsi_mid"`

	// RSIHigh fires overbought-sell regardless of trend.
	RSIHigh float64 `json:"rsi_high" yaml:"rsi_high"`

	// ReboundRSI fires strong-rebound-buy when RSI is at or below it and
	// MACD is above its signal line.
	ReboundRSI float64 `json:"rebound_rsi" yaml:"rebound_rsi"`

	// Momentum band for breakout-buy.
	MomentumLow  float64 `json:"momentum_low" yaml:"momentum_low"`
	MomentumHigh float64 `json:"momentum_high" yaml:"momentum_high"`
}

// Validate checks threshold ranges and ordering.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"rsi_low", p.RSILow},
		{"rsi_mid", p.RSIMid},
		{"rsi_high", p.RSIHigh},
		{"rebound_rsi", p.ReboundRSI},
		{"momentum_low", p.MomentumLow},
		{"momentum_high", p.MomentumHigh},
	} {
		if v.val < 0 || v.val > 100 {
			return fmt.Errorf("profile %s: %s must be within [0, 100], got %g", p.Name, v.name, v.val)
		}
	}
	if p.RSIMid > 0 && p.RSIMid < p.RSILow {
		return fmt.Errorf("profile %s: rsi_mid must be >= rsi_low", p.Name)
	}
	if p.RSIHigh > 0 && p.RSIHigh <= p.RSIMid {
		return fmt.Errorf("profile %s: rsi_high must be > rsi_mid", p.Name)
	}
	if p.MomentumHigh > 0 && p.MomentumLow > p.MomentumHigh {
		return fmt.Errorf("profile %s: momentum_low must be <= momentum_high", p.Name)
	}
	if p.RSILow == 0 && p.RSIMid == 0 && p.RSIHigh == 0 && p.ReboundRSI == 0 && p.MomentumHigh == 0 {
		return fmt.Errorf("profile %s: every rule is disabled", p.Name)
	}
	return nil
}

// Built-in profiles.
var (
	Sniper = Profile{
		Name:         "sniper",
		RSILow:       30,
		RSIMid:       45,
		RSIHigh:      70,
		ReboundRSI:   25,
		MomentumLow:  50,
		MomentumHigh: 65,
	}

	DipBuyer = Profile{
		Name:       "dip-buy",
		RSILow:     30,
		RSIMid:     45,
		RSIHigh:    70,
		ReboundRSI: 20,
	}

	Breakout = Profile{
		Name:         "breakout",
		RSIHigh:      75,
		MomentumLow:  55,
		MomentumHigh: 70,
	}
)

const DefaultProfile = "sniper"

var (
	mu       sync.RWMutex
	registry = map[string]Profile{
		Sniper.Name:   Sniper,
		DipBuyer.Name: DipBuyer,
		Breakout.Name: Breakout,
	}
)

// Register adds or replaces a profile after validating it.
func Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	registry[p.Name] = p
	return nil
}

// GetProfile returns the named profile.
func GetProfile(name string) (Profile, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown strategy profile %q", name)
	}
	return p, nil
}

// Profiles lists registered profile names in sorted order.
func Profiles() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
