package strategies

import (
	"fmt"

	"github.com/rustyeddy/gridsniper/indicators"
)

// Decision is the classifier output plus the values that justified it.
type Decision struct {
	Action  Action         `json:"action"`
	Reason  string         `json:"reason"`
	Profile string         `json:"profile"`
	Set     indicators.Set `json:"indicators"`
}

type rule struct {
	action Action
	match  func(s indicators.Set, p Profile) (bool, string)
}

// Rules in priority order: most urgent first. The first match wins.
var rules = []rule{
	{OverboughtSell, overbought},
	{StrongReboundBuy, strongRebound},
	{DipBuy, dipBuy},
	{BreakoutBuy, breakout},
}

// Classify maps the latest indicator set to one action. It has no side
// effects; callers decide whether to notify or act.
func Classify(s indicators.Set, p Profile) Decision {
	d := Decision{Profile: p.Name, Set: s}

	if !s.Ready() {
		d.Action = Hold
		d.Reason = "warming up"
		return d
	}

	for _, r := range rules {
		if ok, reason := r.match(s, p); ok {
			d.Action = r.action
			d.Reason = reason
			return d
		}
	}

	d.Action = Wait
	d.Reason = fmt.Sprintf("no rule matched (RSI %.2f)", s.RSI.V)
	return d
}

func overbought(s indicators.Set, p Profile) (bool, string) {
	if p.RSIHigh <= 0 || s.RSI.V < p.RSIHigh {
		return false, ""
	}
	return true, fmt.Sprintf("RSI %.2f >= %.2f", s.RSI.V, p.RSIHigh)
}

func strongRebound(s indicators.Set, p Profile) (bool, string) {
	if p.ReboundRSI <= 0 || s.RSI.V > p.ReboundRSI {
		return false, ""
	}
	if s.MACD.V <= s.MACDSignal.V {
		return false, ""
	}
	return true, fmt.Sprintf("RSI %.2f <= %.2f and MACD %.2f crossed above signal %.2f",
		s.RSI.V, p.ReboundRSI, s.MACD.V, s.MACDSignal.V)
}

func dipBuy(s indicators.Set, p Profile) (bool, string) {
	rsi := s.RSI.V
	if p.RSILow > 0 && rsi <= p.RSILow {
		return true, fmt.Sprintf("RSI %.2f <= %.2f", rsi, p.RSILow)
	}
	if p.RSIMid > 0 && rsi > p.RSILow && rsi <= p.RSIMid && s.Close > s.EMASlow.V {
		return true, fmt.Sprintf("RSI %.2f in (%.2f, %.2f] with price %.2f above slow EMA %.2f",
			rsi, p.RSILow, p.RSIMid, s.Close, s.EMASlow.V)
	}
	return false, ""
}

func breakout(s indicators.Set, p Profile) (bool, string) {
	if p.MomentumHigh <= 0 {
		return false, ""
	}
	rsi := s.RSI.V
	if s.Close <= s.EMAFast.V || s.MACD.V <= s.MACDSignal.V {
		return false, ""
	}
	if rsi < p.MomentumLow || rsi > p.MomentumHigh {
		return false, ""
	}
	return true, fmt.Sprintf("price %.2f above fast EMA %.2f, MACD above signal, RSI %.2f in [%.2f, %.2f]",
		s.Close, s.EMAFast.V, rsi, p.MomentumLow, p.MomentumHigh)
}
