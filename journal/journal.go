// Package journal keeps a durable record of closed grid slots, separate from
// the ledger file, for reporting and review.
package journal

import (
	"errors"
	"time"
)

var ErrTradeNotFound = errors.New("trade not found")

// TradeRecord is one closed slot: a round trip from open to close.
type TradeRecord struct {
	TradeID    string
	Ticker     string
	Slot       int
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}

// Summary aggregates realized results over a set of trades.
type Summary struct {
	Trades      int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	Net         float64
}

// ProfitFactor is GrossProfit / GrossLoss, or 0 when there are no losses.
func (s Summary) ProfitFactor() float64 {
	if s.GrossLoss == 0 {
		return 0
	}
	return s.GrossProfit / s.GrossLoss
}

// Summarize folds trades into a Summary. Break-even trades count as neither
// wins nor losses.
func Summarize(trades []TradeRecord) Summary {
	var s Summary
	for _, t := range trades {
		s.Trades++
		switch {
		case t.RealizedPL > 0:
			s.Wins++
			s.GrossProfit += t.RealizedPL
		case t.RealizedPL < 0:
			s.Losses++
			s.GrossLoss += -t.RealizedPL
		}
		s.Net += t.RealizedPL
	}
	return s
}
