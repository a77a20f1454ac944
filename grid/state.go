package grid

import (
	"fmt"
	"time"
)

// StateVersion is the current persisted layout version.
const StateVersion = 1

// State is the persisted form of a Ledger.
type State struct {
	Version           int           `json:"version"`
	Ticker            string        `json:"ticker"`
	BaseCapital       float64       `json:"base_capital"`
	AccumulatedProfit float64       `json:"accumulated_profit"`
	Slots             []Slot        `json:"slots"`
	History           []ClosedTrade `json:"history"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Snapshot captures the ledger as a State.
func (l *Ledger) Snapshot() State {
	return State{
		Version:           StateVersion,
		Ticker:            l.cfg.Ticker,
		BaseCapital:       l.cfg.BaseCapital,
		AccumulatedProfit: l.profit,
		Slots:             l.Slots(),
		History:           l.History(),
		UpdatedAt:         l.now().UTC(),
	}
}

// FreshState is the state of a new, empty ledger.
func FreshState(cfg Config) State {
	return State{
		Version:     StateVersion,
		Ticker:      cfg.Ticker,
		BaseCapital: cfg.BaseCapital,
		Slots:       emptySlots(cfg.Capacity),
		History:     []ClosedTrade{},
	}
}

// Validate checks a state's structural invariants on its own.
func (s State) Validate() error {
	if s.Version != StateVersion {
		return fmt.Errorf("unsupported state version %d", s.Version)
	}
	if len(s.Slots) == 0 {
		return fmt.Errorf("state has no slots")
	}
	for i, slot := range s.Slots {
		if slot.Index != i+1 {
			return fmt.Errorf("slot %d has index %d", i+1, slot.Index)
		}
		switch slot.Status {
		case Active:
			if slot.EntryPrice <= 0 || slot.Quantity <= 0 {
				return fmt.Errorf("active slot %d needs positive entry price and quantity", slot.Index)
			}
			if slot.OpenedAt.IsZero() {
				return fmt.Errorf("active slot %d has no open time", slot.Index)
			}
		case Empty:
			if slot.EntryPrice != 0 || slot.Quantity != 0 {
				return fmt.Errorf("empty slot %d carries a position", slot.Index)
			}
		}
	}
	for i, ct := range s.History {
		if ct.Slot < 1 || ct.Slot > len(s.Slots) {
			return fmt.Errorf("history[%d] refers to slot %d", i, ct.Slot)
		}
	}
	return nil
}

// CheckConfig reports whether the state can be restored under cfg.
func (s State) CheckConfig(cfg Config) error {
	if len(s.Slots) != cfg.Capacity {
		return fmt.Errorf("state has %d slots, configured capacity is %d", len(s.Slots), cfg.Capacity)
	}
	if s.Ticker != "" && s.Ticker != cfg.Ticker {
		return fmt.Errorf("state is for ticker %s, configured ticker is %s", s.Ticker, cfg.Ticker)
	}
	return nil
}

// Restore rebuilds a ledger from a persisted state. Base capital always
// comes from cfg.
func Restore(cfg Config, s State, opts ...Option) (*Ledger, error) {
	l, err := NewLedger(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := s.CheckConfig(cfg); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	l.slots = make([]Slot, len(s.Slots))
	copy(l.slots, s.Slots)
	l.history = make([]ClosedTrade, len(s.History))
	copy(l.history, s.History)
	l.profit = s.AccumulatedProfit
	return l, nil
}

// CurrentCapital is base capital plus accumulated profit.
func (s State) CurrentCapital() float64 {
	return addMoney(s.BaseCapital, s.AccumulatedProfit)
}

// ActiveCount returns the number of Active slots.
func (s State) ActiveCount() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.IsActive() {
			n++
		}
	}
	return n
}

// NextSlot is the index the next Open must use; ok is false when full.
func (s State) NextSlot() (int, bool) {
	for i, slot := range s.Slots {
		if !slot.IsActive() {
			return i + 1, true
		}
	}
	return 0, false
}
