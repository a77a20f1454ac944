package grid

import (
	"fmt"
	"time"

	"github.com/rustyeddy/gridsniper/internal/id"
)

// Ledger owns the grid slots, the closed-trade history and the accumulated
// realized profit. A Ledger is not safe for concurrent use; Service
// serializes access to it.
//
// Every rejected operation returns before any field is touched.
type Ledger struct {
	cfg     Config
	slots   []Slot
	profit  float64
	history []ClosedTrade

	now   func() time.Time
	newID func() string
}

type Option func(*Ledger)

// WithClock overrides the time source used for openedAt/closedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs overrides the closed-trade ID generator.
func WithIDs(f func() string) Option {
	return func(l *Ledger) { l.newID = f }
}

// NewLedger returns an empty ledger: all slots Empty, zero profit.
func NewLedger(cfg Config, opts ...Option) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		cfg:   cfg,
		slots: emptySlots(cfg.Capacity),
		now:   time.Now,
		newID: id.New,
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func emptySlots(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot{Index: i + 1}
	}
	return slots
}

func (l *Ledger) Config() Config { return l.cfg }

func (l *Ledger) Ticker() string { return l.cfg.Ticker }

// Slots returns a copy of the slots.
func (l *Ledger) Slots() []Slot {
	out := make([]Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

// Slot returns slot index (1-based).
func (l *Ledger) Slot(index int) (Slot, bool) {
	if index < 1 || index > len(l.slots) {
		return Slot{}, false
	}
	return l.slots[index-1], true
}

// History returns a copy of the closed-trade history.
func (l *Ledger) History() []ClosedTrade {
	out := make([]ClosedTrade, len(l.history))
	copy(out, l.history)
	return out
}

func (l *Ledger) AccumulatedProfit() float64 { return l.profit }

// CurrentCapital is base capital plus accumulated realized profit.
func (l *Ledger) CurrentCapital() float64 {
	return addMoney(l.cfg.BaseCapital, l.profit)
}

// ActiveCount returns the number of Active slots.
func (l *Ledger) ActiveCount() int {
	n := 0
	for _, s := range l.slots {
		if s.IsActive() {
			n++
		}
	}
	return n
}

// NextActiveSlotIndex is the count of contiguous Active slots from index 1,
// plus one. ok is false when every slot is Active.
func (l *Ledger) NextActiveSlotIndex() (int, bool) {
	for i, s := range l.slots {
		if !s.IsActive() {
			return i + 1, true
		}
	}
	return 0, false
}

// NextTriggerPrice is the price at which the next slot should be opened.
// With no contiguous Active slots it is marketPrice - EntryOffset; otherwise
// it is the last contiguous Active entry price minus the gap into the next
// slot. The result is rounded to the price increment.
func (l *Ledger) NextTriggerPrice(marketPrice float64) (float64, error) {
	next, ok := l.NextActiveSlotIndex()
	if !ok {
		return 0, l.opErr("next trigger", 0, ErrLedgerFull)
	}

	if !validPrice(marketPrice) {
		return 0, l.opErr("next trigger", next, ErrInvalidPrice)
	}
	if next == 1 {
		return RoundToIncrement(marketPrice-l.cfg.EntryOffset, l.cfg.PriceIncrement), nil
	}

	last := l.slots[next-2]
	return RoundToIncrement(last.EntryPrice-l.cfg.gap(next), l.cfg.PriceIncrement), nil
}

// TargetExitPrice is entry + MinProfitPerSlot + SpreadBuffer, rounded. It is
// advisory and never blocks Close.
func (l *Ledger) TargetExitPrice(index int) (float64, error) {
	s, ok := l.Slot(index)
	if !ok || !s.IsActive() {
		return 0, l.opErr("target exit", index, ErrSlotNotActive)
	}
	return RoundToIncrement(s.EntryPrice+l.cfg.MinProfitPerSlot+l.cfg.SpreadBuffer, l.cfg.PriceIncrement), nil
}

// Open activates slot index at marketPrice, sizing it with the whole current
// capital.
func (l *Ledger) Open(index int, marketPrice float64) (Slot, error) {
	next, ok := l.NextActiveSlotIndex()
	if !ok {
		return Slot{}, l.opErr("open", index, ErrLedgerFull)
	}
	if index != next {
		return Slot{}, l.opErr("open", index, fmt.Errorf("%w (next is %d)", ErrSlotNotNext, next))
	}
	if !validPrice(marketPrice) {
		return Slot{}, l.opErr("open", index, ErrInvalidPrice)
	}
	capital := l.CurrentCapital()
	if capital <= 0 {
		return Slot{}, l.opErr("open", index, fmt.Errorf("%w (%.2f)", ErrCapitalExhausted, capital))
	}

	s := Slot{
		Index:      index,
		Status:     Active,
		EntryPrice: marketPrice,
		Quantity:   capital / marketPrice,
		OpenedAt:   l.now().UTC(),
	}
	l.slots[index-1] = s
	return s, nil
}

// Close realizes (marketPrice - SpreadBuffer - entry) * quantity, appends it
// to history and empties the slot. Losses are realized the same way.
func (l *Ledger) Close(index int, marketPrice float64) (ClosedTrade, error) {
	s, ok := l.Slot(index)
	if !ok || !s.IsActive() {
		return ClosedTrade{}, l.opErr("close", index, ErrSlotNotActive)
	}
	if !validPrice(marketPrice) {
		return ClosedTrade{}, l.opErr("close", index, ErrInvalidPrice)
	}

	ct := ClosedTrade{
		ID:             l.newID(),
		Ticker:         l.cfg.Ticker,
		Slot:           index,
		EntryPrice:     s.EntryPrice,
		ExitPrice:      marketPrice,
		Quantity:       s.Quantity,
		RealizedProfit: realizedProfit(marketPrice, l.cfg.SpreadBuffer, s.EntryPrice, s.Quantity),
		OpenedAt:       s.OpenedAt,
		ClosedAt:       l.now().UTC(),
	}

	l.history = append(l.history, ct)
	l.profit = addMoney(l.profit, ct.RealizedProfit)
	l.slots[index-1] = Slot{Index: index}
	return ct, nil
}

// Reset empties every slot and clears history and profit. Configuration is
// kept.
func (l *Ledger) Reset() {
	l.slots = emptySlots(l.cfg.Capacity)
	l.history = nil
	l.profit = 0
}

// Clone returns a deep copy sharing configuration, clock and ID source.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.slots = l.Slots()
	c.history = l.History()
	return &c
}
