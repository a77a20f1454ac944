package grid

import (
	"errors"
	"fmt"
)

var (
	ErrSlotNotNext      = errors.New("slot is not the next slot to open")
	ErrSlotNotActive    = errors.New("slot is not active")
	ErrLedgerFull       = errors.New("ledger is full")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrCapitalExhausted = errors.New("current capital is not positive")

	// ErrPersistenceWrite means the mutation was not made durable; the
	// in-memory ledger keeps its last known good state.
	ErrPersistenceWrite = errors.New("persistence write failed")

	ErrServiceStopped = errors.New("ledger service stopped")
)

// OpError records which ledger operation failed, on which ticker and slot.
type OpError struct {
	Op     string
	Ticker string
	Slot   int
	Err    error
}

func (e *OpError) Error() string {
	target := e.Ticker
	if e.Slot > 0 {
		target = fmt.Sprintf("slot %d on %s", e.Slot, e.Ticker)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (l *Ledger) opErr(op string, slot int, err error) error {
	return &OpError{Op: op, Ticker: l.cfg.Ticker, Slot: slot, Err: err}
}
