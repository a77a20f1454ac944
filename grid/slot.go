package grid

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a slot: Empty -> Active -> Empty.
type Status int

const (
	Empty Status = iota
	Active
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	default:
		return "empty"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "empty":
		*s = Empty
	case "active":
		*s = Active
	default:
		return fmt.Errorf("unknown slot status %q", string(b))
	}
	return nil
}

// Slot is one grid position. Index is 1-based.
type Slot struct {
	Index      int       `json:"index"`
	Status     Status    `json:"status"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	OpenedAt   time.Time `json:"opened_at"`
}

func (s Slot) IsActive() bool { return s.Status == Active }

// ClosedTrade is an append-only history record of a closed slot.
type ClosedTrade struct {
	ID             string    `json:"id"`
	Ticker         string    `json:"ticker"`
	Slot           int       `json:"slot"`
	EntryPrice     float64   `json:"entry_price"`
	ExitPrice      float64   `json:"exit_price"`
	Quantity       float64   `json:"quantity"`
	RealizedProfit float64   `json:"realized_profit"`
	OpenedAt       time.Time `json:"opened_at"`
	ClosedAt       time.Time `json:"closed_at"`
}
