// Package notify delivers ledger and signal events to external channels.
// Delivery is fire-and-forget: failures are logged and counted, never
// propagated back to the ledger.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies what happened.
type Kind string

const (
	KindOpen    Kind = "open"
	KindClose   Kind = "close"
	KindReset   Kind = "reset"
	KindSignal  Kind = "signal"
	KindWarning Kind = "warning"
)

// Event is a structured notification.
type Event struct {
	Kind    Kind      `json:"kind"`
	Ticker  string    `json:"ticker"`
	Slot    int       `json:"slot,omitempty"`
	Action  string    `json:"action,omitempty"`
	Price   float64   `json:"price,omitempty"`
	Profit  float64   `json:"profit,omitempty"`
	Time    time.Time `json:"time"`
	Message string    `json:"message,omitempty"`
}

// Text renders the plain-text payload.
func (e Event) Text() string {
	parts := []string{fmt.Sprintf("[%s] %s", strings.ToUpper(string(e.Kind)), e.Ticker)}
	if e.Slot > 0 {
		parts = append(parts, fmt.Sprintf("slot %d", e.Slot))
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	if e.Price != 0 {
		parts = append(parts, fmt.Sprintf("@ %.2f", e.Price))
	}
	if e.Kind == KindClose {
		parts = append(parts, fmt.Sprintf("profit %.2f", e.Profit))
	}
	if e.Message != "" {
		parts = append(parts, "- "+e.Message)
	}
	parts = append(parts, e.Time.UTC().Format(time.RFC3339))
	return strings.Join(parts, " ")
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an event. Returns error if delivery fails.
	Send(ctx context.Context, e Event) error
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
