package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.With().Str("component", "notify").Logger()}
}

// NewLogNotifierWith logs through the given logger.
func NewLogNotifierWith(l zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Send(ctx context.Context, e Event) error {
	ev := n.logger.Info()
	if e.Kind == KindWarning {
		ev = n.logger.Warn()
	}
	ev.Str("kind", string(e.Kind)).
		Str("ticker", e.Ticker).
		Int("slot", e.Slot).
		Str("action", e.Action).
		Float64("price", e.Price).
		Msg(e.Text())
	return nil
}
