package grid

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/gridsniper/journal"
	"github.com/rustyeddy/gridsniper/metrics"
	"github.com/rustyeddy/gridsniper/notify"
)

// Saver makes a ledger state durable.
type Saver interface {
	Save(State) error
}

// TradeRecorder mirrors closed trades into the journal.
type TradeRecorder interface {
	RecordTrade(journal.TradeRecord) error
}

// EventSink receives ledger events. Notify must not block.
type EventSink interface {
	Notify(notify.Event)
}

type ServiceOption func(*Service)

func WithTradeRecorder(r TradeRecorder) ServiceOption {
	return func(s *Service) { s.trades = r }
}

func WithEvents(e EventSink) ServiceOption {
	return func(s *Service) { s.events = e }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Service is the single writer for one ledger. Run owns the ledger; every
// other method sends a request to Run and waits for its reply.
//
// A mutation is applied to a clone, the clone is saved, and only then does
// it replace the live ledger.
type Service struct {
	ledger  *Ledger
	saver   Saver
	trades  TradeRecorder
	events  EventSink
	metrics *metrics.Metrics
	log     zerolog.Logger

	reqs chan request
	done chan struct{}
}

type request struct {
	op     string
	mutate bool
	fn     func(*Ledger) (any, error)
	// commit runs on the Run goroutine after a successful save.
	commit func(any)
	reply  chan response
}

type response struct {
	v   any
	err error
}

func NewService(l *Ledger, saver Saver, opts ...ServiceOption) *Service {
	s := &Service{
		ledger: l,
		saver:  saver,
		log:    log.With().Str("component", "ledger").Str("ticker", l.Ticker()).Logger(),
		reqs:   make(chan request),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ticker is immutable and safe to read without going through Run.
func (s *Service) Ticker() string { return s.ledger.cfg.Ticker }

// Config returns the ledger configuration.
func (s *Service) Config() Config { return s.ledger.cfg }

// Run serves requests until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.done)
	s.metrics.LedgerState(s.ledger.ActiveCount(), s.ledger.AccumulatedProfit())
	s.log.Info().Int("active", s.ledger.ActiveCount()).Float64("profit", s.ledger.AccumulatedProfit()).Msg("ledger service started")

	for {
		select {
		case req := <-s.reqs:
			req.reply <- s.handle(req)
		case <-ctx.Done():
			s.log.Info().Msg("ledger service stopped")
			return ctx.Err()
		}
	}
}

func (s *Service) handle(req request) response {
	if !req.mutate {
		v, err := req.fn(s.ledger)
		return response{v: v, err: err}
	}

	next := s.ledger.Clone()
	v, err := req.fn(next)
	if err != nil {
		s.metrics.LedgerOp(req.op, metrics.ResultRejected)
		s.log.Debug().Err(err).Str("op", req.op).Msg("rejected")
		return response{err: err}
	}

	if err := s.saver.Save(next.Snapshot()); err != nil {
		s.metrics.LedgerOp(req.op, metrics.ResultError)
		s.log.Error().Err(err).Str("op", req.op).Msg("save failed, keeping last good state")
		return response{err: &OpError{
			Op:     req.op,
			Ticker: next.cfg.Ticker,
			Err:    fmt.Errorf("%w: %w", ErrPersistenceWrite, err),
		}}
	}

	s.ledger = next
	s.metrics.LedgerOp(req.op, metrics.ResultOK)
	s.metrics.LedgerState(next.ActiveCount(), next.AccumulatedProfit())
	if req.commit != nil {
		req.commit(v)
	}
	return response{v: v}
}

func (s *Service) do(ctx context.Context, req request) (any, error) {
	req.reply = make(chan response, 1)
	select {
	case s.reqs <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrServiceStopped
	}
	// once accepted the request may commit, so the reply is always awaited
	r := <-req.reply
	return r.v, r.err
}

// Open activates slot index at price.
func (s *Service) Open(ctx context.Context, index int, price float64) (Slot, error) {
	v, err := s.do(ctx, request{
		op:     "open",
		mutate: true,
		fn:     func(l *Ledger) (any, error) { return l.Open(index, price) },
		commit: func(v any) {
			slot := v.(Slot)
			s.log.Info().Int("slot", slot.Index).Float64("price", slot.EntryPrice).Float64("quantity", slot.Quantity).Msg("slot opened")
			s.emit(notify.Event{Kind: notify.KindOpen, Slot: slot.Index, Price: slot.EntryPrice, Time: slot.OpenedAt})
		},
	})
	if err != nil {
		return Slot{}, err
	}
	return v.(Slot), nil
}

// Close realizes slot index at price.
func (s *Service) Close(ctx context.Context, index int, price float64) (ClosedTrade, error) {
	v, err := s.do(ctx, request{
		op:     "close",
		mutate: true,
		fn:     func(l *Ledger) (any, error) { return l.Close(index, price) },
		commit: func(v any) {
			ct := v.(ClosedTrade)
			s.log.Info().Int("slot", ct.Slot).Float64("price", ct.ExitPrice).Float64("profit", ct.RealizedProfit).Msg("slot closed")
			s.record(ct)
			s.emit(notify.Event{Kind: notify.KindClose, Slot: ct.Slot, Price: ct.ExitPrice, Profit: ct.RealizedProfit, Time: ct.ClosedAt})
		},
	})
	if err != nil {
		return ClosedTrade{}, err
	}
	return v.(ClosedTrade), nil
}

// Reset empties the ledger and clears history and profit.
func (s *Service) Reset(ctx context.Context) error {
	_, err := s.do(ctx, request{
		op:     "reset",
		mutate: true,
		fn: func(l *Ledger) (any, error) {
			l.Reset()
			return nil, nil
		},
		commit: func(any) {
			s.log.Warn().Msg("ledger reset")
			s.emit(notify.Event{Kind: notify.KindReset, Message: "ledger reset", Time: s.ledger.now().UTC()})
		},
	})
	return err
}

// Snapshot returns the current state.
func (s *Service) Snapshot(ctx context.Context) (State, error) {
	v, err := s.do(ctx, request{
		op: "snapshot",
		fn: func(l *Ledger) (any, error) { return l.Snapshot(), nil },
	})
	if err != nil {
		return State{}, err
	}
	return v.(State), nil
}

func (s *Service) NextTriggerPrice(ctx context.Context, marketPrice float64) (float64, error) {
	v, err := s.do(ctx, request{
		op: "next trigger",
		fn: func(l *Ledger) (any, error) { return l.NextTriggerPrice(marketPrice) },
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (s *Service) TargetExitPrice(ctx context.Context, index int) (float64, error) {
	v, err := s.do(ctx, request{
		op: "target exit",
		fn: func(l *Ledger) (any, error) { return l.TargetExitPrice(index) },
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (s *Service) record(ct ClosedTrade) {
	if s.trades == nil {
		return
	}
	if err := s.trades.RecordTrade(JournalRecord(ct)); err != nil {
		s.log.Error().Err(err).Str("trade_id", ct.ID).Int("slot", ct.Slot).Msg("journal write failed")
	}
}

func (s *Service) emit(e notify.Event) {
	if s.events == nil {
		return
	}
	e.Ticker = s.ledger.cfg.Ticker
	s.events.Notify(e)
}

// JournalRecord converts a closed trade to its journal form.
func JournalRecord(ct ClosedTrade) journal.TradeRecord {
	return journal.TradeRecord{
		TradeID:    ct.ID,
		Ticker:     ct.Ticker,
		Slot:       ct.Slot,
		Quantity:   ct.Quantity,
		EntryPrice: ct.EntryPrice,
		ExitPrice:  ct.ExitPrice,
		OpenTime:   ct.OpenedAt,
		CloseTime:  ct.ClosedAt,
		RealizedPL: ct.RealizedProfit,
	}
}
