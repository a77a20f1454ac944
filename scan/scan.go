// Package scan evaluates many tickers in parallel: fetch bars, compute
// indicators, classify. One ticker failing never aborts the batch.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/gridsniper/indicators"
	"github.com/rustyeddy/gridsniper/market"
	"github.com/rustyeddy/gridsniper/metrics"
	"github.com/rustyeddy/gridsniper/notify"
	"github.com/rustyeddy/gridsniper/publish"
	"github.com/rustyeddy/gridsniper/strategies"
)

// Kind classifies a scan failure so callers can react differently to a
// short series, bad data and an unreachable source.
type Kind string

const (
	KindNone             Kind = ""
	KindInsufficientData Kind = "insufficient_data"
	KindUnknownTicker    Kind = "unknown_ticker"
	KindParse            Kind = "parse"
	KindTimeout          Kind = "timeout"
	KindTransport        Kind = "transport"
)

// ErrorKind maps an error from a scan to its Kind.
func ErrorKind(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, indicators.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, market.ErrUnknownTicker):
		return KindUnknownTicker
	case errors.Is(err, market.ErrParse):
		return KindParse
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindTransport
	}
}

// Result is the outcome for one ticker.
type Result struct {
	Ticker   string
	Decision strategies.Decision
	Err      error
	Kind     Kind
	Duration time.Duration
}

// Label is the action name on success or the failure kind.
func (r Result) Label() string {
	if r.Err != nil {
		return string(r.Kind)
	}
	return r.Decision.Action.String()
}

// Config tunes a Scanner.
type Config struct {
	// Workers bounds how many tickers are evaluated at once.
	Workers int `json:"workers" yaml:"workers"`

	// Timeout bounds each ticker's fetch and evaluation.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// RatePerSecond limits requests to the market source; 0 disables it.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `json:"burst" yaml:"burst"`

	// Interval is the pause between scans in Loop.
	Interval time.Duration `json:"interval" yaml:"interval"`
}

func DefaultConfig() Config {
	return Config{
		Workers:       4,
		Timeout:       10 * time.Second,
		RatePerSecond: 5,
		Burst:         5,
		Interval:      5 * time.Minute,
	}
}

func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be positive")
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("scan.rate_per_second must not be negative")
	}
	if c.RatePerSecond > 0 && c.Burst <= 0 {
		return fmt.Errorf("scan.burst must be positive when rate limiting")
	}
	return nil
}

type Option func(*Scanner)

func WithPublisher(p publish.Publisher) Option {
	return func(s *Scanner) { s.pub = p }
}

// WithEvents sends a signal event for every actionable decision.
func WithEvents(e interface{ Notify(notify.Event) }) Option {
	return func(s *Scanner) { s.events = e }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

type Scanner struct {
	src     market.Source
	params  indicators.Params
	profile strategies.Profile
	cfg     Config
	limiter *rate.Limiter

	pub     publish.Publisher
	events  interface{ Notify(notify.Event) }
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(src market.Source, params indicators.Params, profile strategies.Profile, cfg Config, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	s := &Scanner{
		src:     src,
		params:  params,
		profile: profile,
		cfg:     cfg,
		pub:     publish.Nop{},
		now:     time.Now,
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Run evaluates every ticker and returns results in input order.
func (s *Scanner) Run(ctx context.Context, tickers []string) []Result {
	results := make([]Result, len(tickers))
	jobs := make(chan int)

	workers := s.cfg.Workers
	if workers > len(tickers) {
		workers = len(tickers)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.Evaluate(ctx, tickers[i])
			}
		}()
	}

	for i := range tickers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Info().Int("tickers", len(tickers)).Int("failed", failed).Msg("scan complete")
	return results
}

// Evaluate scans a single ticker under the per-ticker timeout.
func (s *Scanner) Evaluate(ctx context.Context, ticker string) Result {
	start := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	d, err := s.evaluate(ctx, ticker)
	r := Result{
		Ticker:   ticker,
		Decision: d,
		Err:      err,
		Kind:     ErrorKind(err),
		Duration: s.now().Sub(start),
	}
	s.metrics.ScanResult(r.Label(), r.Duration)

	logger := log.With().Str("ticker", ticker).Dur("took", r.Duration).Logger()
	if err != nil {
		if r.Kind == KindInsufficientData {
			logger.Warn().Err(err).Msg("not enough data")
		} else {
			logger.Error().Err(err).Str("kind", string(r.Kind)).Msg("scan failed")
		}
		return r
	}
	logger.Debug().Str("action", d.Action.String()).Str("reason", d.Reason).Msg("classified")

	if d.Action.IsActionable() {
		s.dispatch(ctx, ticker, d)
	}
	return r
}

func (s *Scanner) evaluate(ctx context.Context, ticker string) (strategies.Decision, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return strategies.Decision{}, fmt.Errorf("rate limit %s: %w", ticker, err)
		}
	}

	bars, err := s.src.Bars(ctx, ticker)
	if err != nil {
		return strategies.Decision{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	set, err := indicators.Latest(bars, s.params)
	if err != nil {
		return strategies.Decision{}, fmt.Errorf("indicators %s: %w", ticker, err)
	}
	return strategies.Classify(set, s.profile), nil
}

func (s *Scanner) dispatch(ctx context.Context, ticker string, d strategies.Decision) {
	at := s.now().UTC()
	if err := s.pub.Publish(ctx, publish.Signal{Ticker: ticker, Decision: d, At: at}); err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("publish failed")
	}
	if s.events != nil {
		s.events.Notify(notify.Event{
			Kind:    notify.KindSignal,
			Ticker:  ticker,
			Action:  d.Action.String(),
			Price:   d.Set.Close,
			Time:    at,
			Message: d.Reason,
		})
	}
}

// Loop runs a scan immediately and then every cfg.Interval until ctx is
// cancelled. onResults, if set, sees each batch.
func (s *Scanner) Loop(ctx context.Context, tickers []string, onResults func([]Result)) error {
	every := s.cfg.Interval
	if every <= 0 {
		every = DefaultConfig().Interval
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rs := s.Run(ctx, tickers)
		if onResults != nil {
			onResults(rs)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
