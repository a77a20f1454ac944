package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/gridsniper/config"
	"github.com/rustyeddy/gridsniper/grid"
	"github.com/rustyeddy/gridsniper/journal"
	"github.com/rustyeddy/gridsniper/market"
	"github.com/rustyeddy/gridsniper/metrics"
	"github.com/rustyeddy/gridsniper/notify"
	"github.com/rustyeddy/gridsniper/publish"
	"github.com/rustyeddy/gridsniper/scan"
	"github.com/rustyeddy/gridsniper/store"
)

// app wires the ledger service and its collaborators from a config.
type app struct {
	cfg       *config.Config
	store     *store.FileStore
	svc       *grid.Service
	journal   journal.Journal
	events    *notify.Dispatcher
	metrics   *metrics.Metrics
	rdb       *redis.Client
	publisher publish.Publisher
	locked    bool

	cancel context.CancelFunc
	done   chan error
}

// openApp loads config and ledger state and starts the ledger service.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RegisterProfiles(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		store:     store.New(cfg.Store.Path, cfg.Store.BackupPath),
		metrics:   metrics.New(),
		publisher: publish.Nop{},
	}

	if err := a.store.Lock(); err != nil {
		if errors.Is(err, store.ErrLocked) {
			return nil, fmt.Errorf("%w (is gridsniper serve running? use its HTTP API)", err)
		}
		return nil, err
	}
	a.locked = true

	a.events = notify.NewDispatcher(buildNotifier(cfg), cfg.Notify.QueueSize, a.metrics)
	a.events.Start(ctx)

	if a.journal, err = openJournal(cfg); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		ttl, _ := cfg.Redis.ParseTTL()
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.publisher = publish.NewRedis(a.rdb, cfg.Redis.Prefix, ttl)
	}

	st, rep := a.store.Load(cfg.Grid)
	if rep.Degraded() {
		a.events.Notify(notify.Event{
			Kind:    notify.KindWarning,
			Ticker:  cfg.Grid.Ticker,
			Message: fmt.Sprintf("ledger state loaded from %s after %d failed source(s)", rep.Source, len(rep.Errors)),
		})
	}
	log.Debug().Str("source", string(rep.Source)).Str("path", a.store.Path()).Msg("ledger state loaded")

	ledger, err := grid.Restore(cfg.Grid, st)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []grid.ServiceOption{
		grid.WithEvents(a.events),
		grid.WithMetrics(a.metrics),
	}
	if a.journal != nil {
		opts = append(opts, grid.WithTradeRecorder(a.journal))
	}
	a.svc = grid.NewService(ledger, a.store, opts...)

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan error, 1)
	go func() { a.done <- a.svc.Run(runCtx) }()

	return a, nil
}

func (a *app) scanner() (*scan.Scanner, error) {
	sc, err := a.cfg.Scan.ScanConfig()
	if err != nil {
		return nil, err
	}
	profile, err := a.cfg.Profile()
	if err != nil {
		return nil, err
	}
	return scan.New(market.NewCSVSource(a.cfg.Scan.DataDir), a.cfg.Indicators, profile, sc,
		scan.WithPublisher(a.publisher),
		scan.WithEvents(a.events),
		scan.WithMetrics(a.metrics),
	)
}

// Close stops the service, then drains notifications and closes the
// journal and Redis.
func (a *app) Close() {
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
	a.events.Close()
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			log.Error().Err(err).Msg("close journal")
		}
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.locked {
		if err := a.store.Unlock(); err != nil {
			log.Error().Err(err).Msg("unlock ledger")
		}
	}
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var m notify.Multi
	if cfg.Notify.Log {
		m = append(m, notify.NewLogNotifier())
	}
	if cfg.Notify.WebhookURL != "" {
		m = append(m, notify.NewWebhookNotifier(cfg.Notify.WebhookURL))
	}
	return m
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile)
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		return j, nil
	default:
		return nil, nil
	}
}
