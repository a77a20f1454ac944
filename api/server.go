// Package api exposes the ledger and the latest signals over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/gridsniper/grid"
	"github.com/rustyeddy/gridsniper/metrics"
	"github.com/rustyeddy/gridsniper/publish"
)

// Ledger is the subset of grid.Service the API drives.
type Ledger interface {
	Ticker() string
	Snapshot(ctx context.Context) (grid.State, error)
	NextTriggerPrice(ctx context.Context, marketPrice float64) (float64, error)
	TargetExitPrice(ctx context.Context, index int) (float64, error)
	Open(ctx context.Context, index int, price float64) (grid.Slot, error)
	Close(ctx context.Context, index int, price float64) (grid.ClosedTrade, error)
	Reset(ctx context.Context) error
}

// SignalReader returns the latest published signal for a ticker.
type SignalReader interface {
	Latest(ctx context.Context, ticker string) (publish.Signal, error)
}

type Server struct {
	router  *mux.Router
	server  *http.Server
	ledger  Ledger
	signals SignalReader
	metrics *metrics.Metrics
}

type Option func(*Server)

func WithSignals(r SignalReader) Option {
	return func(s *Server) { s.signals = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func NewServer(addr string, ledger Ledger, opts ...Option) *Server {
	s := &Server{
		router: mux.NewRouter(),
		ledger: ledger,
	}
	for _, o := range opts {
		o(s)
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/ledger", s.ledgerStatus).Methods("GET")
	api.HandleFunc("/ledger/trigger", s.nextTrigger).Methods("GET")
	api.HandleFunc("/ledger/history", s.history).Methods("GET")
	api.HandleFunc("/ledger/reset", s.reset).Methods("POST")
	api.HandleFunc("/ledger/slots/{index:[0-9]+}/open", s.openSlot).Methods("POST")
	api.HandleFunc("/ledger/slots/{index:[0-9]+}/close", s.closeSlot).Methods("POST")
	api.HandleFunc("/ledger/slots/{index:[0-9]+}/target", s.target).Methods("GET")
	api.HandleFunc("/signals/{ticker}", s.latestSignal).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// requestLoggingMiddleware logs all requests with structured format
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}
