package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/api"
	"github.com/rustyeddy/gridsniper/publish"
	"github.com/rustyeddy/gridsniper/scan"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger over HTTP and scan on a schedule",
	Long: `Run the ledger service, the HTTP API and, unless --no-scan is given, a
scheduled scan of the configured tickers. Stops on SIGINT or SIGTERM.

Example:
  gridsniper --config gridsniper.yaml serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr   string
	serveNoScan bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNoScan, "no-scan", false, "do not run the scheduled scanner")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if rp, ok := a.publisher.(*publish.RedisPublisher); ok {
		if err := rp.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, signals will not be published")
		}
	}

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	opts := []api.Option{api.WithMetrics(a.metrics)}
	if rp, ok := a.publisher.(*publish.RedisPublisher); ok {
		opts = append(opts, api.WithSignals(rp))
	}
	srv := api.NewServer(addr, a.svc, opts...)

	var sc *scan.Scanner
	if !serveNoScan && len(a.cfg.Scan.Tickers) > 0 {
		if sc, err = a.scanner(); err != nil {
			return err
		}
	}

	errc := make(chan error, 2)
	go func() { errc <- srv.Start() }()

	if sc != nil {
		go func() {
			err := sc.Loop(ctx, a.cfg.Scan.Tickers, func(rs []scan.Result) {
				log.Debug().Int("results", len(rs)).Msg("scheduled scan done")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
		if err != nil {
			log.Error().Err(err).Msg("serve failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Error().Err(serr).Msg("http shutdown")
	}
	return err
}
