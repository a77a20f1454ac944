package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [ticker...]",
	Short: "Classify every configured ticker once",
	Long: `Scan the configured tickers (or the ones given) in parallel, print one
line per ticker, and publish and notify actionable signals.

Example:
  gridsniper scan BTC-USD ETH-USD SOL-USD`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers := args
	if len(tickers) == 0 {
		tickers = a.cfg.Scan.Tickers
	}
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers: pass some or set scan.tickers")
	}

	sc, err := a.scanner()
	if err != nil {
		return err
	}
	printResults(sc.Run(ctx, tickers))
	return nil
}

func printResults(rs []scan.Result) {
	fmt.Printf("%-12s %-20s %8s  %s\n", "TICKER", "RESULT", "TOOK", "DETAIL")
	for _, r := range rs {
		detail := r.Decision.Reason
		if r.Err != nil {
			detail = r.Err.Error()
		}
		fmt.Printf("%-12s %-20s %8s  %s\n", r.Ticker, r.Label(), r.Duration.Round(time.Millisecond), detail)
	}
}
