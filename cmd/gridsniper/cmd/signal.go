package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/grid"
	"github.com/rustyeddy/gridsniper/indicators"
	"github.com/rustyeddy/gridsniper/scan"
)

var signalCmd = &cobra.Command{
	Use:   "signal <ticker>",
	Short: "Classify the latest bar of a ticker",
	Long: `Compute indicators over the ticker's bars and print the classified action.

When the ticker is the grid ticker, the next trigger price at the latest
close is shown too.

Example:
  gridsniper signal BTC-USD`,
	Args: cobra.ExactArgs(1),
	RunE: runSignal,
}

func init() {
	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sc, err := a.scanner()
	if err != nil {
		return err
	}
	r := sc.Evaluate(ctx, args[0])
	if r.Err != nil {
		if r.Kind == scan.KindInsufficientData {
			return fmt.Errorf("%s: not enough bars (need %d): %w", r.Ticker, a.cfg.Indicators.MinBars(), r.Err)
		}
		return r.Err
	}

	d := r.Decision
	fmt.Printf("%s  %s  (%s)\n", r.Ticker, d.Action, d.Profile)
	fmt.Printf("  reason: %s\n", d.Reason)
	printSet(d.Set)

	if r.Ticker == a.cfg.Grid.Ticker {
		p, err := a.svc.NextTriggerPrice(ctx, d.Set.Close)
		switch {
		case err == nil:
			fmt.Printf("  next grid trigger: %.2f\n", p)
		case errors.Is(err, grid.ErrLedgerFull):
			fmt.Println("  grid is full")
		default:
			return err
		}
	}
	return nil
}

func printSet(s indicators.Set) {
	fmt.Printf("  close %.2f at %s\n", s.Close, s.Time.Format("2006-01-02 15:04"))
	fmt.Printf("  RSI %.2f  EMA fast %.2f  EMA slow %.2f\n", s.RSI.V, s.EMAFast.V, s.EMASlow.V)
	fmt.Printf("  MACD %.4f  signal %.4f\n", s.MACD.V, s.MACDSignal.V)
	fmt.Printf("  Bollinger %.2f / %.2f / %.2f\n", s.BollingerLower.V, s.BollingerMiddle.V, s.BollingerUpper.V)
}
