package cmd

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/grid"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and operate the grid ledger",
	Long: `Operate the grid ledger for the configured ticker.

Subcommands:
  status   - Show every slot, profit and capital
  trigger  - Price at which the next slot should open
  open     - Open the next slot at a price
  close    - Close an active slot at a price
  target   - Advisory exit price for an active slot
  history  - List closed slots
  reset    - Empty every slot and clear history

Examples:
  gridsniper ledger trigger 40000
  gridsniper ledger open 1 39900
  gridsniper ledger close 1 40300`,
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger slots, profit and capital",
	Args:  cobra.NoArgs,
	RunE:  runLedgerStatus,
}

var ledgerTriggerCmd = &cobra.Command{
	Use:   "trigger <market-price>",
	Short: "Show the next trigger price",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerTrigger,
}

var ledgerOpenCmd = &cobra.Command{
	Use:   "open <slot> <price>",
	Short: "Open a slot",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerOpen,
}

var ledgerCloseCmd = &cobra.Command{
	Use:   "close <slot> <price>",
	Short: "Close a slot and realize its profit",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerClose,
}

var ledgerTargetCmd = &cobra.Command{
	Use:   "target <slot>",
	Short: "Show the advisory exit price of a slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerTarget,
}

var ledgerHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List closed slots",
	Args:  cobra.NoArgs,
	RunE:  runLedgerHistory,
}

var ledgerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Empty every slot and clear history and profit",
	Args:  cobra.NoArgs,
	RunE:  runLedgerReset,
}

var ledgerResetYes bool

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerStatusCmd)
	ledgerCmd.AddCommand(ledgerTriggerCmd)
	ledgerCmd.AddCommand(ledgerOpenCmd)
	ledgerCmd.AddCommand(ledgerCloseCmd)
	ledgerCmd.AddCommand(ledgerTargetCmd)
	ledgerCmd.AddCommand(ledgerHistoryCmd)
	ledgerCmd.AddCommand(ledgerResetCmd)

	ledgerResetCmd.Flags().BoolVarP(&ledgerResetYes, "yes", "y", false, "confirm the reset")
}

// withLedger runs fn against a started ledger service.
func withLedger(fn func(ctx context.Context, svc *grid.Service) error) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.svc)
}

func runLedgerStatus(cmd *cobra.Command, args []string) error {
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		st, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		printState(st)
		return nil
	})
}

func runLedgerTrigger(cmd *cobra.Command, args []string) error {
	price, err := parsePrice(args[0])
	if err != nil {
		return err
	}
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		p, err := svc.NextTriggerPrice(ctx, price)
		if err != nil {
			return err
		}
		fmt.Printf("Next trigger for %s: %.2f (market %.2f)\n", svc.Ticker(), p, price)
		return nil
	})
}

func runLedgerOpen(cmd *cobra.Command, args []string) error {
	index, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	price, err := parsePrice(args[1])
	if err != nil {
		return err
	}
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		s, err := svc.Open(ctx, index, price)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Opened slot %d on %s @ %.2f (qty %.8f)\n", s.Index, svc.Ticker(), s.EntryPrice, s.Quantity)
		return nil
	})
}

func runLedgerClose(cmd *cobra.Command, args []string) error {
	index, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	price, err := parsePrice(args[1])
	if err != nil {
		return err
	}
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		ct, err := svc.Close(ctx, index, price)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Closed slot %d on %s @ %.2f: profit %.2f\n", ct.Slot, svc.Ticker(), ct.ExitPrice, ct.RealizedProfit)
		return nil
	})
}

func runLedgerTarget(cmd *cobra.Command, args []string) error {
	index, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		p, err := svc.TargetExitPrice(ctx, index)
		if err != nil {
			return err
		}
		fmt.Printf("Target exit for slot %d: %.2f\n", index, p)
		return nil
	})
}

func runLedgerHistory(cmd *cobra.Command, args []string) error {
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		st, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		if len(st.History) == 0 {
			fmt.Println("No closed slots")
			return nil
		}
		fmt.Printf("%-26s %4s %12s %12s %12s %10s  %s\n", "ID", "SLOT", "ENTRY", "EXIT", "QTY", "PROFIT", "CLOSED")
		for _, ct := range st.History {
			fmt.Printf("%-26s %4d %12.2f %12.2f %12.8f %10.2f  %s\n",
				ct.ID, ct.Slot, ct.EntryPrice, ct.ExitPrice, ct.Quantity, ct.RealizedProfit,
				ct.ClosedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	})
}

func runLedgerReset(cmd *cobra.Command, args []string) error {
	if !ledgerResetYes {
		return fmt.Errorf("reset clears every slot and the history; rerun with --yes")
	}
	return withLedger(func(ctx context.Context, svc *grid.Service) error {
		if err := svc.Reset(ctx); err != nil {
			return err
		}
		fmt.Printf("✓ Ledger for %s reset\n", svc.Ticker())
		return nil
	})
}

func printState(st grid.State) {
	fmt.Printf("Ledger %s\n", st.Ticker)
	for _, s := range st.Slots {
		if !s.IsActive() {
			fmt.Printf("  slot %d  empty\n", s.Index)
			continue
		}
		fmt.Printf("  slot %d  active  entry %.2f  qty %.8f  since %s\n",
			s.Index, s.EntryPrice, s.Quantity, s.OpenedAt.Local().Format("2006-01-02 15:04"))
	}
	if next, ok := st.NextSlot(); ok {
		fmt.Printf("  next slot: %d\n", next)
	} else {
		fmt.Println("  next slot: none (full)")
	}
	fmt.Printf("  closed: %d  profit: %.2f  capital: %.2f\n", len(st.History), st.AccumulatedProfit, st.CurrentCapital())
}

func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	return n, nil
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(p, 0) || math.IsNaN(p) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return p, nil
}
