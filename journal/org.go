package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for
// pasting into a trading journal. Structured facts go in a PROPERTIES drawer;
// Signal and Review are left for notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Slot %d: %s (%s)", t.Slot, t.Ticker, shortID(t.TradeID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":TICKER: %s\n", t.Ticker)
	fmt.Fprintf(&b, ":SLOT: %d\n", t.Slot)
	fmt.Fprintf(&b, ":QUANTITY: %.8f\n", t.Quantity)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.2f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.2f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", open)
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", close)
	fmt.Fprintf(&b, ":REALIZED_PL: %.2f\n", t.RealizedPL)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Signal\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// FormatSummaryOrg renders a Summary as an Org table.
func FormatSummaryOrg(title string, s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s\n", title)
	b.WriteString("| trades | wins | losses | gross profit | gross loss | net |\n")
	b.WriteString("|--------+------+--------+--------------+------------+-----|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %.2f | %.2f | %.2f |\n",
		s.Trades, s.Wins, s.Losses, s.GrossProfit, s.GrossLoss, s.Net)
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
