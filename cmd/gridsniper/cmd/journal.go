package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade journal",
	Long: `Query closed slots recorded in the SQLite trade journal.

Subcommands:
  trade    - Details of one closed slot by ID
  today    - Slots closed today
  day      - Slots closed on a specific day
  summary  - Win/loss summary over a date range
  export   - Export trades as CSV or Org

Examples:
  gridsniper journal trade 01HX5ABCDEFGHJKMNPQRSTVWXY
  gridsniper journal day 2024-01-15
  gridsniper journal summary --from 2024-01-01
  gridsniper journal export --format csv -o trades.csv`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize trades closed in a date range",
	Args:  cobra.NoArgs,
	RunE:  runJournalSummary,
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every trade as CSV or Org",
	Args:  cobra.NoArgs,
	RunE:  runJournalExport,
}

var (
	journalDBPath string
	journalFrom   string
	journalTo     string
	exportFormat  string
	exportOutput  string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalSummaryCmd)
	journalCmd.AddCommand(journalExportCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (overrides journal.db_path)")
	journalSummaryCmd.Flags().StringVar(&journalFrom, "from", "", "first day, YYYY-MM-DD (default: all)")
	journalSummaryCmd.Flags().StringVar(&journalTo, "to", "", "last day inclusive, YYYY-MM-DD (default: today)")
	journalExportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or org")
	journalExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func openJournalDB() (*journal.SQLiteJournal, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no journal database: set journal.db_path or pass --db")
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listDay(time.Now().In(time.Local).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0])
}

func listDay(day string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("No trades closed on %s\n", day)
		return nil
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := rangeBounds(time.Local, journalFrom, journalTo, time.Now())
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	s, err := j.Summary(start, end)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}

	title := fmt.Sprintf("Summary %s .. %s", start.Format("2006-01-02"), end.Add(-time.Nanosecond).Format("2006-01-02"))
	if journalFrom == "" {
		title = fmt.Sprintf("Summary through %s", end.Add(-time.Nanosecond).Format("2006-01-02"))
	}
	fmt.Print(journal.FormatSummaryOrg(title, s))
	if pf := s.ProfitFactor(); pf > 0 {
		fmt.Printf("\nProfit factor: %.2f\n", pf)
	}
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTrades()
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	var out io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "csv":
		err = journal.WriteCSV(out, recs)
	case "org":
		_, err = io.WriteString(out, journal.FormatTradesOrg(recs)+"\n")
	default:
		return fmt.Errorf("unknown format %q (csv or org)", exportFormat)
	}
	if err != nil {
		return err
	}
	if exportOutput != "" {
		fmt.Printf("✓ Exported %d trades to %s\n", len(recs), exportOutput)
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}

// rangeBounds turns inclusive day strings into [start, end). An empty from
// starts at the Unix epoch; an empty to ends after today.
func rangeBounds(loc *time.Location, from, to string, now time.Time) (time.Time, time.Time, error) {
	start := time.Unix(0, 0).In(loc)
	if from != "" {
		s, _, err := dayBounds(loc, from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = s
	}
	if to == "" {
		to = now.In(loc).Format("2006-01-02")
	}
	_, end, err := dayBounds(loc, to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return start, end, nil
}
