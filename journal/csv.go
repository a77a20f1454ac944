package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"trade_id", "ticker", "slot", "quantity", "entry_price", "exit_price", "open_time", "close_time", "realized_pl"}

// CSVJournal appends trades to a CSV file.
type CSVJournal struct {
	w  *csv.Writer
	fp *os.File
}

// NewCSV opens path for appending, writing the header when the file is new.
func NewCSV(path string) (*CSVJournal, error) {
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := fp.Stat()
	if err != nil {
		_ = fp.Close()
		return nil, err
	}

	w := csv.NewWriter(fp)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = fp.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = fp.Close()
			return nil, err
		}
	}
	return &CSVJournal{w: w, fp: fp}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	if err := j.w.Write(csvRow(t)); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.fp.Close()
}

// WriteCSV exports trades with a header row.
func WriteCSV(out io.Writer, trades []TradeRecord) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Write(csvRow(t)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(t TradeRecord) []string {
	return []string{
		t.TradeID,
		t.Ticker,
		strconv.Itoa(t.Slot),
		f(t.Quantity),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		f(t.RealizedPL),
	}
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
