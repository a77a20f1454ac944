package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownTicker is returned when a source has no data for a ticker.
	ErrUnknownTicker = errors.New("unknown ticker")

	// ErrParse marks malformed market data, as opposed to a failure to
	// fetch it.
	ErrParse = errors.New("malformed bar data")
)

// Source supplies an ordered bar series for a ticker.
// Implementations may return partial or stale data; callers decide whether
// the series is long enough.
type Source interface {
	Bars(ctx context.Context, ticker string) ([]Bar, error)
}

// CSVSource reads bars from <Dir>/<ticker>.csv files with rows:
//
//	time,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano. A header row is allowed and
// empty rows are skipped.
type CSVSource struct {
	Dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) Bars(ctx context.Context, ticker string) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
		}
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses bar rows from r and validates their ordering.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		bars     []Bar
		line     int
		sawFirst bool
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		line++
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
		}
		if !ok {
			continue
		}
		bars = append(bars, b)
	}

	if err := Validate(bars); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return bars, nil
}

func parseBarRow(row []string) (Bar, bool, error) {
	if blankRow(row) {
		return Bar{}, false, nil
	}
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return Bar{}, false, fmt.Errorf("short row: %d fields, need time,open,high,low,close", len(row))
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Bar{}, false, fmt.Errorf("missing time")
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	vals := make([]float64, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := 1; i < len(row) && i <= 5; i++ {
		s := strings.TrimSpace(row[i])
		if s == "" && i == 5 {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad %s %q: %w", names[i-1], row[i], err)
		}
		vals[i-1] = v
	}

	return Bar{
		Time:   t.UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true, nil
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
