package market

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := `time,open,high,low,close,volume
2024-01-01T00:00:00Z,100,105,99,102,10

2024-01-02T00:00:00Z,102,107,101,105,
2024-01-03T00:00:00.5Z, 105 , 108 , 104 , 106 , 7
`
	bars, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 102.0, bars[0].Close)
	assert.Equal(t, 10.0, bars[0].Volume)
	assert.Equal(t, 0.0, bars[1].Volume)
	assert.Equal(t, 106.0, bars[2].Close)
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		errMsg string
	}{
		{"bad time", "nope,1,2,3,4,5\n", ""},
		{"truncated row", "2024-01-01T00:00:00Z,1,2,3,4,5\n2024-01-02T00:00:00Z,1,2\n", "line 2: short row"},
		{"missing time", ",1,2,3,4,5\n", "missing time"},
		{"bad close", "2024-01-01T00:00:00Z,1,2,3,x,5\n", "bad close"},
		{"out of order", "2024-01-02T00:00:00Z,1,2,3,4,5\n2024-01-01T00:00:00Z,1,2,3,4,5\n", "not after"},
		{"duplicate time", "2024-01-01T00:00:00Z,1,2,3,4,5\n2024-01-01T00:00:00Z,1,2,3,4,5\n", "not after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			require.ErrorIs(t, err, ErrParse)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestReadCSVBlankRowsSkipped(t *testing.T) {
	t.Parallel()

	in := "2024-01-01T00:00:00Z,1,2,0.5,1.5,3\n,,,,,\n , \n2024-01-02T00:00:00Z,1,2,0.5,1.5,3\n"
	bars, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestCSVSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := "time,open,high,low,close,volume\n2024-01-01T00:00:00Z,1,2,0.5,1.5,3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTC-USD.csv"), []byte(data), 0o644))

	src := NewCSVSource(dir)
	bars, err := src.Bars(context.Background(), "BTC-USD")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.5, bars[0].Close)

	_, err = src.Bars(context.Background(), "ETH-USD")
	assert.True(t, errors.Is(err, ErrUnknownTicker))
}

func TestCSVSourceCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCSVSource(t.TempDir()).Bars(ctx, "BTC-USD")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClosesAndLast(t *testing.T) {
	t.Parallel()

	_, ok := Last(nil)
	assert.False(t, ok)

	bars := []Bar{{Close: 1}, {Close: 2}}
	assert.Equal(t, []float64{1, 2}, Closes(bars))
	last, ok := Last(bars)
	assert.True(t, ok)
	assert.Equal(t, 2.0, last.Close)
}
