package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/gridsniper/config"
	"github.com/rustyeddy/gridsniper/store"
)

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	start, end, err := dayBounds(loc, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, loc), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = dayBounds(loc, "15/01/2024")
	assert.Error(t, err)
}

func TestRangeBounds(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		from, to  string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "explicit range",
			from:      "2024-03-01",
			to:        "2024-03-02",
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "open end is today",
			from:      "2024-03-09",
			wantStart: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "open start is epoch",
			to:        "2024-03-01",
			wantStart: time.Unix(0, 0).UTC(),
			wantEnd:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{name: "reversed", from: "2024-03-05", to: "2024-03-01", wantErr: true},
		{name: "bad from", from: "March", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := rangeBounds(time.UTC, tt.from, tt.to, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(start), "start %v", start)
			assert.True(t, tt.wantEnd.Equal(end), "end %v", end)
		})
	}
}

func TestParseArgs(t *testing.T) {
	n, err := parseSlot("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parseSlot("three")
	assert.Error(t, err)

	p, err := parsePrice("39900.5")
	require.NoError(t, err)
	assert.Equal(t, 39900.5, p)

	for _, in := range []string{"", "Inf", "-inf", "NaN"} {
		_, err = parsePrice(in)
		assert.Error(t, err, "parsePrice(%q)", in)
	}
}

func writeTestConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "ledger.json")
	cfg.Journal.Type = "none"
	cfg.Notify.Log = false
	cfg.Log.Level = "error"

	path := filepath.Join(dir, "gridsniper.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path, cfg
}

func TestLedgerCommands(t *testing.T) {
	path, cfg := writeTestConfig(t)

	run := func(args ...string) error {
		rootCmd.SetArgs(append([]string{"--config", path}, args...))
		return rootCmd.Execute()
	}

	require.NoError(t, run("ledger", "open", "1", "40000"))
	require.NoError(t, run("ledger", "status"))

	st, rep := store.New(cfg.Store.Path, "").Load(cfg.Grid)
	assert.Equal(t, store.SourcePrimary, rep.Source)
	assert.Equal(t, 1, st.ActiveCount())
	assert.Equal(t, 40000.0, st.Slots[0].EntryPrice)

	// slot 3 is not next
	assert.Error(t, run("ledger", "open", "3", "39000"))

	require.NoError(t, run("ledger", "close", "1", "40500"))
	st, _ = store.New(cfg.Store.Path, "").Load(cfg.Grid)
	assert.Equal(t, 0, st.ActiveCount())
	require.Len(t, st.History, 1)
	assert.Greater(t, st.AccumulatedProfit, 0.0)
}

func TestSecondAppIsRejected(t *testing.T) {
	path, _ := writeTestConfig(t)
	require.NoError(t, rootCmd.PersistentFlags().Set("config", path))

	first, err := openApp(context.Background())
	require.NoError(t, err)

	_, err = openApp(context.Background())
	require.ErrorIs(t, err, store.ErrLocked)
	assert.ErrorContains(t, err, "gridsniper serve")

	rootCmd.SetArgs([]string{"--config", path, "ledger", "open", "1", "40000"})
	assert.ErrorIs(t, rootCmd.Execute(), store.ErrLocked)

	first.Close()
	second, err := openApp(context.Background())
	require.NoError(t, err)
	second.Close()
}

func TestConfigInitAndValidate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "new.yaml")

	rootCmd.SetArgs([]string{"config", "init", "-o", out})
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.LoadFromFile(out)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Grid, cfg.Grid)

	rootCmd.SetArgs([]string{"config", "validate", "-f", out})
	require.NoError(t, rootCmd.Execute())
}
