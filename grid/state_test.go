package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	_, err := l.Open(1, 39900)
	require.NoError(t, err)
	_, err = l.Open(2, 39400)
	require.NoError(t, err)
	_, err = l.Close(2, 40200)
	require.NoError(t, err)

	st := l.Snapshot()
	b, err := json.Marshal(st)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(b, &decoded))

	r, err := Restore(DefaultConfig(), decoded)
	require.NoError(t, err)
	assert.Equal(t, l.Slots(), r.Slots())
	assert.Equal(t, l.History(), r.History())
	assert.Equal(t, l.AccumulatedProfit(), r.AccumulatedProfit())
}

func TestStateJSONLayout(t *testing.T) {
	t.Parallel()

	l := activeLedger(t, 39900, 0.25)
	b, err := json.Marshal(l.Snapshot())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, k := range []string{"version", "ticker", "base_capital", "accumulated_profit", "slots", "history", "updated_at"} {
		assert.Contains(t, raw, k)
	}
	slot := raw["slots"].([]any)[0].(map[string]any)
	assert.Equal(t, "active", slot["status"])
	assert.Equal(t, 39900.0, slot["entry_price"])
}

func TestStateValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*State)
		want   string
	}{
		{"version", func(s *State) { s.Version = 7 }, "unsupported state version"},
		{"no slots", func(s *State) { s.Slots = nil }, "no slots"},
		{"index", func(s *State) { s.Slots[2].Index = 9 }, "slot 3 has index 9"},
		{"active without entry", func(s *State) { s.Slots[0].Status = Active }, "positive entry price"},
		{"empty with position", func(s *State) { s.Slots[1].Quantity = 1 }, "carries a position"},
		{"history slot", func(s *State) { s.History = []ClosedTrade{{Slot: 6}} }, "history[0]"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := FreshState(DefaultConfig())
			tt.mutate(&s)
			assert.ErrorContains(t, s.Validate(), tt.want)
		})
	}

	assert.NoError(t, FreshState(DefaultConfig()).Validate())
}

func TestRestoreRejectsConfigMismatch(t *testing.T) {
	t.Parallel()

	s := FreshState(DefaultConfig())

	cfg := DefaultConfig()
	cfg.Ticker = "ETH-USD"
	_, err := Restore(cfg, s)
	assert.ErrorContains(t, err, "ticker")

	cfg = DefaultConfig()
	cfg.Capacity = 3
	cfg.Gaps = []float64{100, 100}
	_, err = Restore(cfg, s)
	assert.ErrorContains(t, err, "3")
}

func TestRestoreUsesConfiguredBaseCapital(t *testing.T) {
	t.Parallel()

	s := FreshState(DefaultConfig())
	s.BaseCapital = 1
	s.AccumulatedProfit = 100

	cfg := DefaultConfig()
	cfg.BaseCapital = 5000
	l, err := Restore(cfg, s)
	require.NoError(t, err)
	assert.Equal(t, 5100.0, l.CurrentCapital())
}

func TestStateSummaryHelpers(t *testing.T) {
	t.Parallel()

	s := FreshState(DefaultConfig())
	s.AccumulatedProfit = 187.5
	s.Slots[0] = Slot{Index: 1, Status: Active, EntryPrice: 39900, Quantity: 0.25, OpenedAt: t0}

	assert.Equal(t, 10187.5, s.CurrentCapital())
	assert.Equal(t, 1, s.ActiveCount())
	next, ok := s.NextSlot()
	assert.True(t, ok)
	assert.Equal(t, 2, next)
}
