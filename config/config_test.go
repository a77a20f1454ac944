package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/gridsniper/strategies"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "BTC-USD", cfg.Grid.Ticker)
	assert.Equal(t, 5, cfg.Grid.Capacity)
	assert.Equal(t, []float64{500, 1000, 800, 1000}, cfg.Grid.Gaps)
	assert.Equal(t, 50.0, cfg.Grid.PriceIncrement)
	assert.Equal(t, "sniper", cfg.Strategy.Profile)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"missing ticker", func(c *Config) { c.Grid.Ticker = "" }, "grid.ticker is required"},
		{"gap count", func(c *Config) { c.Grid.Gaps = []float64{1} }, "grid.gaps must have capacity-1"},
		{"bad rsi period", func(c *Config) { c.Indicators.RSIPeriod = 0 }, "indicators"},
		{"unknown profile", func(c *Config) { c.Strategy.Profile = "yolo" }, "unknown strategy profile"},
		{
			name: "bad custom profile",
			mutate: func(c *Config) {
				c.Strategy.Profiles = []strategies.Profile{{Name: "x", RSILow: 150}}
			},
			errMsg: "strategy.profiles",
		},
		{"missing store path", func(c *Config) { c.Store.Path = "" }, "store.path is required"},
		{"journal type", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type must be"},
		{"sqlite without path", func(c *Config) { c.Journal.DBPath = "" }, "db_path required"},
		{
			name:   "csv without file",
			mutate: func(c *Config) { c.Journal = JournalConfig{Type: "csv"} },
			errMsg: "trades_file required",
		},
		{"no journal", func(c *Config) { c.Journal = JournalConfig{Type: "none"} }, ""},
		{"redis ttl", func(c *Config) { c.Redis.TTL = "soon" }, "redis.ttl"},
		{"scan timeout", func(c *Config) { c.Scan.Timeout = "fast" }, "scan.timeout"},
		{"scan workers", func(c *Config) { c.Scan.Workers = -1 }, "scan.workers"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative queue", func(c *Config) { c.Notify.QueueSize = -1 }, "notify.queue_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProfileResolution(t *testing.T) {
	cfg := Default()
	p, err := cfg.Profile()
	require.NoError(t, err)
	assert.Equal(t, strategies.Sniper, p)

	custom := strategies.Profile{Name: "cautious", RSILow: 20, RSIMid: 35, RSIHigh: 80}
	cfg.Strategy.Profiles = []strategies.Profile{custom}
	cfg.Strategy.Profile = "cautious"
	require.NoError(t, cfg.Validate())

	p, err = cfg.Profile()
	require.NoError(t, err)
	assert.Equal(t, custom, p)

	cfg.Strategy.Profile = ""
	p, err = cfg.Profile()
	require.NoError(t, err)
	assert.Equal(t, strategies.DefaultProfile, p.Name)
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"yml format", ".yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Grid.Ticker = "ETH-USD"
			cfg.Scan.Tickers = []string{"ETH-USD", "SOL-USD"}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := `
grid:
  ticker: ETH-USD
  capacity: 3
  gaps: [20, 30]
  entry_offset: 5
  min_profit_per_slot: 10
  spread_buffer: 2
  base_capital: 1000
  price_increment: 1
scan:
  tickers: [ETH-USD]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ETH-USD", cfg.Grid.Ticker)
	assert.Equal(t, []float64{20, 30}, cfg.Grid.Gaps)
	assert.Equal(t, []string{"ETH-USD"}, cfg.Scan.Tickers)
	assert.Equal(t, "./ledger.json", cfg.Store.Path)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestParseDurations(t *testing.T) {
	ttl, err := RedisConfig{TTL: "30m"}.ParseTTL()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ttl)

	ttl, err = RedisConfig{}.ParseTTL()
	require.NoError(t, err)
	assert.Zero(t, ttl)

	sc, err := Default().Scan.ScanConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, sc.Timeout)
	assert.Equal(t, 5*time.Minute, sc.Interval)
	assert.Equal(t, 4, sc.Workers)
}
