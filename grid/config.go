package grid

import "fmt"

// Config is the immutable grid configuration supplied at startup.
type Config struct {
	Ticker string `json:"ticker" yaml:"ticker"`

	// Capacity is the number of slots N.
	Capacity int `json:"capacity" yaml:"capacity"`

	// Gaps holds N-1 price gaps; Gaps[k-1] separates slot k from slot k+1.
	Gaps []float64 `json:"gaps" yaml:"gaps"`

	// EntryOffset is subtracted from the market price to trigger slot 1.
	EntryOffset float64 `json:"entry_offset" yaml:"entry_offset"`

	MinProfitPerSlot float64 `json:"min_profit_per_slot" yaml:"min_profit_per_slot"`
	SpreadBuffer     float64 `json:"spread_buffer" yaml:"spread_buffer"`
	BaseCapital      float64 `json:"base_capital" yaml:"base_capital"`

	// PriceIncrement is the rounding step for trigger and target prices.
	PriceIncrement float64 `json:"price_increment" yaml:"price_increment"`
}

func DefaultConfig() Config {
	return Config{
		Ticker:           "BTC-USD",
		Capacity:         5,
		Gaps:             []float64{500, 1000, 800, 1000},
		EntryOffset:      100,
		MinProfitPerSlot: 300,
		SpreadBuffer:     50,
		BaseCapital:      10000,
		PriceIncrement:   50,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Ticker == "" {
		return fmt.Errorf("grid.ticker is required")
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("grid.capacity must be positive")
	}
	if len(c.Gaps) != c.Capacity-1 {
		return fmt.Errorf("grid.gaps must have capacity-1 (%d) values, got %d", c.Capacity-1, len(c.Gaps))
	}
	for i, g := range c.Gaps {
		if g <= 0 {
			return fmt.Errorf("grid.gaps[%d] must be positive", i)
		}
	}
	if c.EntryOffset < 0 {
		return fmt.Errorf("grid.entry_offset must not be negative")
	}
	if c.MinProfitPerSlot < 0 {
		return fmt.Errorf("grid.min_profit_per_slot must not be negative")
	}
	if c.SpreadBuffer < 0 {
		return fmt.Errorf("grid.spread_buffer must not be negative")
	}
	if c.BaseCapital <= 0 {
		return fmt.Errorf("grid.base_capital must be positive")
	}
	if c.PriceIncrement < 0 {
		return fmt.Errorf("grid.price_increment must not be negative")
	}
	return nil
}

// gap returns the spacing used to open slot next (2..N).
func (c Config) gap(next int) float64 {
	return c.Gaps[next-2]
}
