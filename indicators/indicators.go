// Package indicators computes technical analysis indicators over bar series.
//
// Every function is causal: the value at bar i depends only on bars 0..i.
// Values inside an indicator's warm-up window are still returned but carry
// Ready=false; callers should always check Ready.
package indicators

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when a series is empty or shorter
	// than the indicator's warm-up. Callers should wait for more data.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidPeriod is returned for non-positive or inconsistent periods.
	ErrInvalidPeriod = errors.New("invalid period")
)

// Value is one indicator reading.
type Value struct {
	V     float64 `json:"v"`
	Ready bool    `json:"ready"`
}

func (v Value) Float64() float64 { return v.V }

func insufficient(name string, need, got int) error {
	return fmt.Errorf("%w: %s needs %d bars, got %d", ErrInsufficientData, name, need, got)
}

func invalidPeriod(name string, period int) error {
	return fmt.Errorf("%w: %s period must be positive, got %d", ErrInvalidPeriod, name, period)
}
