package pagesplit

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the partitioner.
var (
	// ErrInvalidConfig is returned when tuning parameters are unusable.
	// Wrapped by every [*ConfigError].
	ErrInvalidConfig = errors.New("pagesplit: invalid configuration")

	// ErrInvalidWeight is returned when a weight function yields a negative
	// or non-finite value. Wrapped by every [*WeightError].
	ErrInvalidWeight = errors.New("pagesplit: invalid weight")
)

// ConfigError reports a tuning parameter that failed validation.
// It is returned before any weight is computed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// WeightError identifies the item whose weight broke the weight function's
// contract.
type WeightError struct {
	Index  int     // position of the item in the input
	Item   any     // the offending item
	Weight float64 // the value returned for it
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("%v: item %d (%v) weighs %v", ErrInvalidWeight, e.Index, e.Item, e.Weight)
}

func (e *WeightError) Unwrap() error {
	return ErrInvalidWeight
}
