// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"strings"
	"time"
)

// ResetPeriod controls when a counter starts again from 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PRESS", "EXP", "DEL")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 3)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod ResetPeriod
}

// DefaultConfig returns the PREFIX-YYYY-NNN layout with a yearly counter.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    3,
		ResetPeriod: ResetYearly,
	}
}

// Key identifies the counter a number is drawn from.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s:%04d-%02d", c.Prefix, period.Year(), period.Month())
	case ResetNever:
		return c.Prefix
	default:
		return fmt.Sprintf("%s:%04d", c.Prefix, period.Year())
	}
}

// Format renders counter value n for period.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 3
	}
	parts := make([]string, 0, 3)
	if c.Prefix != "" {
		parts = append(parts, c.Prefix)
	}
	if c.IncludeYear {
		parts = append(parts, fmt.Sprintf("%04d", period.Year()))
	}
	parts = append(parts, fmt.Sprintf("%0*d", width, n))
	return strings.Join(parts, "-")
}
