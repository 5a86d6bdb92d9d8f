package types

import (
	"strings"

	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/shopspring/decimal"
)

// RoundingMode selects how computed tax amounts are brought to the configured scale
type RoundingMode string

const (
	// RoundingModeUp rounds away from zero
	RoundingModeUp RoundingMode = "UP"
	// RoundingModeDown rounds towards zero
	RoundingModeDown RoundingMode = "DOWN"
	// RoundingModeCeiling rounds towards positive infinity
	RoundingModeCeiling RoundingMode = "CEILING"
	// RoundingModeFloor rounds towards negative infinity
	RoundingModeFloor RoundingMode = "FLOOR"
	// RoundingModeHalfUp rounds to the nearest neighbour, ties away from zero
	RoundingModeHalfUp RoundingMode = "HALF_UP"
	// RoundingModeHalfDown rounds to the nearest neighbour, ties towards zero
	RoundingModeHalfDown RoundingMode = "HALF_DOWN"
	// RoundingModeHalfEven rounds to the nearest neighbour, ties to the even neighbour
	RoundingModeHalfEven RoundingMode = "HALF_EVEN"
	// RoundingModeUnnecessary asserts the value is already exact at the scale
	RoundingModeUnnecessary RoundingMode = "UNNECESSARY"

	DefaultRoundingMode = RoundingModeHalfUp
	DefaultTaxScale     = 2
)

var roundingModes = []RoundingMode{
	RoundingModeUp,
	RoundingModeDown,
	RoundingModeCeiling,
	RoundingModeFloor,
	RoundingModeHalfUp,
	RoundingModeHalfDown,
	RoundingModeHalfEven,
	RoundingModeUnnecessary,
}

// ParseRoundingMode resolves a configured rounding mode name, case insensitively.
// The second result is false when the name is unknown.
func ParseRoundingMode(s string) (RoundingMode, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, m := range roundingModes {
		if string(m) == s {
			return m, true
		}
	}
	return DefaultRoundingMode, false
}

// Round rounds d to scale fractional digits. It only fails under
// RoundingModeUnnecessary when the value cannot be represented exactly.
func (m RoundingMode) Round(d decimal.Decimal, scale int32) (decimal.Decimal, error) {
	switch m {
	case RoundingModeUp:
		return d.RoundUp(scale), nil
	case RoundingModeDown:
		return d.RoundDown(scale), nil
	case RoundingModeCeiling:
		return d.RoundCeil(scale), nil
	case RoundingModeFloor:
		return d.RoundFloor(scale), nil
	case RoundingModeHalfDown:
		return roundHalfDown(d, scale), nil
	case RoundingModeHalfEven:
		return d.RoundBank(scale), nil
	case RoundingModeUnnecessary:
		r := d.Truncate(scale)
		if !r.Equal(d) {
			return decimal.Zero, ierr.NewErrorf("rounding necessary for %s at scale %d", d.String(), scale).
				WithHint("Tax amount cannot be represented at the configured scale").
				WithReportableDetails(map[string]any{
					"amount": d.String(),
					"scale":  scale,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		return r, nil
	default:
		return d.Round(scale), nil
	}
}

func roundHalfDown(d decimal.Decimal, scale int32) decimal.Decimal {
	truncated := d.Truncate(scale)
	half := decimal.New(5, -(scale + 1))
	if d.Sub(truncated).Abs().GreaterThan(half) {
		return d.RoundUp(scale)
	}
	return truncated
}
