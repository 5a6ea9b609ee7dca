// Package validate enforces the numeric-format and business-range rules a
// canonical probe record must satisfy before it is storable. Every rule is
// evaluated independently; the violation messages are surfaced verbatim to
// operators inspecting rejected records.
package validate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zerotwo/cloudprobe/internal/models"
)

// DateTimeLayout is the canonical measurement timestamp format.
const DateTimeLayout = "2006-01-02 15:04:05"

// Temperature sensors report within this physical range, inclusive.
const (
	TemperatureMin = -30
	TemperatureMax = 80
)

// Result is the verdict for one record.
type Result struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// Validate checks every rule against the record and returns one message per
// violated rule. Result.Valid is true iff the violation list is empty.
func Validate(rec models.ProbeRecord) Result {
	var violations []string

	violations = checkStatus(violations, "probe status", rec.ProbeStatus)
	violations = checkAlarmStatus(violations, rec.AlarmStatus)
	violations = checkStatus(violations, "tank status", rec.TankStatus)

	violations = checkDecimal(violations, "ullage", rec.Ullage, 5, 2)
	violations = checkDecimal(violations, "product", rec.Product, 5, 2)
	violations = checkDecimal(violations, "water", rec.Water, 5, 2)
	violations = checkDecimal(violations, "density", rec.Density, 4, 2)

	switch rec.Discriminator {
	case models.DiscriminatorDiesel, models.DiscriminatorGasoline, models.DiscriminatorUndefined:
	default:
		violations = append(violations, "discriminator must be D, P, or N")
	}

	if _, err := time.Parse(DateTimeLayout, rec.DateTime); err != nil {
		violations = append(violations, "invalid datetime format, expected YYYY-MM-DD HH:MM:SS")
	}

	for _, temp := range rec.Temperatures {
		violations = checkTemperature(violations, temp)
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

// checkStatus covers the two-digit non-negative integer statuses.
func checkStatus(violations []string, name, raw string) []string {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return append(violations, fmt.Sprintf("invalid %s value", name))
	}
	if n < 0 || n > 99 {
		return append(violations, fmt.Sprintf("%s must be a non-negative number with at most 2 digits", name))
	}
	return violations
}

func checkAlarmStatus(violations []string, raw string) []string {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return append(violations, "invalid alarm status value")
	}
	if n != 0 && n != 1 && n != 2 {
		return append(violations, "alarm status must be 0 (ok), 1 (ack), or 2 (alarm)")
	}
	return violations
}

// checkDecimal enforces the column-width constraint of the persisted decimal
// field: at most maxInt integer digits and maxFrac fractional digits.
func checkDecimal(violations []string, name, raw string, maxInt, maxFrac int) []string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return append(violations, fmt.Sprintf("invalid %s value", name))
	}
	if intDigits(d) > maxInt || fracDigits(d) > maxFrac {
		return append(violations, fmt.Sprintf("%s must have at most %d integer and %d decimal digits", name, maxInt, maxFrac))
	}
	return violations
}

func checkTemperature(violations []string, raw string) []string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return append(violations, "invalid temperature value")
	}
	if intDigits(d) > 3 || fracDigits(d) > 1 {
		violations = append(violations, "temperature must have at most 3 integer and 1 decimal digits")
	}
	if d.LessThan(decimal.NewFromInt(TemperatureMin)) || d.GreaterThan(decimal.NewFromInt(TemperatureMax)) {
		violations = append(violations, fmt.Sprintf("temperature must be between %d and %d", TemperatureMin, TemperatureMax))
	}
	return violations
}

func intDigits(d decimal.Decimal) int {
	return len(d.Abs().Truncate(0).String())
}

func fracDigits(d decimal.Decimal) int {
	if e := d.Exponent(); e < 0 {
		return int(-e)
	}
	return 0
}
