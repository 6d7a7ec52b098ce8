package chart

import (
	"fmt"
	"math"

	"github.com/buildbench/runner/types"
)

// FormatPercentDifference formats (value-baseline)/baseline as a signed percentage.
// Differences under 10% keep one decimal place.
func FormatPercentDifference(value, baseline float64) string {
	difference := (value - baseline) / baseline * 100
	if math.Abs(difference) < 10 {
		return fmt.Sprintf("%+.1f%%", difference)
	}
	return fmt.Sprintf("%+.0f%%", difference)
}

// FormatNS formats nanoseconds as whole milliseconds, rounding up
func FormatNS(ns float64) string {
	return fmt.Sprintf("%dms", types.NSToMS(ns))
}
