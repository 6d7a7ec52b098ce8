// Package chart renders grouped horizontal bar charts of benchmark timings as SVG.
//
// Rendering is a pure function of the Chart value: the same chart always produces
// byte-identical output.
package chart

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyChart       = errors.New("chart has no groups")
	ErrEmptyGroup       = errors.New("group has no bars")
	ErrInvalidRange     = errors.New("bar value outside its min/max range")
	ErrInvalidCompareTo = errors.New("invalid compare-to bar")
	ErrInvalidMaximum   = errors.New("chart maximum value must be positive")
)

// Chart is a titled list of bar groups
type Chart struct {
	// Title and Subtitle are inserted as markup and may contain <tspan> elements
	Title    string
	Subtitle string
	Groups   []Group
	// ForceMaximumValue overrides the value mapped to the full graph width
	ForceMaximumValue *float64
}

// Group is a labelled run of bars. Newlines in Name start new label lines.
type Group struct {
	Name string
	Bars []Bar
}

// Bar is one measured configuration. Values are nanoseconds.
type Bar struct {
	Name      string
	Value     float64
	Min       float64
	Max       float64
	Emphasize bool
	// CompareTo is the index of a sibling bar; when set, the percent difference
	// against that bar's value is shown next to this bar's value.
	CompareTo *int
	Classes   []string
}

// MaximumValue returns the forced maximum, or the largest bar maximum
func (c Chart) MaximumValue() float64 {
	if c.ForceMaximumValue != nil {
		return *c.ForceMaximumValue
	}
	maximum := math.Inf(-1)
	for _, group := range c.Groups {
		for _, bar := range group.Bars {
			maximum = math.Max(maximum, bar.Max)
		}
	}
	return maximum
}

// HasPercentDifferences reports whether any bar compares against a sibling
func (c Chart) HasPercentDifferences() bool {
	for _, group := range c.Groups {
		if group.hasPercentDifferences() {
			return true
		}
	}
	return false
}

func (g Group) hasPercentDifferences() bool {
	for _, bar := range g.Bars {
		if bar.CompareTo != nil {
			return true
		}
	}
	return false
}

// Validate rejects charts that cannot be laid out
func (c Chart) Validate() error {
	if len(c.Groups) == 0 {
		return ErrEmptyChart
	}
	for gi, group := range c.Groups {
		if len(group.Bars) == 0 {
			return fmt.Errorf("group %d (%q): %w", gi, group.Name, ErrEmptyGroup)
		}
		for bi, bar := range group.Bars {
			if err := bar.validate(group); err != nil {
				return fmt.Errorf("group %d (%q) bar %d (%q): %w", gi, group.Name, bi, bar.Name, err)
			}
			if bar.CompareTo != nil && *bar.CompareTo == bi {
				return fmt.Errorf("group %d (%q) bar %d (%q): %w: bar compares to itself",
					gi, group.Name, bi, bar.Name, ErrInvalidCompareTo)
			}
		}
	}

	maximum := c.MaximumValue()
	if !(maximum > 0) || math.IsInf(maximum, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidMaximum, maximum)
	}
	return nil
}

func (b Bar) validate(group Group) error {
	if !(b.Min >= 0 && b.Min <= b.Value && b.Value <= b.Max) || math.IsInf(b.Max, 0) {
		return fmt.Errorf("%w: min=%v value=%v max=%v", ErrInvalidRange, b.Min, b.Value, b.Max)
	}
	if b.CompareTo == nil {
		return nil
	}
	index := *b.CompareTo
	if index < 0 || index >= len(group.Bars) {
		return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidCompareTo, index, len(group.Bars))
	}
	if group.Bars[index].Value == 0 {
		return fmt.Errorf("%w: baseline %q has zero value", ErrInvalidCompareTo, group.Bars[index].Name)
	}
	return nil
}
