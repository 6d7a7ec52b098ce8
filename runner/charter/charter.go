// Package charter turns stored runs into bar charts according to chart
// definitions.
package charter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/buildbench/runner/chart"
	"github.com/buildbench/runner/types"
)

// Charter builds and renders a fixed set of chart definitions
type Charter struct {
	defs []Definition
	log  logrus.FieldLogger
}

// New creates a Charter over already validated definitions
func New(defs []Definition, log logrus.FieldLogger) *Charter {
	return &Charter{
		defs: defs,
		log:  log.WithField("component", "charter"),
	}
}

// Definitions returns the chart definitions in render order
func (c *Charter) Definitions() []Definition {
	return slices.Clone(c.defs)
}

// Find returns the definition producing file
func (c *Charter) Find(file string) (Definition, bool) {
	for _, def := range c.defs {
		if def.File == file {
			return def, true
		}
	}
	return Definition{}, false
}

// Build assembles the chart for def from runs. It reports false when no run
// with samples matched any bar.
func (c *Charter) Build(def Definition, runs []types.Run) (chart.Chart, bool, error) {
	// group label -> bar definition index -> run
	byGroup := make(map[string]map[int]types.Run)
	var order []string
	for _, benchmark := range def.Filter.Benchmarks {
		label := GroupLabel(def.LabelSet, benchmark)
		if !slices.Contains(order, label) {
			order = append(order, label)
		}
	}

	for _, run := range runs {
		if !run.HasSamples() || !def.Filter.matches(run) {
			continue
		}
		barIndex := def.barFor(run)
		if barIndex < 0 {
			continue
		}

		label := GroupLabel(def.LabelSet, run.BenchmarkName)
		bars, ok := byGroup[label]
		if !ok {
			bars = make(map[int]types.Run)
			byGroup[label] = bars
			if !slices.Contains(order, label) {
				order = append(order, label)
			}
		}
		if existing, dup := bars[barIndex]; dup {
			c.log.WithFields(logrus.Fields{
				"chart": def.File,
				"bar":   def.Bars[barIndex].Name,
				"kept":  existing.ID,
				"run":   run.ID,
			}).Debug("Several runs match one bar, keeping the first")
			continue
		}
		bars[barIndex] = run
	}

	result := chart.Chart{
		Title:             def.Title,
		Subtitle:          def.Subtitle,
		ForceMaximumValue: def.ForceMaximumValue,
	}
	for _, label := range order {
		bars, ok := byGroup[label]
		if !ok {
			continue
		}
		result.Groups = append(result.Groups, def.buildGroup(label, bars))
	}
	if len(result.Groups) == 0 {
		return chart.Chart{}, false, nil
	}
	if err := result.Validate(); err != nil {
		return chart.Chart{}, false, fmt.Errorf("chart %s: %w", def.File, err)
	}
	return result, true, nil
}

func (d *Definition) buildGroup(label string, runs map[int]types.Run) chart.Group {
	group := chart.Group{Name: label}
	position := make(map[string]int, len(runs))
	for i, barDef := range d.Bars {
		run, ok := runs[i]
		if !ok {
			continue
		}
		position[barDef.Name] = len(group.Bars)
		group.Bars = append(group.Bars, chart.Bar{
			Name:      barDef.Name,
			Value:     run.Average(),
			Min:       float64(run.Min()),
			Max:       float64(run.Max()),
			Emphasize: barDef.Emphasize,
			Classes:   slices.Clone(barDef.Classes),
		})
	}

	// compare_to resolves against the bars present in this group only
	for i, barDef := range d.Bars {
		if _, ok := runs[i]; !ok || barDef.CompareTo == "" {
			continue
		}
		baseline, ok := position[barDef.CompareTo]
		if !ok || group.Bars[baseline].Value == 0 {
			continue
		}
		group.Bars[position[barDef.Name]].CompareTo = &baseline
	}
	return group
}

func (d *Definition) barFor(run types.Run) int {
	for i, bar := range d.Bars {
		if bar.Match.matches(run) {
			return i
		}
	}
	return -1
}

func (m Match) matches(run types.Run) bool {
	return (m.Hostname == "" || m.Hostname == run.Hostname) &&
		(m.Project == "" || m.Project == run.Project) &&
		(m.Toolchain == "" || m.Toolchain == run.ToolchainLabel)
}

func (f Filter) matches(run types.Run) bool {
	return (len(f.Hostnames) == 0 || slices.Contains(f.Hostnames, run.Hostname)) &&
		(len(f.Projects) == 0 || slices.Contains(f.Projects, run.Project)) &&
		(len(f.Benchmarks) == 0 || slices.Contains(f.Benchmarks, run.BenchmarkName))
}

// Render writes the SVG for def to w. It reports false, writing nothing,
// when no run matched.
func (c *Charter) Render(w io.Writer, def Definition, runs []types.Run) (bool, error) {
	built, ok, err := c.Build(def, runs)
	if err != nil || !ok {
		return false, err
	}
	if err := chart.Render(w, built); err != nil {
		return false, err
	}
	return true, nil
}

// RenderAll writes every chart with data into outputDir, creating the
// directory if needed. It returns the files written.
func (c *Charter) RenderAll(ctx context.Context, runs []types.Run, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, def := range c.defs {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		built, ok, err := c.Build(def, runs)
		if err != nil {
			return written, err
		}
		if !ok {
			c.log.WithField("chart", def.File).Info("No matching runs, skipping chart")
			continue
		}

		path := filepath.Join(outputDir, def.File)
		if err := chart.WriteFile(path, built); err != nil {
			return written, fmt.Errorf("chart %s: %w", def.File, err)
		}
		c.log.WithFields(logrus.Fields{
			"chart":  def.File,
			"groups": len(built.Groups),
		}).Info("Wrote chart")
		written = append(written, path)
	}
	return written, nil
}
