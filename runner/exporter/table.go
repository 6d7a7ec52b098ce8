package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/buildbench/runner/types"
)

var tableColumns = []string{
	"hostname",
	"project",
	"toolchain",
	"benchmark",
	"min(ms)",
	"avg(ms)",
	"max(ms)",
}

// tableCell is left-aligned unless numeric
type tableCell struct {
	text    string
	numeric bool
}

// DumpRuns writes runs as an aligned text table, one row per run. Runs
// without samples show "---" for their statistics.
func DumpRuns(w io.Writer, runs []types.Run) error {
	rows := make([][]tableCell, 0, len(runs)+1)
	header := make([]tableCell, len(tableColumns))
	for i, name := range tableColumns {
		header[i] = tableCell{text: name}
	}
	rows = append(rows, header)

	for _, run := range runs {
		row := []tableCell{
			{text: run.Hostname},
			{text: run.Project},
			{text: run.ToolchainLabel},
			{text: run.BenchmarkName},
		}
		if run.HasSamples() {
			row = append(row,
				msCell(float64(run.Min())),
				msCell(run.Average()),
				msCell(float64(run.Max())),
			)
		} else {
			row = append(row, tableCell{text: "---"}, tableCell{text: "---"}, tableCell{text: "---"})
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(tableColumns))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell.text))
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			padding := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell.text))
			if cell.numeric {
				cells[i] = padding + cell.text
			} else {
				cells[i] = cell.text + padding
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, " | ")); err != nil {
			return fmt.Errorf("failed to write runs table: %w", err)
		}
	}
	return nil
}

func msCell(ns float64) tableCell {
	return tableCell{text: strconv.FormatInt(types.NSToMS(ns), 10), numeric: true}
}
