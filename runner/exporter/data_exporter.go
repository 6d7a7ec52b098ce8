package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/buildbench/runner/types"
)

// Export formats accepted by Export
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

// DataExporter writes run exports into a directory
type DataExporter struct {
	outputDir string
}

// NewDataExporter creates a new data exporter
func NewDataExporter(outputDir string) *DataExporter {
	return &DataExporter{
		outputDir: outputDir,
	}
}

// ExportAll writes every supported format into the output directory and
// returns the files written.
func (de *DataExporter) ExportAll(runs []types.Run) ([]string, error) {
	if err := os.MkdirAll(de.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	exports := []struct {
		name  string
		write func(io.Writer, []types.Run) error
	}{
		{"runs.json", ExportJSON},
		{"runs.csv", ExportCSV},
		{"samples.csv", ExportSamplesCSV},
		{"runs.txt", DumpRuns},
	}

	var written []string
	for _, export := range exports {
		path := filepath.Join(de.outputDir, export.name)
		if err := writeFile(path, runs, export.write); err != nil {
			return written, fmt.Errorf("failed to export %s: %w", export.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, runs []types.Run, write func(io.Writer, []types.Run) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file, runs); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Export writes runs to w in the named format
func Export(w io.Writer, format string, runs []types.Run) error {
	switch format {
	case FormatCSV:
		return ExportCSV(w, runs)
	case FormatJSON:
		return ExportJSON(w, runs)
	case FormatTable:
		return DumpRuns(w, runs)
	default:
		return fmt.Errorf("unsupported export format %q (supported: %s, %s, %s)", format, FormatCSV, FormatJSON, FormatTable)
	}
}

// ExportJSON writes the run summaries as an indented JSON array
func ExportJSON(w io.Writer, runs []types.Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(SummarizeAll(runs))
}

// ExportCSV writes one summary row per run
func ExportCSV(w io.Writer, runs []types.Run) error {
	writer := csv.NewWriter(w)

	header := []string{
		"Run ID", "Hostname", "Project", "Toolchain", "Benchmark", "Created At", "Samples",
		"Min (ms)", "Avg (ms)", "Max (ms)", "Median (ms)", "CI Low (ms)", "CI High (ms)",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, s := range SummarizeAll(runs) {
		row := []string{
			strconv.FormatInt(int64(s.RunID), 10),
			s.Hostname,
			s.Project,
			s.Toolchain,
			s.Benchmark,
			s.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(s.Samples),
			formatMS(s.MinMS),
			formatMS(s.AvgMS),
			formatMS(s.MaxMS),
			formatNSAsMS(s.MedianNS),
			formatNSAsMS(s.CILowNS),
			formatNSAsMS(s.CIHighNS),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportSamplesCSV writes every sample as its own row
func ExportSamplesCSV(w io.Writer, runs []types.Run) error {
	writer := csv.NewWriter(w)

	header := []string{"Run ID", "Hostname", "Project", "Toolchain", "Benchmark", "Sample", "Duration (ns)"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, run := range runs {
		for i, sample := range run.Samples {
			row := []string{
				strconv.FormatInt(int64(run.ID), 10),
				run.Hostname,
				run.Project,
				run.ToolchainLabel,
				run.BenchmarkName,
				strconv.Itoa(i),
				strconv.FormatInt(sample, 10),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMS(ms *types.MillisecondDuration) string {
	if ms == nil {
		return ""
	}
	return strconv.FormatInt(*ms, 10)
}

func formatNSAsMS(ns *float64) string {
	if ns == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *ns/1e6)
}
