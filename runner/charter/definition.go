package charter

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed charts.yaml
var defaultDefinitions []byte

//go:embed definitions.schema.json
var definitionsSchema string

// ErrInvalidDefinitions is returned when a definitions document does not
// match the schema or contradicts itself.
var ErrInvalidDefinitions = errors.New("invalid chart definitions")

// Definition describes one chart file built from the latest runs.
type Definition struct {
	File              string          `yaml:"file" json:"file"`
	Title             string          `yaml:"title" json:"title"`
	Subtitle          string          `yaml:"subtitle" json:"subtitle"`
	LabelSet          string          `yaml:"label_set" json:"label_set,omitempty"`
	ForceMaximumValue *float64        `yaml:"force_maximum_value" json:"force_maximum_value,omitempty"`
	Filter            Filter          `yaml:"filter" json:"filter"`
	Bars              []BarDefinition `yaml:"bars" json:"bars"`
}

// Filter restricts the runs a chart considers. Empty lists match everything.
// Benchmarks also fixes the order of the chart's groups.
type Filter struct {
	Hostnames  []string `yaml:"hostnames" json:"hostnames,omitempty"`
	Projects   []string `yaml:"projects" json:"projects,omitempty"`
	Benchmarks []string `yaml:"benchmarks" json:"benchmarks,omitempty"`
}

// BarDefinition maps matching runs onto a named bar in every group.
type BarDefinition struct {
	Name      string   `yaml:"name" json:"name"`
	Match     Match    `yaml:"match" json:"match"`
	Classes   []string `yaml:"classes" json:"classes,omitempty"`
	Emphasize bool     `yaml:"emphasize" json:"emphasize,omitempty"`
	// CompareTo names the bar the percent difference is computed against
	CompareTo string `yaml:"compare_to" json:"compare_to,omitempty"`
}

// Match selects runs by exact field values; empty fields match anything.
type Match struct {
	Hostname  string `yaml:"hostname" json:"hostname,omitempty"`
	Project   string `yaml:"project" json:"project,omitempty"`
	Toolchain string `yaml:"toolchain" json:"toolchain,omitempty"`
}

type definitionsFile struct {
	Charts []Definition `yaml:"charts"`
}

// DefaultDefinitions returns the built-in chart set
func DefaultDefinitions() []Definition {
	defs, err := ParseDefinitions(defaultDefinitions)
	if err != nil {
		panic(fmt.Sprintf("built-in chart definitions: %v", err))
	}
	return defs
}

// LoadDefinitions reads chart definitions from path. An empty path selects
// the built-in set.
func LoadDefinitions(path string) ([]Definition, error) {
	if path == "" {
		return DefaultDefinitions(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions validates a YAML document against the definitions schema
// and decodes it.
func ParseDefinitions(data []byte) ([]Definition, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chart definitions: %w", err)
	}

	seen := make(map[string]bool, len(file.Charts))
	for i, def := range file.Charts {
		if seen[def.File] {
			return nil, fmt.Errorf("%w: charts[%d]: duplicate file %q", ErrInvalidDefinitions, i, def.File)
		}
		seen[def.File] = true
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("charts[%d]: %w", i, err)
		}
	}
	return file.Charts, nil
}

// Validate checks the cross references the schema cannot express
func (d *Definition) Validate() error {
	if d.File == "" || strings.ContainsAny(d.File, `/\`) {
		return fmt.Errorf("%w: file %q must be a bare file name", ErrInvalidDefinitions, d.File)
	}
	if _, ok := labelSets[d.LabelSet]; !ok {
		return fmt.Errorf("%w: %s: unknown label set %q", ErrInvalidDefinitions, d.File, d.LabelSet)
	}
	if d.ForceMaximumValue != nil && *d.ForceMaximumValue <= 0 {
		return fmt.Errorf("%w: %s: force_maximum_value must be positive", ErrInvalidDefinitions, d.File)
	}
	if len(d.Bars) == 0 {
		return fmt.Errorf("%w: %s: no bars", ErrInvalidDefinitions, d.File)
	}

	names := make(map[string]bool, len(d.Bars))
	for _, bar := range d.Bars {
		if names[bar.Name] {
			return fmt.Errorf("%w: %s: duplicate bar %q", ErrInvalidDefinitions, d.File, bar.Name)
		}
		names[bar.Name] = true
	}
	for _, bar := range d.Bars {
		if bar.CompareTo == "" {
			continue
		}
		if bar.CompareTo == bar.Name || !names[bar.CompareTo] {
			return fmt.Errorf("%w: %s: bar %q compares to %q", ErrInvalidDefinitions, d.File, bar.Name, bar.CompareTo)
		}
	}
	return nil
}

func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse chart definitions: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidDefinitions)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert chart definitions to JSON: %w", err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definitionsSchema))
	if err != nil {
		return fmt.Errorf("failed to compile definitions schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(string(docJSON)))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			problems[i] = e.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidDefinitions, strings.Join(problems, "; "))
	}
	return nil
}
