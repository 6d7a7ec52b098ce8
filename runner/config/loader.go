package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file, expanding environment references and
// applying defaults. A missing or empty path yields the defaults.
func LoadConfig(path string, log logrus.FieldLogger) (*Config, error) {
	log = log.WithField("component", "config")

	if path == "" {
		log.Debug("No config path provided, using defaults")
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Info("Config file not found, using defaults")
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"path":           path,
		"storage_driver": cfg.Storage.Driver,
		"iterations":     cfg.Benchmark.Iterations,
		"warmups":        cfg.Benchmark.WarmupIterations,
	}).Info("Loaded configuration")

	return cfg, nil
}

// ParseConfig decodes configuration text
func ParseConfig(data []byte) (*Config, error) {
	substituted, err := SubstituteEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(substituted), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
