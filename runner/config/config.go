package config

import (
	"fmt"
	"strings"
)

// Config is the buildbench configuration file
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Charts    ChartsConfig    `yaml:"charts"`
	Server    ServerConfig    `yaml:"server"`
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// BenchmarkConfig controls the profiling loop
type BenchmarkConfig struct {
	// Root is the checkout containing the C++ project and the rust* projects
	Root             string `yaml:"root"`
	Iterations       int    `yaml:"iterations"`
	WarmupIterations int    `yaml:"warmup_iterations"`
	MetricsTextfile  string `yaml:"metrics_textfile"`
}

// CompilerConfig names one C++ compiler to probe
type CompilerConfig struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
	// Clang compilers are probed with both -stdlib=libstdc++ and -stdlib=libc++
	Clang bool `yaml:"clang"`
}

// CargoConfig names a cargo binary outside rustup
type CargoConfig struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// ToolchainConfig describes the toolchains and projects to benchmark
type ToolchainConfig struct {
	CPPRoot              string           `yaml:"cpp_root"`
	CPPCompilers         []CompilerConfig `yaml:"cpp_compilers"`
	CPPTestTarget        string           `yaml:"cpp_test_target"`
	CPPTestExecutable    string           `yaml:"cpp_test_executable"`
	CPPDependencyTargets []string         `yaml:"cpp_dependency_targets"`
	CPPMutateFiles       []string         `yaml:"cpp_mutate_files"`

	RustRootGlob         string        `yaml:"rust_root_glob"`
	RustupToolchains     []string      `yaml:"rustup_toolchains"`
	CustomCargos         []CargoConfig `yaml:"custom_cargos"`
	CargoClif            string        `yaml:"cargo_clif"`
	CargoProfiles        []string      `yaml:"cargo_profiles"`
	RustPrebuiltPackages []string      `yaml:"rust_prebuilt_packages"`
	RustMutateFiles      []string      `yaml:"rust_mutate_files"`

	// Mold is the mold linker; empty means look it up on PATH, "none" disables mold variants
	Mold string `yaml:"mold"`
}

// ChartsConfig controls chart generation
type ChartsConfig struct {
	Definitions string   `yaml:"definitions"`
	OutputDir   string   `yaml:"output_dir"`
	Databases   []string `yaml:"databases"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.Storage.applyDefaults()

	if c.Benchmark.Root == "" {
		c.Benchmark.Root = "."
	}
	if c.Benchmark.Iterations == 0 {
		c.Benchmark.Iterations = 3
	}
	if c.Benchmark.WarmupIterations == 0 {
		c.Benchmark.WarmupIterations = 2
	}

	t := &c.Toolchain
	if t.CPPRoot == "" {
		t.CPPRoot = "cpp"
	}
	if t.CPPCompilers == nil {
		t.CPPCompilers = []CompilerConfig{
			{Label: "Clang 12", Path: "clang++-12", Clang: true},
			{Label: "Clang", Path: "clang++", Clang: true},
			{Label: "GCC 12", Path: "g++-12"},
		}
	}
	if t.CPPTestTarget == "" {
		t.CPPTestTarget = "quick-lint-js-test"
	}
	if t.CPPTestExecutable == "" {
		t.CPPTestExecutable = "test/quick-lint-js-test"
	}
	if t.CPPDependencyTargets == nil {
		t.CPPDependencyTargets = []string{"gmock", "gmock_main", "gtest"}
	}
	if t.CPPMutateFiles == nil {
		t.CPPMutateFiles = []string{
			"src/quick-lint-js/fe/lex.cpp",
			"src/quick-lint-js/fe/diagnostic-types.h",
			"test/test-utf-8.cpp",
		}
	}
	if t.RustRootGlob == "" {
		t.RustRootGlob = "rust*"
	}
	if t.RustupToolchains == nil {
		t.RustupToolchains = []string{"stable", "nightly"}
	}
	if t.CargoProfiles == nil {
		t.CargoProfiles = []string{"", "quick-build-incremental", "quick-build-nonincremental"}
	}
	if t.RustPrebuiltPackages == nil {
		t.RustPrebuiltPackages = []string{"lazy_static", "libc", "memoffset"}
	}
	if t.RustMutateFiles == nil {
		t.RustMutateFiles = []string{"lex.rs", "diagnostic_types.rs", "test_utf_8.rs"}
	}

	if c.Charts.OutputDir == "" {
		c.Charts.OutputDir = "docs/build-charts"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c.Benchmark.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative")
	}
	if c.Benchmark.WarmupIterations < 0 {
		return fmt.Errorf("warmup_iterations must not be negative")
	}
	for i, compiler := range c.Toolchain.CPPCompilers {
		if compiler.Label == "" || compiler.Path == "" {
			return fmt.Errorf("cpp_compilers[%d]: label and path are required", i)
		}
	}
	for i, cargo := range c.Toolchain.CustomCargos {
		if cargo.Label == "" || cargo.Path == "" {
			return fmt.Errorf("custom_cargos[%d]: label and path are required", i)
		}
	}
	return nil
}
