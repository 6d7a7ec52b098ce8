package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/driver"
)

// Cargo is a labelled cargo binary
type Cargo struct {
	Label string
	Path  string
}

// Rustc returns the compiler shipped next to the cargo binary
func (c Cargo) Rustc() string {
	name := "rustc"
	if filepath.Base(c.Path) == "cargo-clif" {
		name = "rustc-clif"
	}
	return filepath.Join(filepath.Dir(c.Path), name)
}

// RustConfig is one way of building a Rust project
type RustConfig struct {
	Root  string
	Label string
	Cargo Cargo
	// Profile is the cargo profile, or "" for cargo's default
	Profile   string
	RustFlags string
	Nextest   bool
}

// ResolveCargos finds the cargo binaries to benchmark. Rustup toolchains that
// are not installed and custom cargos that do not exist are skipped.
func ResolveCargos(ctx context.Context, tc config.ToolchainConfig, e driver.Executor, log logrus.FieldLogger) []Cargo {
	var cargos []Cargo
	for _, toolchain := range tc.RustupToolchains {
		out, err := e.Output(ctx, driver.Command{
			Args: []string{"rustup", "which", "--toolchain", toolchain, "--", "cargo"},
		})
		if err != nil {
			log.WithError(err).WithField("toolchain", toolchain).Warn("Skipping rustup toolchain")
			continue
		}
		cargos = append(cargos, Cargo{
			Label: "Rust " + capitalize(toolchain),
			Path:  strings.TrimRight(out, "\r\n"),
		})
	}

	for _, custom := range tc.CustomCargos {
		if _, err := os.Stat(custom.Path); err != nil {
			log.WithField("cargo", custom.Path).Warn("Skipping missing cargo")
			continue
		}
		cargos = append(cargos, Cargo{Label: "Rust " + custom.Label, Path: custom.Path})
	}

	if tc.CargoClif != "" {
		if _, err := os.Stat(tc.CargoClif); err == nil {
			cargos = append(cargos, Cargo{Label: "Rust Cranelift", Path: tc.CargoClif})
		} else {
			log.WithField("cargo", tc.CargoClif).Warn("Skipping missing cargo-clif")
		}
	}
	return cargos
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// RustConfigs lists every configuration of the project at root, newest
// variants first. mold is the mold linker path, or "" to skip mold variants.
func RustConfigs(root string, cargos []Cargo, profiles []string, mold string) []RustConfig {
	var configs []RustConfig
	add := func(extraLabel, profile, rustflags string) {
		for _, cargo := range cargos {
			label := strings.TrimRight(cargo.Label+" "+extraLabel, " ")
			base := RustConfig{
				Root:      root,
				Label:     label,
				Cargo:     cargo,
				Profile:   profile,
				RustFlags: rustflags,
			}
			nextest := base
			nextest.Label = label + " cargo-nextest"
			nextest.Nextest = true
			configs = append(configs, base, nextest)
		}
	}

	for _, profile := range profiles {
		add(profile, profile, "")
		if mold != "" {
			add("Mold "+profile, profile, "-Clinker=clang -Clink-arg=-fuse-ld="+mold)
		}
	}
	slices.Reverse(configs)
	return configs
}

// RustBuilder builds one cargo project with one RustConfig
type RustBuilder struct {
	config   RustConfig
	prebuilt []string
	exec     driver.Executor
}

// NewRustBuilder creates a builder. prebuilt lists the packages built ahead
// of the timed step by HalfBenchmark.
func NewRustBuilder(c RustConfig, prebuilt []string, e driver.Executor) *RustBuilder {
	return &RustBuilder{config: c, prebuilt: prebuilt, exec: e}
}

func (b *RustBuilder) Project() string        { return filepath.Base(b.config.Root) }
func (b *RustBuilder) ToolchainLabel() string { return b.config.Label }

func (b *RustBuilder) command(args ...string) driver.Command {
	env := []string{"RUSTC=" + b.config.Cargo.Rustc()}
	if b.config.RustFlags != "" {
		env = append(env, "RUSTFLAGS="+b.config.RustFlags)
	}
	return driver.Command{
		Args: append([]string{b.config.Cargo.Path}, args...),
		Dir:  b.config.Root,
		Env:  env,
	}
}

// Prepare downloads dependencies so no timed step touches the network
func (b *RustBuilder) Prepare(ctx context.Context) error {
	return b.exec.Run(ctx, driver.Command{
		Args: []string{b.config.Cargo.Path, "fetch"},
		Dir:  b.config.Root,
	})
}

func (b *RustBuilder) Clean(context.Context) error {
	return driver.DeleteDir(filepath.Join(b.config.Root, "target"))
}

// Configure is a no-op; cargo has no separate configure step
func (b *RustBuilder) Configure(context.Context) error { return nil }

func (b *RustBuilder) BuildDependencies(ctx context.Context) error {
	args := []string{"build"}
	if b.config.Profile != "" {
		args = append(args, "--profile="+b.config.Profile)
	}
	for _, pkg := range b.prebuilt {
		args = append(args, "--package", pkg)
	}
	return b.exec.Run(ctx, b.command(args...))
}

// Build compiles the tests by running them
func (b *RustBuilder) Build(ctx context.Context) error {
	return b.BuildAndTest(ctx)
}

func (b *RustBuilder) BuildAndTest(ctx context.Context) error {
	var args []string
	if b.config.Nextest {
		args = []string{"nextest", "run"}
		if b.config.Profile != "" {
			args = append(args, "--cargo-profile="+b.config.Profile)
		}
	} else {
		args = []string{"test"}
		if b.config.Profile != "" {
			args = append(args, "--profile="+b.config.Profile)
		}
	}
	return b.exec.Run(ctx, b.command(args...))
}

// Test reruns the tests; cargo relinks nothing when the build is fresh
func (b *RustBuilder) Test(ctx context.Context) error {
	return b.BuildAndTest(ctx)
}
