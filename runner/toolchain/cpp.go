package toolchain

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/driver"
)

// CPPConfig is one way of building the C++ project
type CPPConfig struct {
	Label     string
	Compiler  string
	CXXFlags  []string
	LinkFlags []string
	PCH       bool
}

func (c CPPConfig) probeFlags() []string {
	flags := append([]string(nil), c.CXXFlags...)
	return append(flags, c.LinkFlags...)
}

// FindCPPConfigs probes every compiler variant and returns those that build.
// mold is the mold linker path, or "" to skip mold variants.
func FindCPPConfigs(ctx context.Context, compilers []config.CompilerConfig, mold string, probe *ProbeCache) []CPPConfig {
	var configs []CPPConfig

	tryAdd := func(c CPPConfig) {
		if probe.Builds(ctx, c.Compiler, c.probeFlags()) {
			configs = append(configs, c)
		}
		if c.PCH {
			instantiated := c
			instantiated.Label = c.Label + " -fpch-instantiate-templates"
			instantiated.CXXFlags = append(append([]string(nil), c.CXXFlags...), "-fpch-instantiate-templates")
			if probe.Builds(ctx, instantiated.Compiler, instantiated.probeFlags()) {
				configs = append(configs, instantiated)
			}
		}
	}

	tryAddVariants := func(label, compiler, stdlibFlag string) {
		for _, g := range []string{"", "-g0"} {
			for _, pch := range []bool{false, true} {
				suffix := ""
				if pch {
					suffix += " PCH"
				}
				if g != "" {
					suffix += " " + g
				}
				cxxFlags := splitFlags(stdlibFlag, g)
				tryAdd(CPPConfig{
					Label:    label + suffix,
					Compiler: compiler,
					CXXFlags: cxxFlags,
					PCH:      pch,
				})
				if mold != "" {
					tryAdd(CPPConfig{
						Label:     label + suffix + " Mold",
						Compiler:  compiler,
						CXXFlags:  cxxFlags,
						LinkFlags: []string{"-Wl,-fuse-ld=" + mold},
						PCH:       pch,
					})
				}
			}
		}
	}

	for _, compiler := range compilers {
		if compiler.Clang {
			tryAddVariants(compiler.Label+" libstdc++", compiler.Path, "-stdlib=libstdc++")
			tryAddVariants(compiler.Label+" libc++", compiler.Path, "-stdlib=libc++")
		} else {
			tryAddVariants(compiler.Label, compiler.Path, "")
		}
	}
	return configs
}

// CPPBuilder builds the CMake project under root with one CPPConfig
type CPPBuilder struct {
	root   string
	config CPPConfig
	tc     config.ToolchainConfig
	exec   driver.Executor
}

// NewCPPBuilder creates a builder for the C++ project at root
func NewCPPBuilder(root string, c CPPConfig, tc config.ToolchainConfig, e driver.Executor) *CPPBuilder {
	return &CPPBuilder{root: root, config: c, tc: tc, exec: e}
}

func (b *CPPBuilder) Project() string        { return filepath.Base(b.root) }
func (b *CPPBuilder) ToolchainLabel() string { return b.config.Label }

func (b *CPPBuilder) buildDir() string {
	return filepath.Join(b.root, "build")
}

func (b *CPPBuilder) Prepare(context.Context) error { return nil }

func (b *CPPBuilder) Clean(context.Context) error {
	return driver.DeleteDir(b.buildDir())
}

func (b *CPPBuilder) Configure(ctx context.Context) error {
	link := strings.Join(b.config.LinkFlags, " ")
	pch := "NO"
	if b.config.PCH {
		pch = "YES"
	}
	return b.exec.Run(ctx, driver.Command{
		Dir: b.root,
		Args: []string{
			"cmake", "-S", ".", "-B", "build", "-G", "Ninja",
			"-DCMAKE_CXX_COMPILER=" + b.config.Compiler,
			"-DCMAKE_CXX_FLAGS=" + strings.Join(b.config.CXXFlags, " "),
			"-DCMAKE_EXE_LINKER_FLAGS=" + link,
			"-DCMAKE_SHARED_LINKER_FLAGS=" + link,
			"-DQUICK_LINT_JS_PRECOMPILE_HEADERS=" + pch,
		},
	})
}

func (b *CPPBuilder) ninja(ctx context.Context, targets ...string) error {
	args := append([]string{"ninja", "-C", b.buildDir(), "--"}, targets...)
	return b.exec.Run(ctx, driver.Command{Args: args})
}

func (b *CPPBuilder) BuildDependencies(ctx context.Context) error {
	return b.ninja(ctx, b.tc.CPPDependencyTargets...)
}

func (b *CPPBuilder) Build(ctx context.Context) error {
	return b.ninja(ctx, b.tc.CPPTestTarget)
}

func (b *CPPBuilder) BuildAndTest(ctx context.Context) error {
	if err := b.Build(ctx); err != nil {
		return err
	}
	return b.Test(ctx)
}

func (b *CPPBuilder) Test(ctx context.Context) error {
	return b.exec.Run(ctx, driver.Command{
		Args: []string{filepath.Join(b.buildDir(), filepath.FromSlash(b.tc.CPPTestExecutable))},
	})
}
