// Package toolchain discovers the C++ and Rust toolchains installed on the
// host and drives builds of the benchmarked projects with them.
package toolchain

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/buildbench/runner/driver"
)

const probeProgram = "#include <version>\nint main(){}"

// ProbeCache remembers whether a compiler accepts a set of flags
type ProbeCache struct {
	exec driver.Executor

	mu      sync.Mutex
	results map[string]bool
}

// NewProbeCache creates a cache probing with e. e should discard output.
func NewProbeCache(e driver.Executor) *ProbeCache {
	return &ProbeCache{exec: e, results: make(map[string]bool)}
}

// Builds reports whether compiler can compile and link a trivial program with
// flags. A compiler that does not exist does not build.
func (p *ProbeCache) Builds(ctx context.Context, compiler string, flags []string) bool {
	key := compiler + "\x00" + strings.Join(flags, " ")
	p.mu.Lock()
	if ok, found := p.results[key]; found {
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	ok := p.probe(ctx, compiler, flags)

	p.mu.Lock()
	p.results[key] = ok
	p.mu.Unlock()
	return ok
}

func (p *ProbeCache) probe(ctx context.Context, compiler string, flags []string) bool {
	args := append([]string{compiler, "-x", "c++", "-", "-o", "/dev/null"}, flags...)
	_, err := p.exec.Output(ctx, driver.Command{Args: args, Stdin: probeProgram})
	return err == nil
}

// ResolveMold finds the mold linker. "none" disables mold and an empty
// setting looks mold up on PATH. It returns "" when mold is unavailable.
func ResolveMold(setting string) string {
	switch setting {
	case "none":
		return ""
	case "":
		path, err := exec.LookPath("mold")
		if err != nil {
			return ""
		}
		return path
	default:
		return setting
	}
}

// splitFlags joins flag strings and drops empty flags
func splitFlags(parts ...string) []string {
	var flags []string
	for _, part := range parts {
		flags = append(flags, strings.Fields(part)...)
	}
	return flags
}
