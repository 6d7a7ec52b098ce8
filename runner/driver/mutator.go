package driver

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

var cacheBustLine = regexp.MustCompile(`^// CACHE-BUST:`)

// Mutator touches source files so build tools see a real content change.
// One Mutator is shared by every incremental benchmark of a session so that
// each mutation writes a marker never seen before.
type Mutator struct {
	mu      sync.Mutex
	counter int
}

// NewMutator creates a Mutator whose first marker is 2
func NewMutator() *Mutator {
	return &Mutator{counter: 1}
}

// Mutate prepends a fresh cache-bust comment to path
func (m *Mutator) Mutate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	m.mu.Lock()
	m.counter++
	marker := m.counter
	m.mu.Unlock()

	mutated := fmt.Sprintf("// CACHE-BUST:%d\n%s", marker, data)
	if err := os.WriteFile(path, []byte(mutated), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Unmutate removes every cache-bust comment from path
func (m *Mutator) Unmutate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	// a trailing newline leaves an empty final element
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	kept := lines[:0]
	for _, line := range lines {
		if !cacheBustLine.MatchString(line) {
			kept = append(kept, line)
		}
	}

	restored := strings.Join(kept, "\n") + "\n"
	if err := os.WriteFile(path, []byte(restored), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
