package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBuilder logs every step it is asked to perform
type recordingBuilder struct {
	steps  []string
	failOn string
}

func (b *recordingBuilder) step(name string) error {
	b.steps = append(b.steps, name)
	if name == b.failOn {
		return errors.New(name + " failed")
	}
	return nil
}

func (b *recordingBuilder) Project() string        { return "proj" }
func (b *recordingBuilder) ToolchainLabel() string { return "Tool 1" }

func (b *recordingBuilder) Prepare(context.Context) error           { return b.step("prepare") }
func (b *recordingBuilder) Clean(context.Context) error             { return b.step("clean") }
func (b *recordingBuilder) Configure(context.Context) error         { return b.step("configure") }
func (b *recordingBuilder) BuildDependencies(context.Context) error { return b.step("deps") }
func (b *recordingBuilder) Build(context.Context) error             { return b.step("build") }
func (b *recordingBuilder) BuildAndTest(context.Context) error      { return b.step("build+test") }
func (b *recordingBuilder) Test(context.Context) error              { return b.step("test") }

type phase struct {
	name string
	run  func(context.Context) error
}

func phases(b Benchmark) []phase {
	return []phase{
		{"before all", b.BeforeAll},
		{"before each", b.BeforeEach},
		{"timed", b.RunTimed},
		{"after each", b.AfterEach},
		{"after all", b.AfterAll},
	}
}

func TestBenchmarkKinds(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "lex.cpp")
	require.NoError(t, os.WriteFile(source, []byte("int x;\n"), 0644))

	tests := []struct {
		name      string
		benchmark func(Builder) Benchmark
		wantName  string
		want      map[string][]string
	}{
		{
			name:      "full",
			benchmark: func(b Builder) Benchmark { return NewFullBenchmark(b) },
			wantName:  "full build and test",
			want: map[string][]string{
				"before all":  {"prepare"},
				"before each": {"clean"},
				"timed":       {"configure", "build+test"},
			},
		},
		{
			name:      "half",
			benchmark: func(b Builder) Benchmark { return NewHalfBenchmark(b) },
			wantName:  "build and test only my code",
			want: map[string][]string{
				"before all":  {"prepare"},
				"before each": {"clean", "configure", "deps"},
				"timed":       {"build+test"},
			},
		},
		{
			name: "incremental",
			benchmark: func(b Builder) Benchmark {
				return NewIncrementalBenchmark(b, []string{source}, NewMutator())
			},
			wantName: "incremental build and test (lex.cpp)",
			want: map[string][]string{
				"before all": {"prepare", "clean", "configure", "build"},
				"timed":      {"build+test"},
			},
		},
		{
			name:      "test only",
			benchmark: func(b Builder) Benchmark { return NewTestOnlyBenchmark(b) },
			wantName:  "test only",
			want: map[string][]string{
				"before all": {"prepare", "clean", "configure", "build"},
				"timed":      {"test"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &recordingBuilder{}
			b := tt.benchmark(builder)
			assert.Equal(t, tt.wantName, b.Name())
			assert.Equal(t, "proj, Tool 1, "+tt.wantName, FullName(b))

			for _, p := range phases(b) {
				builder.steps = nil
				require.NoError(t, p.run(context.Background()), p.name)
				assert.Equal(t, tt.want[p.name], builder.steps, p.name)
			}
		})
	}
}

func TestIncrementalBenchmarkMutatesAndRestores(t *testing.T) {
	dir := t.TempDir()
	lex := filepath.Join(dir, "lex.rs")
	types := filepath.Join(dir, "diagnostic_types.rs")
	require.NoError(t, os.WriteFile(lex, []byte("fn lex() {}\n"), 0644))
	require.NoError(t, os.WriteFile(types, []byte("struct D;\n"), 0644))

	b := NewIncrementalBenchmark(&recordingBuilder{}, []string{lex, types}, NewMutator())
	assert.Equal(t, "incremental build and test (diagnostic_types.rs, lex.rs)", b.Name())

	ctx := context.Background()
	require.NoError(t, b.BeforeEach(ctx))
	require.NoError(t, b.BeforeEach(ctx))

	data, err := os.ReadFile(lex)
	require.NoError(t, err)
	assert.Equal(t, "// CACHE-BUST:4\n// CACHE-BUST:2\nfn lex() {}\n", string(data))

	require.NoError(t, b.AfterAll(ctx))
	data, err = os.ReadFile(lex)
	require.NoError(t, err)
	assert.Equal(t, "fn lex() {}\n", string(data))
	data, err = os.ReadFile(types)
	require.NoError(t, err)
	assert.Equal(t, "struct D;\n", string(data))
}

func TestBenchmarkStepsStopAtFirstError(t *testing.T) {
	builder := &recordingBuilder{failOn: "configure"}
	err := NewTestOnlyBenchmark(builder).BeforeAll(context.Background())
	require.EqualError(t, err, "configure failed")
	assert.Equal(t, []string{"prepare", "clean", "configure"}, builder.steps)
}
