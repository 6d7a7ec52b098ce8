package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/buildbench/runner/config"
	"github.com/buildbench/runner/types"
)

// specFromCode maps a small integer onto one of a handful of identity tuples so that
// generated sequences contain plenty of repeated identities.
func specFromCode(code int) types.BenchmarkSpec {
	return types.BenchmarkSpec{
		Hostname:       fmt.Sprintf("host%d", code%2),
		Project:        fmt.Sprintf("project%d", (code/2)%2),
		ToolchainLabel: fmt.Sprintf("toolchain%d", (code/4)%2),
		BenchmarkName:  "full build and test",
	}
}

func TestProperty_RunStore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	openStore := func() (*RunStore, error) {
		return Open(context.Background(), &config.StorageConfig{Driver: config.DriverSQLite}, testLogger())
	}

	properties.Property("latest runs hold exactly the maximum id per identity", prop.ForAll(
		func(codes []int) bool {
			ctx := context.Background()
			store, err := openStore()
			if err != nil {
				return false
			}
			defer store.Close()

			expected := map[types.BenchmarkSpec]types.RunID{}
			for _, code := range codes {
				spec := specFromCode(code)
				id, err := store.CreateRun(ctx, spec.Hostname, spec.Project, spec.ToolchainLabel, spec.BenchmarkName)
				if err != nil {
					return false
				}
				expected[spec] = id
			}

			runs, err := store.LoadLatestRuns(ctx)
			if err != nil || len(runs) != len(expected) {
				return false
			}
			for _, run := range runs {
				if expected[run.Spec()] != run.ID {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.Property("all runs come back in id order with their samples", prop.ForAll(
		func(sampleCounts []int) bool {
			ctx := context.Background()
			store, err := openStore()
			if err != nil {
				return false
			}
			defer store.Close()

			var lastID types.RunID
			for i, count := range sampleCounts {
				id, err := store.CreateRun(ctx, "h", "p", "t", fmt.Sprintf("b%d", i))
				if err != nil || id <= lastID {
					return false
				}
				lastID = id
				for n := 0; n < count; n++ {
					if err := store.AddSample(ctx, id, types.NanosecondDuration(n+1)); err != nil {
						return false
					}
				}
			}

			runs, err := store.LoadAllRuns(ctx)
			if err != nil || len(runs) != len(sampleCounts) {
				return false
			}
			for i, run := range runs {
				if i > 0 && runs[i-1].ID >= run.ID {
					return false
				}
				if len(run.Samples) != sampleCounts[i] {
					return false
				}
				for n, sample := range run.Samples {
					if sample != types.NanosecondDuration(n+1) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.Property("loading by ids returns the known subset", prop.ForAll(
		func(runCount int, requested []int) bool {
			ctx := context.Background()
			store, err := openStore()
			if err != nil {
				return false
			}
			defer store.Close()

			known := map[types.RunID]bool{}
			for i := 0; i < runCount; i++ {
				id, err := store.CreateRun(ctx, "h", "p", "t", fmt.Sprintf("b%d", i))
				if err != nil {
					return false
				}
				known[id] = true
			}

			ids := make([]types.RunID, len(requested))
			want := map[types.RunID]bool{}
			for i, r := range requested {
				ids[i] = types.RunID(r)
				if known[ids[i]] {
					want[ids[i]] = true
				}
			}

			runs, err := store.LoadRunsByIDs(ctx, ids)
			if err != nil || len(runs) != len(want) {
				return false
			}
			for _, run := range runs {
				if !want[run.ID] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 6),
		gen.SliceOf(gen.IntRange(0, 12)),
	))

	properties.TestingRun(t)
}
