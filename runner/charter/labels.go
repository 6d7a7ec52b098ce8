package charter

// labelSets shorten benchmark names into two-line group labels. The portable
// set gives C++ and Rust benchmarks over the same file a shared label.
var labelSets = map[string]map[string]string{
	"": nil,
	"rust": {
		"build and test only my code":                      "build+test\nw/o deps",
		"full build and test":                              "build+test\nw/ deps",
		"incremental build and test (diagnostic_types.rs)": "incremental\ndiag_types.rs",
		"incremental build and test (lex.rs)":              "incremental\nlex.rs",
		"incremental build and test (test_utf_8.rs)":       "incremental\ntest_utf_8.rs",
		"test only": "test only",
	},
	"portable": {
		"build and test only my code":                      "build+test\nw/o deps",
		"full build and test":                              "build+test\nw/ deps",
		"incremental build and test (diagnostic_types.rs)": "incremental\ndiag-types",
		"incremental build and test (diagnostic-types.h)":  "incremental\ndiag-types",
		"incremental build and test (lex.rs)":              "incremental\nlex",
		"incremental build and test (lex.cpp)":             "incremental\nlex",
		"incremental build and test (test_utf_8.rs)":       "incremental\ntest-utf-8",
		"incremental build and test (test-utf-8.cpp)":      "incremental\ntest-utf-8",
		"test only": "test only",
	},
}

// GroupLabel returns the group label for a benchmark name. Names the set does
// not know are used as they are.
func GroupLabel(labelSet, benchmarkName string) string {
	if label, ok := labelSets[labelSet][benchmarkName]; ok {
		return label
	}
	return benchmarkName
}
