package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("BB_TEST_VAR", "test_value")
	t.Setenv("BB_OTHER_VAR", "other_value")
	t.Setenv("BB_EMPTY_VAR", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "value: ${BB_TEST_VAR}",
			expected: "value: test_value",
		},
		{
			name:     "multiple substitutions",
			input:    "first: ${BB_TEST_VAR}, second: ${BB_OTHER_VAR}",
			expected: "first: test_value, second: other_value",
		},
		{
			name:     "unset variable",
			input:    "value: ${BB_UNSET_VAR}",
			expected: "value: ",
		},
		{
			name:     "default used when unset",
			input:    "path: ${BB_UNSET_VAR:-bench-build.db}",
			expected: "path: bench-build.db",
		},
		{
			name:     "default used when empty",
			input:    "path: ${BB_EMPTY_VAR:-fallback}",
			expected: "path: fallback",
		},
		{
			name:     "default ignored when set",
			input:    "path: ${BB_TEST_VAR:-fallback}",
			expected: "path: test_value",
		},
		{
			name:     "required and set",
			input:    "password: ${BB_TEST_VAR:?password required}",
			expected: "password: test_value",
		},
		{
			name:     "escaped reference",
			input:    "literal: $${BB_TEST_VAR}",
			expected: "literal: ${BB_TEST_VAR}",
		},
		{
			name:     "unterminated reference left alone",
			input:    "broken: ${BB_TEST_VAR",
			expected: "broken: ${BB_TEST_VAR",
		},
		{
			name:     "plain text",
			input:    "no references here",
			expected: "no references here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SubstituteEnvVars(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSubstituteEnvVarsRequired(t *testing.T) {
	t.Run("custom message", func(t *testing.T) {
		_, err := SubstituteEnvVars("password: ${BB_UNSET_PASSWORD:?set the database password}")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingEnv)
		assert.Contains(t, err.Error(), "set the database password")
	})

	t.Run("default message", func(t *testing.T) {
		_, err := SubstituteEnvVars("password: ${BB_UNSET_PASSWORD:?}")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BB_UNSET_PASSWORD is not set")
	})

	t.Run("all missing variables reported", func(t *testing.T) {
		out, err := SubstituteEnvVars("a: ${BB_MISSING_A:?a}\nb: ${BB_MISSING_B:?b}\nc: ok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a")
		assert.Contains(t, err.Error(), "b")
		assert.Equal(t, "a: \nb: \nc: ok", out)
	})
}
