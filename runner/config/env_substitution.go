package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrMissingEnv is returned when a ${VAR:?msg} reference names an unset variable
var ErrMissingEnv = errors.New("required environment variable missing")

// envRefPattern matches ${...} and its escaped form $${...}
var envRefPattern = regexp.MustCompile(`\$?\$\{([^}]*)\}`)

// SubstituteEnvVars expands environment references in configuration text:
//
//	${VAR}         value of VAR, empty when unset
//	${VAR:-value}  value of VAR, or value when VAR is empty or unset
//	${VAR:?msg}    value of VAR, or an error carrying msg
//	$${VAR}        the literal text ${VAR}
//
// Every missing required variable is reported; the returned text is still fully expanded.
func SubstituteEnvVars(content string) (string, error) {
	var errs []error
	out := envRefPattern.ReplaceAllStringFunc(content, func(ref string) string {
		if strings.HasPrefix(ref, "$$") {
			return ref[1:]
		}
		value, err := resolveEnvRef(ref[2 : len(ref)-1])
		if err != nil {
			errs = append(errs, err)
		}
		return value
	})
	return out, errors.Join(errs...)
}

func resolveEnvRef(expr string) (string, error) {
	name, rest, found := strings.Cut(expr, ":")
	if !found || rest == "" || (rest[0] != '-' && rest[0] != '?') {
		return os.Getenv(strings.TrimSpace(expr)), nil
	}

	name = strings.TrimSpace(name)
	value := os.Getenv(name)
	if value != "" {
		return value, nil
	}

	arg := strings.TrimSpace(rest[1:])
	if rest[0] == '-' {
		return arg, nil
	}
	if arg == "" {
		arg = fmt.Sprintf("%s is not set", name)
	}
	return "", fmt.Errorf("%w: %s", ErrMissingEnv, arg)
}
