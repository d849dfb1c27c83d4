package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// bracePattern matches ${NAME}. Bare $NAME is left alone so glob patterns
// and literal dollars survive.
var bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// lookupEnv resolves variables in path settings.
var lookupEnv = os.LookupEnv

// UndefinedVariableError is returned when a path setting references an
// unset environment variable.
type UndefinedVariableError struct {
	Key   string
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("%s: undefined variable %s", e.Key, strings.Join(e.Names, ", "))
}

// expandPath replaces ${NAME} in value with the environment variable NAME.
// key names the setting in errors.
func expandPath(key, value string) (string, error) {
	var missing []string
	out := bracePattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := lookupEnv(name); ok {
			return v
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", &UndefinedVariableError{Key: key, Names: missing}
	}
	return out, nil
}
