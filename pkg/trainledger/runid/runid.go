// Package runid converts run identifiers to and from directory-name tokens.
//
// A run directory is named with the literal prefix "Run" followed by the
// decimal identifier, e.g. "Run12". Decoding is tolerant: it never fails, and
// reports through its boolean result whether an identifier was actually found.
package runid

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Prefix is the literal that precedes the identifier in a run directory name.
const Prefix = "Run"

// DefaultID is returned by Decode and DecodePath when no token matches.
// It is a placeholder, not a resolved identifier.
const DefaultID = 1

var tokenPattern = regexp.MustCompile(Prefix + `(\d+)`)

// Valid reports whether id can be encoded.
func Valid(id int) bool {
	return id >= 1
}

// Encode returns the canonical directory name for id.
// The result is only meaningful for Valid identifiers.
func Encode(id int) string {
	return Prefix + strconv.Itoa(id)
}

// Decode extracts the identifier from a single name such as "Run7".
// The first "Run<digits>" occurrence wins. When nothing matches (or the
// digits overflow an int) it returns DefaultID and false.
func Decode(token string) (int, bool) {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return DefaultID, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil || id < 1 {
		return DefaultID, false
	}
	return id, true
}

// DecodePath looks for a run token in every component of path, nearest to
// the leaf first, so "models/PPO/Run3/9000.zip" decodes to 3.
func DecodePath(path string) (int, bool) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if id, ok := Decode(parts[i]); ok {
			return id, true
		}
	}
	return DefaultID, false
}

// IsCanonical reports whether name is exactly Encode(id) for some valid id.
// "Run007" and "Run3-old" decode but are not canonical.
func IsCanonical(name string) bool {
	id, ok := Decode(name)
	return ok && Encode(id) == name
}
