// Package family enumerates the model families a ledger tracks.
package family

import (
	"fmt"
	"strconv"
	"strings"
)

// Family identifies one trainable algorithm configuration. Each family owns
// its own root directory; families never share runs.
type Family int

const (
	// A2C is the advantage actor-critic family.
	A2C Family = iota + 1

	// PPO is the proximal policy optimization family.
	PPO
)

// All lists every known family in menu order.
var All = []Family{A2C, PPO}

// String returns the family name, which is also its default directory name.
func (f Family) String() string {
	switch f {
	case A2C:
		return "A2C"
	case PPO:
		return "PPO"
	default:
		return "Family(" + strconv.Itoa(int(f)) + ")"
	}
}

// Valid reports whether f is one of the enumerated families.
func (f Family) Valid() bool {
	return f == A2C || f == PPO
}

// Parse accepts a family name (case-insensitive) or its menu number
// ("1" for A2C, "2" for PPO).
func Parse(s string) (Family, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		f := Family(n)
		if f.Valid() {
			return f, nil
		}
		return 0, fmt.Errorf("unknown family number %d", n)
	}
	for _, f := range All {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown family %q", s)
}
