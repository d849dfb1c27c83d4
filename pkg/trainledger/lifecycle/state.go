package lifecycle

import (
	"fmt"
	"strings"
)

// State is a step of the resolution state machine:
//
//	Start → {Fresh, ResumeFromPath, ResumeFromRegistry, Fallback} → Resolved
//
// Fallback always continues to Fresh or ResumeFromPath.
type State int

const (
	StateStart State = iota
	StateFresh
	StateResumeFromPath
	StateResumeFromRegistry
	StateFallback
	StateResolved
)

// String returns the state name used in logs and metrics.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFresh:
		return "fresh"
	case StateResumeFromPath:
		return "resume_from_path"
	case StateResumeFromRegistry:
		return "resume_from_registry"
	case StateFallback:
		return "fallback"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// EmptyRunPolicy decides which run a resume falls back to when the
// selected run has no checkpoints.
type EmptyRunPolicy int

const (
	// EmptyRunReuseFirst starts fresh as run 1 regardless of which runs
	// exist. Saves may then collide with run 1's existing step counts and
	// be rejected.
	EmptyRunReuseFirst EmptyRunPolicy = iota

	// EmptyRunAllocate starts fresh under a newly allocated identifier.
	EmptyRunAllocate
)

// String returns the policy name as used in configuration.
func (p EmptyRunPolicy) String() string {
	switch p {
	case EmptyRunReuseFirst:
		return "reuse_first"
	case EmptyRunAllocate:
		return "allocate"
	default:
		return "unknown"
	}
}

// ParseEmptyRunPolicy reads a policy name. Empty means EmptyRunReuseFirst.
func ParseEmptyRunPolicy(s string) (EmptyRunPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reuse_first":
		return EmptyRunReuseFirst, nil
	case "allocate":
		return EmptyRunAllocate, nil
	default:
		return 0, fmt.Errorf("unknown empty run policy %q", s)
	}
}
