package checkpoint

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExt is the artifact extension produced by the learner.
const DefaultExt = ".zip"

// Classifier decides which files are checkpoint artifacts and what step
// count their names carry.
type Classifier struct {
	ext     string
	pattern string
	glob    glob.Glob
}

// NewClassifier builds a classifier for artifacts with extension ext.
// pattern is matched against base names; empty means "*"+ext. A pattern
// that rejects the names FileName produces is an error, since the writer's
// own checkpoints would be invisible to discovery.
// Hidden files (leading dot), including the writer's temp files, never match.
func NewClassifier(ext, pattern string) (*Classifier, error) {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if pattern == "" {
		pattern = "*" + ext
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile artifact pattern %q: %w", pattern, err)
	}
	c := &Classifier{ext: ext, pattern: pattern, glob: g}
	if sample := c.FileName(0); !g.Match(sample) {
		return nil, fmt.Errorf("artifact pattern %q does not match written checkpoint names such as %q", pattern, sample)
	}
	return c, nil
}

// DefaultClassifier matches "*.zip".
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultExt, "")
	if err != nil {
		panic(err)
	}
	return c
}

// Ext returns the artifact extension, including the dot.
func (c *Classifier) Ext() string { return c.ext }

// Pattern returns the glob used to match base names.
func (c *Classifier) Pattern() string { return c.pattern }

// Match reports whether the base name of path is an artifact.
func (c *Classifier) Match(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return c.glob.Match(name)
}

// StepCount parses the step count from an artifact name: "9000.zip" is
// 9000. Names that are not plain decimal digits before the extension
// return NoStep and false.
func (c *Classifier) StepCount(path string) (int64, bool) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, c.ext)
	if stem == name || stem == "" {
		return NoStep, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return NoStep, false
		}
	}
	n, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return NoStep, false
	}
	return n, true
}

// FileName returns the canonical artifact name for a step count.
func (c *Classifier) FileName(step int64) string {
	return strconv.FormatInt(step, 10) + c.ext
}
