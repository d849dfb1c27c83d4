package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/randalmurphal/trainledger/pkg/trainledger/allocator"
	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
	"github.com/randalmurphal/trainledger/pkg/trainledger/lifecycle"
	"github.com/randalmurphal/trainledger/pkg/trainledger/training"
)

// DefaultRoot is the directory holding one subdirectory per family.
const DefaultRoot = "models"

// SQLiteFile is the counter database name under CounterDir.
const SQLiteFile = "counters.db"

// FamilySettings configures one model family.
type FamilySettings struct {
	// Dir is the family root. Relative paths are joined to Settings.Root.
	Dir string

	Strategy allocator.Strategy

	// Backend is only used by allocator.StrategyCounter.
	Backend allocator.Backend
}

// TrainingSettings configures the training loop.
type TrainingSettings struct {
	Unit       int64
	Iterations int
}

// Settings is the resolved configuration of a ledger.
type Settings struct {
	Root            string
	CounterDir      string
	ArtifactExt     string
	ArtifactPattern string
	EmptyRunPolicy  lifecycle.EmptyRunPolicy
	Families        map[family.Family]FamilySettings
	Training        TrainingSettings
}

// DefaultSettings lays families out as models/A2C and models/PPO, both
// numbered by directory count.
func DefaultSettings() Settings {
	s := Settings{
		Root:            DefaultRoot,
		CounterDir:      DefaultRoot,
		ArtifactExt:     checkpoint.DefaultExt,
		ArtifactPattern: "*" + checkpoint.DefaultExt,
		EmptyRunPolicy:  lifecycle.EmptyRunReuseFirst,
		Families:        make(map[family.Family]FamilySettings, len(family.All)),
		Training: TrainingSettings{
			Unit:       training.DefaultUnit,
			Iterations: training.DefaultIterations,
		},
	}
	for _, f := range family.All {
		s.Families[f] = FamilySettings{
			Dir:      f.String(),
			Strategy: allocator.StrategyDirCount,
			Backend:  allocator.BackendJSON,
		}
	}
	return s
}

// FamilyRoot returns the absolute or root-relative directory of f.
func (s Settings) FamilyRoot(f family.Family) string {
	fs, ok := s.Families[f]
	dir := f.String()
	if ok && fs.Dir != "" {
		dir = fs.Dir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.Root, dir)
}

// CounterPath returns where a counter backend keeps its state: a directory
// for BackendJSON, a database file for BackendSQLite.
func (s Settings) CounterPath(b allocator.Backend) string {
	dir := s.CounterDir
	if dir == "" {
		dir = s.Root
	}
	if b == allocator.BackendSQLite {
		return filepath.Join(dir, SQLiteFile)
	}
	return dir
}

// WithRoot returns a copy whose root, and counter directory if it followed
// the root, point at root.
func (s Settings) WithRoot(root string) Settings {
	if s.CounterDir == "" || s.CounterDir == s.Root {
		s.CounterDir = root
	}
	s.Root = root
	return s
}

// Validate reports the first inconsistent setting.
func (s Settings) Validate() error {
	if s.Root == "" {
		return errors.New("root must be set")
	}
	if len(s.Families) == 0 {
		return errors.New("at least one family must be configured")
	}
	for f, fs := range s.Families {
		if !f.Valid() {
			return fmt.Errorf("invalid family %s", f)
		}
		if _, err := allocator.ParseStrategy(string(fs.Strategy)); err != nil {
			return fmt.Errorf("family %s: %w", f, err)
		}
		if _, err := allocator.ParseBackend(string(fs.Backend)); err != nil {
			return fmt.Errorf("family %s: %w", f, err)
		}
	}
	if _, err := checkpoint.NewClassifier(s.ArtifactExt, s.ArtifactPattern); err != nil {
		return err
	}
	if s.Training.Unit <= 0 {
		return fmt.Errorf("training unit must be positive, got %d", s.Training.Unit)
	}
	if s.Training.Iterations <= 0 {
		return fmt.Errorf("training iterations must be positive, got %d", s.Training.Iterations)
	}
	return nil
}

// Decode builds Settings from a loaded document. Keys that are absent keep
// their DefaultSettings value; a families section replaces the default
// family set entirely.
func Decode(c Config) (Settings, error) {
	s := DefaultSettings()

	root, err := expandPath("root", c.String("root", s.Root))
	if err != nil {
		return Settings{}, err
	}
	s.Root = root
	s.CounterDir, err = expandPath("counter_dir", c.String("counter_dir", s.Root))
	if err != nil {
		return Settings{}, err
	}
	s.ArtifactExt = c.String("artifact_ext", s.ArtifactExt)
	s.ArtifactPattern = c.String("artifact_pattern", "*"+s.ArtifactExt)

	policy, err := lifecycle.ParseEmptyRunPolicy(c.String("empty_run_policy", ""))
	if err != nil {
		return Settings{}, err
	}
	s.EmptyRunPolicy = policy

	if c.Has("families") {
		fams := c.Section("families")
		s.Families = make(map[family.Family]FamilySettings, len(fams.Keys()))
		for _, name := range fams.Keys() {
			f, err := family.Parse(name)
			if err != nil {
				return Settings{}, fmt.Errorf("families: %w", err)
			}
			sec := fams.Section(name)
			strategy, err := allocator.ParseStrategy(sec.String("strategy", ""))
			if err != nil {
				return Settings{}, fmt.Errorf("family %s: %w", f, err)
			}
			backend, err := allocator.ParseBackend(sec.String("counter_backend", ""))
			if err != nil {
				return Settings{}, fmt.Errorf("family %s: %w", f, err)
			}
			dir, err := expandPath("families."+name+".dir", sec.String("dir", f.String()))
			if err != nil {
				return Settings{}, err
			}
			s.Families[f] = FamilySettings{
				Dir:      dir,
				Strategy: strategy,
				Backend:  backend,
			}
		}
	}

	tr := c.Section("training")
	s.Training.Unit = int64(tr.Int("unit", int(s.Training.Unit)))
	s.Training.Iterations = tr.Int("iterations", s.Training.Iterations)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads Settings from a YAML or JSON file. Errors from decoding or
// validation are prefixed with the path.
func Load(path string) (Settings, error) {
	c, err := ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	s, err := Decode(c)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
