package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
)

// Discovery scans directory trees for checkpoint artifacts.
// It holds no state between calls; the filesystem is the source of truth.
type Discovery struct {
	Lister     storage.Lister
	Classifier *Classifier
}

// NewDiscovery creates a discovery over the real filesystem.
// A nil classifier means DefaultClassifier.
func NewDiscovery(c *Classifier) *Discovery {
	if c == nil {
		c = DefaultClassifier()
	}
	return &Discovery{Lister: storage.OS{}, Classifier: c}
}

// Scan returns every artifact under root, recursively, in walk order.
// A missing root yields an empty result.
func (d *Discovery) Scan(root string) ([]Checkpoint, error) {
	var out []Checkpoint
	if err := d.walk(root, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Discovery) walk(dir string, out *[]Checkpoint) error {
	entries, err := d.Lister.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := d.walk(path, out); err != nil {
				return err
			}
			continue
		}
		if !e.Type().IsRegular() || !d.Classifier.Match(path) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between listing and stat.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		step, _ := d.Classifier.StepCount(path)
		*out = append(*out, Checkpoint{
			Path:      path,
			StepCount: step,
			ModTime:   info.ModTime(),
			Size:      info.Size(),
		})
	}
	return nil
}

// newer orders checkpoints within one run: parsed step counts first and
// descending, then modification time descending, then path.
func newer(a, b Checkpoint) bool {
	if a.HasStep() != b.HasStep() {
		return a.HasStep()
	}
	if a.HasStep() && a.StepCount != b.StepCount {
		return a.StepCount > b.StepCount
	}
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Path > b.Path
}

// List returns the artifacts of one run, oldest first. Its last element is
// always what Latest returns. Artifacts without a parsable step count sort
// before all parsed ones, by modification time.
func (d *Discovery) List(runDir string) ([]Checkpoint, error) {
	cps, err := d.Scan(runDir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cps, func(i, j int) bool {
		return newer(cps[j], cps[i])
	})
	return cps, nil
}

// Latest returns the most recent artifact of a run, or nil when the run
// has none.
func (d *Discovery) Latest(runDir string) (*Checkpoint, error) {
	cps, err := d.Scan(runDir)
	if err != nil {
		return nil, err
	}
	if len(cps) == 0 {
		return nil, nil
	}
	best := cps[0]
	for _, cp := range cps[1:] {
		if newer(cp, best) {
			best = cp
		}
	}
	return &best, nil
}

// TopN returns up to n artifacts under a family root, most recently
// modified first, regardless of which run they belong to. Step counts are
// ignored across runs. n <= 0 returns all artifacts.
func (d *Discovery) TopN(root string, n int) ([]Checkpoint, error) {
	cps, err := d.Scan(root)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cps, func(i, j int) bool {
		if !cps[i].ModTime.Equal(cps[j].ModTime) {
			return cps[i].ModTime.After(cps[j].ModTime)
		}
		return cps[i].Path > cps[j].Path
	})
	if n > 0 && len(cps) > n {
		cps = cps[:n]
	}
	return cps, nil
}

// HasStep reports whether runDir already holds an artifact at step.
func (d *Discovery) HasStep(runDir string, step int64) (string, bool, error) {
	cps, err := d.Scan(runDir)
	if err != nil {
		return "", false, err
	}
	for _, cp := range cps {
		if cp.StepCount == step {
			return cp.Path, true, nil
		}
	}
	return "", false, nil
}
