package checkpoint_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

func mapDiscovery(files fstest.MapFS) *checkpoint.Discovery {
	return &checkpoint.Discovery{
		Lister:     storage.FromFS(files),
		Classifier: checkpoint.DefaultClassifier(),
	}
}

func steps(cps []checkpoint.Checkpoint) []int64 {
	out := make([]int64, len(cps))
	for i, cp := range cps {
		out[i] = cp.StepCount
	}
	return out
}

func paths(cps []checkpoint.Checkpoint) []string {
	out := make([]string, len(cps))
	for i, cp := range cps {
		out[i] = filepath.ToSlash(cp.Path)
	}
	return out
}

func TestLatest_HighestStep(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"A2C/Run1/3000.zip": {ModTime: at(1)},
		"A2C/Run1/6000.zip": {ModTime: at(2)},
		"A2C/Run1/9000.zip": {ModTime: at(3)},
	})

	cp, err := d.Latest("A2C/Run1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(9000), cp.StepCount)
	assert.Equal(t, "A2C/Run1", filepath.ToSlash(cp.Dir()))
}

func TestLatest_StepBeatsModTime(t *testing.T) {
	// 3000 was touched after 9000; the step count still wins.
	d := mapDiscovery(fstest.MapFS{
		"A2C/Run1/9000.zip": {ModTime: at(1)},
		"A2C/Run1/3000.zip": {ModTime: at(50)},
	})

	cp, err := d.Latest("A2C/Run1")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), cp.StepCount)
}

func TestLatest_ModTimeFallback(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"A2C/Run1/best.zip":  {ModTime: at(5)},
		"A2C/Run1/final.zip": {ModTime: at(9)},
		"A2C/Run1/older.zip": {ModTime: at(1)},
	})

	cp, err := d.Latest("A2C/Run1")
	require.NoError(t, err)
	assert.Equal(t, "A2C/Run1/final.zip", filepath.ToSlash(cp.Path))
	assert.False(t, cp.HasStep())
}

func TestLatest_Empty(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"A2C/Run1/notes.txt": {},
	})

	cp, err := d.Latest("A2C/Run1")
	require.NoError(t, err)
	assert.Nil(t, cp)

	cp, err = d.Latest("A2C/Run9")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestList_Ascending(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"PPO/Run2/9000.zip":    {ModTime: at(3)},
		"PPO/Run2/3000.zip":    {ModTime: at(1)},
		"PPO/Run2/6000.zip":    {ModTime: at(2)},
		"PPO/Run2/manual.zip":  {ModTime: at(10)},
		"PPO/Run2/.ckpt-1.tmp": {ModTime: at(11)},
	})

	cps, err := d.List("PPO/Run2")
	require.NoError(t, err)
	assert.Equal(t, []int64{checkpoint.NoStep, 3000, 6000, 9000}, steps(cps))

	latest, err := d.Latest("PPO/Run2")
	require.NoError(t, err)
	assert.Equal(t, cps[len(cps)-1], *latest)
}

func TestList_Recursive(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"PPO/Run1/3000.zip":        {ModTime: at(1)},
		"PPO/Run1/nested/6000.zip": {ModTime: at(2)},
	})

	cps, err := d.List("PPO/Run1")
	require.NoError(t, err)
	assert.Equal(t, []int64{3000, 6000}, steps(cps))
}

func TestTopN_AcrossRunsByModTime(t *testing.T) {
	// Three runs written in interleaved wall-clock order.
	d := mapDiscovery(fstest.MapFS{
		"PPO/Run1/3000.zip": {ModTime: at(1)},
		"PPO/Run1/6000.zip": {ModTime: at(2)},
		"PPO/Run2/3000.zip": {ModTime: at(3)},
		"PPO/Run1/9000.zip": {ModTime: at(4)},
		"PPO/Run3/3000.zip": {ModTime: at(5)},
		"PPO/Run2/6000.zip": {ModTime: at(6)},
		"PPO/Run3/6000.zip": {ModTime: at(7)},
	})

	top, err := d.TopN("PPO", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PPO/Run3/6000.zip",
		"PPO/Run2/6000.zip",
		"PPO/Run3/3000.zip",
		"PPO/Run1/9000.zip",
		"PPO/Run2/3000.zip",
	}, paths(top))
}

func TestTopN_Limits(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"PPO/Run1/3000.zip": {ModTime: at(1)},
		"PPO/Run1/6000.zip": {ModTime: at(2)},
	})

	all, err := d.TopN("PPO", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	more, err := d.TopN("PPO", 10)
	require.NoError(t, err)
	assert.Len(t, more, 2)

	none, err := d.TopN("A2C", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHasStep(t *testing.T) {
	d := mapDiscovery(fstest.MapFS{
		"A2C/Run1/03000.zip": {},
	})

	path, ok, err := d.HasStep("A2C/Run1", 3000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A2C/Run1/03000.zip", filepath.ToSlash(path))

	_, ok, err = d.HasStep("A2C/Run1", 6000)
	require.NoError(t, err)
	assert.False(t, ok)
}
