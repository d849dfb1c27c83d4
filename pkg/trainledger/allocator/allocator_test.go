package allocator_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/randalmurphal/trainledger/pkg/trainledger/allocator"
	tlerrors "github.com/randalmurphal/trainledger/pkg/trainledger/errors"
	"github.com/randalmurphal/trainledger/pkg/trainledger/runid"
	"github.com/randalmurphal/trainledger/pkg/trainledger/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseStrategy(t *testing.T) {
	s, err := allocator.ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, allocator.StrategyDirCount, s)

	s, err = allocator.ParseStrategy(" Counter ")
	require.NoError(t, err)
	assert.Equal(t, allocator.StrategyCounter, s)

	_, err = allocator.ParseStrategy("uuid")
	assert.Error(t, err)
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want allocator.Backend
	}{
		{"", allocator.BackendJSON},
		{"json", allocator.BackendJSON},
		{"SQLite", allocator.BackendSQLite},
		{"memory", allocator.BackendMemory},
	}
	for _, tt := range tests {
		got, err := allocator.ParseBackend(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := allocator.ParseBackend("redis")
	assert.Error(t, err)
}

func TestDirCount_SequentialWithoutGaps(t *testing.T) {
	root := filepath.Join(t.TempDir(), "A2C")
	alloc := allocator.NewDirCount("A2C", root)

	const n = 6
	var got []int
	for i := 0; i < n; i++ {
		id, err := alloc.Next()
		require.NoError(t, err)
		got = append(got, id)
		require.NoError(t, os.MkdirAll(filepath.Join(root, runid.Encode(id)), 0o755))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
}

func TestDirCount_IdempotentUntilMaterialized(t *testing.T) {
	alloc := allocator.NewDirCount("PPO", filepath.Join(t.TempDir(), "PPO"))

	a, err := alloc.Next()
	require.NoError(t, err)
	b, err := alloc.Next()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, a)
}

func TestDirCount_IgnoresFiles(t *testing.T) {
	alloc := &allocator.DirCount{
		Family: "PPO",
		Root:   "models/PPO",
		Lister: storage.FromFS(fstest.MapFS{
			"models/PPO/Run1/3000.zip": {},
			"models/PPO/readme.txt":    {},
		}),
	}

	id, err := alloc.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestDirCount_Conflict(t *testing.T) {
	// Run1 deleted by hand, Run2 remains: one dir, next would be 2.
	alloc := &allocator.DirCount{
		Family: "A2C",
		Root:   "models/A2C",
		Lister: storage.FromFS(fstest.MapFS{
			"models/A2C/Run2/3000.zip": {},
		}),
	}

	_, err := alloc.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, tlerrors.ErrNumberingConflict)
	assert.Equal(t, tlerrors.CategoryCallerError, tlerrors.Categorize(err))
}

func TestCounter_IncrementsEveryCall(t *testing.T) {
	root := filepath.Join(t.TempDir(), "PPO")
	alloc := allocator.NewCounter("PPO", root, allocator.NewMemoryStore())

	// Nothing materialized: numbers are burned, never repeated.
	for want := 1; want <= 3; want++ {
		id, err := alloc.Next()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, allocator.StrategyCounter, alloc.Strategy())
}

func TestCounter_DetectsDirCountRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "A2C")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Run1"), 0o755))

	alloc := allocator.NewCounter("A2C", root, allocator.NewMemoryStore())

	_, err := alloc.Next()
	var conflict *tlerrors.NumberingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.ID)
	assert.Equal(t, "counter", conflict.Strategy)
}

func TestCounter_StoreError(t *testing.T) {
	store := allocator.NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := allocator.NewCounter("A2C", t.TempDir(), store).Next()
	assert.ErrorIs(t, err, allocator.ErrStoreClosed)
}
