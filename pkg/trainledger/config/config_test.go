package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/trainledger/pkg/trainledger/config"
)

func TestConfig_String(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"root": "runs"}, "runs"},
		{"key missing", map[string]any{}, "models"},
		{"empty string", map[string]any{"root": ""}, ""},
		{"wrong type", map[string]any{"root": 3}, "models"},
		{"nil map", nil, "models"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("root", "models"))
		})
	}
}

func TestConfig_Int(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"int", 3000, 3000},
		{"int64", int64(12), 12},
		{"whole float64", float64(29), 29},
		{"fractional float64", 2.5, 7},
		{"string", "3000", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.New(map[string]any{"n": tt.val})
			assert.Equal(t, tt.want, c.Int("n", 7))
		})
	}
	assert.Equal(t, 7, config.New(nil).Int("n", 7))
}

func TestConfig_Section(t *testing.T) {
	c := config.New(map[string]any{
		"training": map[string]any{"unit": 10},
		"root":     "models",
	})

	assert.Equal(t, 10, c.Section("training").Int("unit", 0))
	assert.Empty(t, c.Section("root").Keys(), "non-mapping value yields empty section")
	assert.Empty(t, c.Section("missing").Keys())
	assert.Equal(t, []string{"root", "training"}, c.Keys())
	assert.True(t, c.Has("root"))
	assert.False(t, c.Has("families"))
	assert.Len(t, c.Raw(), 2)
}

func TestFromYAML(t *testing.T) {
	c, err := config.FromYAML([]byte("root: runs\ntraining:\n  unit: 500\n"))
	require.NoError(t, err)
	assert.Equal(t, "runs", c.String("root", ""))
	assert.Equal(t, 500, c.Section("training").Int("unit", 0))

	_, err = config.FromYAML([]byte("root: [unclosed"))
	assert.Error(t, err)

	c, err = config.FromYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, c.Keys())
}

func TestFromJSON(t *testing.T) {
	c, err := config.FromJSON([]byte(`{"root": "runs", "training": {"iterations": 4}}`))
	require.NoError(t, err)
	assert.Equal(t, "runs", c.String("root", ""))
	assert.Equal(t, 4, c.Section("training").Int("iterations", 0))

	_, err = config.FromJSON([]byte(`{"root":`))
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want config.Format
	}{
		{"trainledger.yaml", config.FormatYAML},
		{"ledger.YML", config.FormatYAML},
		{"/etc/rl/ledger.json", config.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := config.FormatOf(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, path := range []string{"ledger.toml", "ledger", ".env"} {
		_, err := config.FormatOf(path)
		assert.ErrorContains(t, err, "unsupported config file extension", path)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, f := range []config.Format{config.FormatYAML, config.FormatJSON} {
		c, err := config.Parse(f, []byte("  \n"))
		require.NoError(t, err, f)
		assert.Equal(t, "fallback", c.String("root", "fallback"))
	}

	_, err := config.Parse(config.Format("toml"), []byte(`root = "t"`))
	assert.ErrorContains(t, err, "unknown config format")
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "ledger.YML")
	require.NoError(t, os.WriteFile(yamlPath, []byte("root: y\n"), 0o644))
	c, err := config.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "y", c.String("root", ""))

	jsonPath := filepath.Join(dir, "ledger.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"root":"j"}`), 0o644))
	c, err = config.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "j", c.String("root", ""))

	// Extension is checked before the file is opened.
	_, err = config.ReadFile(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"root":`), 0o644))
	_, err = config.ReadFile(bad)
	assert.ErrorContains(t, err, "parse json")
}
