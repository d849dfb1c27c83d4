package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a settings document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// formatByExt maps lowercase file extensions to document formats.
var formatByExt = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
}

// FormatOf reports the document format implied by path's extension.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatByExt[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .json)", ext)
}

// Parse decodes data in the given format. An empty document yields an empty
// Config, so every Settings key keeps its default.
func Parse(f Format, data []byte) (Config, error) {
	var m map[string]any
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		if len(strings.TrimSpace(string(data))) == 0 {
			return New(nil), nil
		}
		err = json.Unmarshal(data, &m)
	default:
		return Config{}, fmt.Errorf("unknown config format %q", f)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", f, err)
	}
	return New(m), nil
}

// ReadFile reads and parses a settings document, picking the format from
// the file extension.
func ReadFile(path string) (Config, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(f, data)
}

func FromYAML(data []byte) (Config, error) { return Parse(FormatYAML, data) }

func FromJSON(data []byte) (Config, error) { return Parse(FormatJSON, data) }
