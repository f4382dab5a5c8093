// Package config loads the YAML configuration: an embedded default file with
// a user file merged on top.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsonstate/internal/cel"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     File
	embeddedConfigErr  error
)

// DefaultConfigYAML returns a copy of the embedded default config YAML bytes.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default parses and returns the embedded default configuration.
func Default() (File, error) {
	embeddedConfigOnce.Do(func() {
		embeddedConfig, embeddedConfigErr = Parse(embeddedDefaultConfig)
		if embeddedConfigErr != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", embeddedConfigErr)
		}
	})
	return embeddedConfig, embeddedConfigErr
}

// Parse decodes a configuration document. Unknown keys are rejected so that
// typos do not silently fall back to defaults.
func Parse(data []byte) (File, error) {
	var f File
	if len(data) == 0 {
		return f, fmt.Errorf("config is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Load returns the defaults merged with the file at path. An empty path
// returns the defaults.
func Load(path string) (File, error) {
	base, err := Default()
	if err != nil {
		return File{}, err
	}
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	overlay, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return Merge(base, overlay), nil
}

// Merge returns base with every field set in overlay applied on top.
// Validation rules are appended rather than replaced.
func Merge(base, overlay File) File {
	out := base
	if overlay.App.About.Name != "" {
		out.App.About.Name = overlay.App.About.Name
	}
	if overlay.App.About.Description != "" {
		out.App.About.Description = overlay.App.About.Description
	}
	if overlay.Input.Format != "" {
		out.Input.Format = overlay.Input.Format
	}
	if overlay.Output.Indentation != nil {
		out.Output.Indentation = overlay.Output.Indentation
	}
	if overlay.Output.Format != "" {
		out.Output.Format = overlay.Output.Format
	}
	if overlay.View.ExpandDepth != nil {
		out.View.ExpandDepth = overlay.View.ExpandDepth
	}
	if overlay.Search.MaxResults != nil {
		out.Search.MaxResults = overlay.Search.MaxResults
	}
	if overlay.Search.BatchSize != nil {
		out.Search.BatchSize = overlay.Search.BatchSize
	}
	if overlay.Log.Level != "" {
		out.Log.Level = overlay.Log.Level
	}
	if len(overlay.Validation.Rules) > 0 {
		rules := make([]cel.Rule, 0, len(base.Validation.Rules)+len(overlay.Validation.Rules))
		rules = append(rules, base.Validation.Rules...)
		out.Validation.Rules = append(rules, overlay.Validation.Rules...)
	}
	return out
}

// Marshal renders the configuration as YAML.
func Marshal(f File) ([]byte, error) {
	return yaml.Marshal(f)
}
