package config

import (
	"github.com/oakwood-commons/jsonstate/internal/cel"
)

// File is the on-disk configuration. Pointer fields distinguish "not set"
// from zero values so a user file only overrides what it names.
type File struct {
	App        AppConfig        `yaml:"app"`
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	View       ViewConfig       `yaml:"view"`
	Search     SearchConfig     `yaml:"search"`
	Log        LogConfig        `yaml:"log"`
	Validation ValidationConfig `yaml:"validation"`
}

// AppConfig holds descriptive metadata shown by the version command.
type AppConfig struct {
	About AboutConfig `yaml:"about"`
}

// AboutConfig names the application.
type AboutConfig struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// InputConfig selects how documents are parsed.
type InputConfig struct {
	Format string `yaml:"format,omitempty"`
}

// OutputConfig controls rendering of documents and partial selections.
type OutputConfig struct {
	Indentation *string `yaml:"indentation,omitempty"`
	Format      string  `yaml:"format,omitempty"`
}

// ViewConfig sets the initial document state.
type ViewConfig struct {
	ExpandDepth *int `yaml:"expand_depth,omitempty"`
}

// SearchConfig bounds searches.
type SearchConfig struct {
	MaxResults *int `yaml:"max_results,omitempty"`
	BatchSize  *int `yaml:"batch_size,omitempty"`
}

// LogConfig sets the minimum log level by name (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// ValidationConfig carries CEL rules checked by the validate command.
type ValidationConfig struct {
	Rules []cel.Rule `yaml:"rules,omitempty"`
}
