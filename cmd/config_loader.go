package cmd

import (
	"fmt"
	"os"

	"github.com/oakwood-commons/jsonstate/internal/config"
)

// configLoader centralizes config loading so callers avoid duplicating merge logic.
type configLoader struct {
	defaultConfig func() ([]byte, error)
}

var cfgLoader = configLoader{defaultConfig: loadDefaultConfigYAML}

func loadMergedConfig(cfgPath string) (config.File, error) {
	return cfgLoader.loadMergedConfig(cfgPath)
}

func loadDefaultConfigYAML() ([]byte, error) {
	data := config.DefaultConfigYAML()
	if len(data) == 0 {
		return nil, fmt.Errorf("embedded default config is empty")
	}
	return data, nil
}

func (l configLoader) loadMergedConfig(cfgPath string) (config.File, error) {
	defaultData, err := l.defaultConfig()
	if err != nil {
		return config.File{}, fmt.Errorf("load default config: %w", err)
	}
	cfg, err := config.Parse(defaultData)
	if err != nil {
		return config.File{}, fmt.Errorf("decode default config: %w", err)
	}
	if cfg.Output.Indentation == nil || cfg.Search.MaxResults == nil {
		return cfg, fmt.Errorf("default config is missing required output and search defaults")
	}

	if cfgPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfg, err
	}
	overlay, err := config.Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", cfgPath, err)
	}
	return config.Merge(cfg, overlay), nil
}
