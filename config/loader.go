package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and initial parsing of Settings from a file.
type Loader struct {
	filePath string
}

// NewLoader creates a new configuration loader for the given file path.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads the configuration file, unmarshals it over zero Settings,
// fills the remaining defaults and validates the result.
func (l *Loader) Load() (*Settings, error) {
	if l.filePath == "" {
		return nil, fmt.Errorf("configuration file path is empty")
	}
	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", l.filePath, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("configuration file '%s' is empty", l.filePath)
	}

	var s Settings
	if err := yaml.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML from '%s': %w", l.filePath, err)
	}

	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for '%s': %w", l.filePath, err)
	}
	return &s, nil
}

// LoadFrom returns the defaults when filePath is empty and the merged
// file settings otherwise.
func LoadFrom(filePath string) (*Settings, error) {
	if filePath == "" {
		s := DefaultSettings()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("default settings invalid: %w", err)
		}
		return s, nil
	}
	return NewLoader(filePath).Load()
}
