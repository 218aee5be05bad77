package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/cloud-posture/config.yaml and holds defaults
// for values not given on the command line. It must never carry secrets;
// credentials come from the AWS SDK default chain.
type Config struct {
	AWS    AWSConfig    `yaml:"aws"    json:"aws"`
	Output OutputConfig `yaml:"output" json:"output"`

	// ExcludeTags lists extra KEY=VALUE tags that remove a resource from
	// the audit, on top of ExcludeFromAudit=true.
	ExcludeTags []string `yaml:"exclude_tags" json:"exclude_tags"`

	// Policy is the default policy file path.
	Policy string `yaml:"policy" json:"policy"`
}

// AWSConfig holds AWS-specific defaults used when flags are not provided.
type AWSConfig struct {
	// DefaultRegion is used when no region flag or profile region is set.
	DefaultRegion string `yaml:"default_region" json:"default_region"`

	// DefaultProfile is used when no --profile flag is provided.
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
}

// OutputConfig holds report defaults.
type OutputConfig struct {
	// Formats is a comma-separated format list ("json,html", "all").
	Formats string `yaml:"formats" json:"formats"`

	// Dir is the directory report files are written to.
	Dir string `yaml:"dir" json:"dir"`
}

// Loader is the interface for reading Config from disk.
// Default implementation reads from ~/.config/cloud-posture/config.yaml.
type Loader interface {
	// Load reads and parses the configuration file. A missing file yields
	// an empty Config and no error.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}

// FileLoader reads the configuration from Path.
type FileLoader struct {
	Path string
}

// NewDefaultLoader returns a FileLoader for the per-user config file. The
// CLOUD_POSTURE_CONFIG environment variable overrides the location.
func NewDefaultLoader() *FileLoader {
	if p := os.Getenv("CLOUD_POSTURE_CONFIG"); p != "" {
		return &FileLoader{Path: p}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return &FileLoader{Path: filepath.Join(dir, "cloud-posture", "config.yaml")}
}

func (l *FileLoader) ConfigPath() string { return l.Path }

func (l *FileLoader) Load() (*Config, error) {
	data, err := os.ReadFile(l.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, &models.ConfigurationError{Field: "config", Err: err}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &models.ConfigurationError{Field: "config", Err: fmt.Errorf("parse %s: %w", l.Path, err)}
	}
	return &cfg, nil
}

// FirstNonEmpty returns the first non-empty value: flag, then config, then
// built-in default.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
