package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFileNames are the config file names looked up in a project root.
var ProjectFileNames = []string{"conflictfix.yml", "conflictfix.yaml"}

// ProjectConfig holds project-level settings loaded from conflictfix.yml.
type ProjectConfig struct {
	BuildCommand       string   `yaml:"buildCommand,omitempty"`
	BuildArgs          []string `yaml:"buildArgs,omitempty"`
	Configuration      string   `yaml:"configuration,omitempty"`
	Verbosity          string   `yaml:"verbosity,omitempty"`
	BuildTimeout       string   `yaml:"buildTimeout,omitempty"`
	Extensions         []string `yaml:"extensions,omitempty"`
	ExcludeDirs        []string `yaml:"excludeDirs,omitempty"`
	ExcludeGlobs       []string `yaml:"excludeGlobs,omitempty"`
	CreateBackup       *bool    `yaml:"createBackup,omitempty"`
	BackupRetention    string   `yaml:"backupRetention,omitempty"`
	DisabledCategories []string `yaml:"disabledCategories,omitempty"`
}

// DefaultProjectConfig returns the settings used when no config file exists.
func DefaultProjectConfig() *ProjectConfig {
	createBackup := true
	return &ProjectConfig{
		BuildCommand:    "dotnet",
		BuildArgs:       []string{"build"},
		Configuration:   "Debug",
		Verbosity:       "normal",
		BuildTimeout:    "10m",
		Extensions:      []string{".cs"},
		ExcludeDirs:     []string{"bin", "obj", ".git", ".vs", "packages", "node_modules"},
		CreateBackup:    &createBackup,
		BackupRetention: "168h",
	}
}

// LoadProject reads conflictfix.yml or conflictfix.yaml from dir and merges it
// over the defaults. A missing file is not an error.
func LoadProject(dir string) (*ProjectConfig, error) {
	cfg := DefaultProjectConfig()
	for _, name := range ProjectFileNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var file ProjectConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		cfg.merge(&file)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		return cfg, nil
	}
	return cfg, nil
}

func (c *ProjectConfig) merge(o *ProjectConfig) {
	if o.BuildCommand != "" {
		c.BuildCommand = o.BuildCommand
	}
	if len(o.BuildArgs) > 0 {
		c.BuildArgs = o.BuildArgs
	}
	if o.Configuration != "" {
		c.Configuration = o.Configuration
	}
	if o.Verbosity != "" {
		c.Verbosity = o.Verbosity
	}
	if o.BuildTimeout != "" {
		c.BuildTimeout = o.BuildTimeout
	}
	if len(o.Extensions) > 0 {
		c.Extensions = o.Extensions
	}
	if len(o.ExcludeDirs) > 0 {
		c.ExcludeDirs = o.ExcludeDirs
	}
	if len(o.ExcludeGlobs) > 0 {
		c.ExcludeGlobs = o.ExcludeGlobs
	}
	if o.CreateBackup != nil {
		c.CreateBackup = o.CreateBackup
	}
	if o.BackupRetention != "" {
		c.BackupRetention = o.BackupRetention
	}
	if len(o.DisabledCategories) > 0 {
		c.DisabledCategories = o.DisabledCategories
	}
}

// Validate checks that duration fields parse.
func (c *ProjectConfig) Validate() error {
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.Retention(); err != nil {
		return err
	}
	return nil
}

// Timeout returns the build timeout. Zero means no timeout.
func (c *ProjectConfig) Timeout() (time.Duration, error) {
	return parseDuration("buildTimeout", c.BuildTimeout)
}

// Retention returns how long backup sessions are kept by cleanup.
func (c *ProjectConfig) Retention() (time.Duration, error) {
	return parseDuration("backupRetention", c.BackupRetention)
}

// BackupEnabled reports whether runs should snapshot files before rewriting.
func (c *ProjectConfig) BackupEnabled() bool {
	return c.CreateBackup == nil || *c.CreateBackup
}

func parseDuration(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", field)
	}
	return d, nil
}
