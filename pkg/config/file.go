package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is looked up in the working directory when no --config is given.
const FileName = "jfront.yaml"

// File is the on-disk shape of the configuration. Zero values leave the
// corresponding setting untouched.
type File struct {
	Std            string          `yaml:"std"`
	Extension      string          `yaml:"extension"`
	MergePolicy    string          `yaml:"merge_policy"`
	MaxImportDepth int             `yaml:"max_import_depth"`
	LogLevel       string          `yaml:"log_level"`
	Flags          string          `yaml:"flags"`
	Features       map[string]bool `yaml:"features"`
	Warnings       map[string]bool `yaml:"warnings"`
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Apply(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads jfront.yaml from dir, falling back to defaults.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Apply merges f into c. The standard is applied first so that explicit
// settings in the same file override it.
func (c *Config) Apply(f *File) error {
	if f.Std != "" {
		if err := c.ApplyStd(f.Std); err != nil {
			return err
		}
	}
	if f.Extension != "" {
		c.Extension = normalizeExtension(f.Extension)
	}
	if f.MergePolicy != "" {
		policy, err := ParseMergePolicy(f.MergePolicy)
		if err != nil {
			return err
		}
		c.MergePolicy = policy
	}
	if f.MaxImportDepth < 0 {
		return fmt.Errorf("max_import_depth must not be negative, got %d", f.MaxImportDepth)
	}
	if f.MaxImportDepth > 0 {
		c.MaxImportDepth = f.MaxImportDepth
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	c.ProcessDirectiveFlags(f.Flags)
	for name, enabled := range f.Features {
		ft, ok := c.FeatureMap[name]
		if !ok {
			return fmt.Errorf("unknown feature '%s'", name)
		}
		c.SetFeature(ft, enabled)
	}
	for name, enabled := range f.Warnings {
		wt, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(wt, enabled)
	}
	return nil
}

// SetExtension accepts the extension with or without its leading dot.
func (c *Config) SetExtension(ext string) { c.Extension = normalizeExtension(ext) }

func normalizeExtension(ext string) string {
	if ext == "" || ext[0] == '.' {
		return ext
	}
	return "." + ext
}
