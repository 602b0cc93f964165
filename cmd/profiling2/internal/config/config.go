// Package config loads the profiling2 CLI's YAML configuration file,
// using gopkg.in/yaml.v3 for on-disk (de)serialization.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of ~/.config/profiling2/config.yaml.
type Config struct {
	// SavedVariablesPath is the default path to the WoW SavedVariables
	// file to read when no --file flag is given.
	SavedVariablesPath string `yaml:"savedVariablesPath"`
	// Account and Realm filter which character's saved variables to
	// prefer when SavedVariablesPath points at an account-wide WTF tree
	// rather than a single file.
	Account string `yaml:"account"`
	Realm   string `yaml:"realm"`
	// Upload holds the settings for the (external, out-of-scope) web
	// dashboard that `share`/`verify-share` mint and check tokens for.
	Upload UploadConfig `yaml:"upload"`
}

// UploadConfig configures the share-token upload service.
type UploadConfig struct {
	Endpoint      string `yaml:"endpoint"`
	CredentialDir string `yaml:"credentialDir"`
}

// Default returns the configuration used when no config file exists yet.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Account: "",
		Realm:   "",
		Upload: UploadConfig{
			CredentialDir: filepath.Join(home, ".config", "profiling2"),
		},
	}
}

// Path returns the default config file location, honoring $XDG_CONFIG_HOME.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "profiling2", "config.yaml"), nil
}

// Load reads and parses the config file at path. A missing file is not an
// error: it returns Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
