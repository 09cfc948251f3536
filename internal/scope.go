package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	ConfigDirName  = "gitwiki"
	ConfigFilename = "wiki.conf"
)

var configNames = []string{ConfigFilename, "wiki.yaml", "wiki.yml"}

// ConfigResolver locates the configuration file: an explicit path, then
// the working directory, then the user config directory.
type ConfigResolver struct {
	workDir   string
	configDir string
}

func NewConfigResolver() *ConfigResolver {
	cwd, _ := os.Getwd()
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return &ConfigResolver{workDir: cwd, configDir: dir}
}

// UserConfigPath is where a new configuration is written by default.
func (r *ConfigResolver) UserConfigPath() string {
	return filepath.Join(r.configDir, ConfigDirName, ConfigFilename)
}

func (r *ConfigResolver) Candidates() []string {
	var paths []string
	for _, name := range configNames {
		paths = append(paths, filepath.Join(r.workDir, name))
	}
	for _, name := range configNames {
		paths = append(paths, filepath.Join(r.configDir, ConfigDirName, name))
	}
	return paths
}

// Resolve returns the config file to load, or "" when none exists. An
// explicit path that does not exist is an error.
func (r *ConfigResolver) Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config %q: %w", explicit, err)
		}
		return explicit, nil
	}

	for _, path := range r.Candidates() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// Load resolves and reads the configuration, falling back to defaults.
func (r *ConfigResolver) Load(explicit string) (*Config, string, error) {
	path, err := r.Resolve(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
