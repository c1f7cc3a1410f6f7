// Package config provides configuration loading and structs for the dapnote server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Source  SourceConfig  `yaml:"source"`
	Ranking RankingConfig `yaml:"ranking"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SourceConfig holds feedback sheet source settings. URL points at the
// published sheet; Path selects a local file instead, for development. When
// both are set, Path wins.
type SourceConfig struct {
	URL            string `yaml:"url"`
	Path           string `yaml:"path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the fetch timeout as a duration.
func (s *SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RankingConfig holds settings for the external ranking service. The
// credential itself never lives in the file; APIKeyEnv names the environment
// variable that carries it.
type RankingConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the ranking call timeout as a duration.
func (r *RankingConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// APIKey reads the credential from the configured environment variable.
// Empty means the ranking service is not configured.
func (r *RankingConfig) APIKey() string {
	return os.Getenv(r.APIKeyEnv)
}

// StorageConfig holds the ranking audit log path. An empty path disables the
// audit log.
type StorageConfig struct {
	AuditDatabasePath string `yaml:"audit_database_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Source.Path != "" {
		cfg.Source.Path = expandPath(cfg.Source.Path, configDir)
	}
	if cfg.Storage.AuditDatabasePath != "" {
		cfg.Storage.AuditDatabasePath = expandPath(cfg.Storage.AuditDatabasePath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
