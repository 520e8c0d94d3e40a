package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"maparr/pkg/logger"
)

// Config holds the full maparr configuration, loaded from maparr.yml
// with MAPARR_* environment overrides applied on top.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Docker DockerConfig `yaml:"docker"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port    string `yaml:"port"`
	DataDir string `yaml:"dataDir"`
}

type DockerConfig struct {
	Sock string `yaml:"sock"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default values
var (
	defaultPort     = "9900"
	defaultSock     = "/var/run/docker.sock"
	defaultLogLevel = "info"
)

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "maparr")
	}
	return "./data"
}

// SearchPaths returns the locations probed for maparr.yml, highest
// priority first.
func SearchPaths() []string {
	paths := []string{"./maparr.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "maparr", "maparr.yml"))
	}
	paths = append(paths, "/etc/maparr/maparr.yml")
	return paths
}

// Load reads the config file at path. An empty path searches the
// standard locations; a missing file yields the defaults, not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		logger.Debug("Loaded config file", "path", path)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyDefaults fills in zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = defaultPort
		logger.Debug("Applied default value for Server.Port", "value", defaultPort)
	}
	if cfg.Server.DataDir == "" {
		cfg.Server.DataDir = defaultDataDir()
		logger.Debug("Applied default value for Server.DataDir", "value", cfg.Server.DataDir)
	}
	if cfg.Docker.Sock == "" {
		cfg.Docker.Sock = defaultSock
		logger.Debug("Applied default value for Docker.Sock", "value", defaultSock)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
		logger.Debug("Applied default value for Log.Level", "value", defaultLogLevel)
	}
}

// applyEnvOverrides lets MAPARR_* variables win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAPARR_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("MAPARR_DATA_DIR"); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv("MAPARR_DOCKER_SOCK"); v != "" {
		cfg.Docker.Sock = v
	}
	if v := os.Getenv("MAPARR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
