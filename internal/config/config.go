package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DBPathEnv overrides the configured database path when set.
const DBPathEnv = "GIT_GLOBAL_LOG_DB"

type Config struct {
	DBPath string `toml:"db_path"`
}

func DefaultConfig() *Config {
	return &Config{
		DBPath: DefaultDBPath(),
	}
}

// DefaultDBPath is where the commit log lives unless overridden.
func DefaultDBPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "git-commits", "log.sqlite")
}

func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "git-global-log"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func ErrorLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "errors.log"), nil
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// Missing config file just means defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ResolveDBPath applies the precedence order: explicit flag, environment,
// config file, built-in default.
func ResolveDBPath(flagValue string) (string, error) {
	if flagValue != "" {
		return expandPath(flagValue), nil
	}

	if envValue := os.Getenv(DBPathEnv); envValue != "" {
		return expandPath(envValue), nil
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.DBPath, nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
