// Package config loads layered codemod settings: built-in defaults, the
// user config file, the project config file, then environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adalundhe/codemod/core/storage"
	"gopkg.in/yaml.v3"
)

type Manager struct {
	configPtr   atomic.Pointer[Config]
	dirs        *storage.Dirs
	projectRoot string
}

type Config struct {
	Transactions TransactionsConfig `yaml:"transactions"`
	Files        FilesConfig        `yaml:"files"`
	Commit       CommitConfig       `yaml:"commit"`
	Log          LogConfig          `yaml:"log"`
}

type TransactionsConfig struct {
	MaxTransactions int           `yaml:"max_transactions"`
	MaxDuration     time.Duration `yaml:"max_duration"`
}

type FilesConfig struct {
	MaxFileSize int64 `yaml:"max_file_size"`
	CacheSize   int   `yaml:"cache_size"`
	Watch       bool  `yaml:"watch"`
}

type CommitConfig struct {
	Include      []string `yaml:"include"`
	RequireClean bool     `yaml:"require_clean"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func NewManager(dirs *storage.Dirs, projectRoot string) *Manager {
	m := &Manager{dirs: dirs, projectRoot: projectRoot}
	m.configPtr.Store(DefaultConfig())
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Transactions: TransactionsConfig{
			MaxTransactions: 0,
			MaxDuration:     0,
		},
		Files: FilesConfig{
			MaxFileSize: 100 * 1024 * 1024,
			CacheSize:   256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (m *Manager) Get() *Config {
	return m.configPtr.Load()
}

func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadUserConfig(cfg); err != nil {
		return fmt.Errorf("user config: %w", err)
	}

	if err := m.loadProjectConfig(cfg); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	if err := m.loadLocalConfig(cfg); err != nil {
		return fmt.Errorf("local config: %w", err)
	}

	m.applyEnvironment(cfg)

	m.configPtr.Store(cfg)
	return nil
}

func (m *Manager) loadUserConfig(cfg *Config) error {
	if m.dirs == nil {
		return nil
	}
	return loadYAMLFile(m.dirs.ConfigDir("config.yaml"), cfg)
}

func (m *Manager) loadProjectConfig(cfg *Config) error {
	projectDirs := storage.ResolveProjectDirs(m.projectRoot)
	return loadYAMLFile(projectDirs.Config, cfg)
}

func (m *Manager) loadLocalConfig(cfg *Config) error {
	projectDirs := storage.ResolveProjectDirs(m.projectRoot)
	return loadYAMLFile(filepath.Join(projectDirs.Local, "config.yaml"), cfg)
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("CODEMOD_MAX_TRANSACTIONS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Transactions.MaxTransactions = n
		}
	}
	if v := os.Getenv("CODEMOD_MAX_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Transactions.MaxDuration = d
		}
	}
	if v := os.Getenv("CODEMOD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CODEMOD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CODEMOD_REQUIRE_CLEAN"); v != "" {
		cfg.Commit.RequireClean = strings.ToLower(v) == "true"
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

// SlogLevel maps the configured level name to a slog.Level, defaulting
// to Info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
