package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BackendConfig locates the ingest and query endpoints.
type BackendConfig struct {
	BaseURL     string `yaml:"base_url" validate:"required,url"`
	IngestPath  string `yaml:"ingest_path" validate:"required,startswith=/"`
	QueryPath   string `yaml:"query_path" validate:"required,startswith=/"`
	HealthPath  string `yaml:"health_path" validate:"required,startswith=/"`
	StatsPath   string `yaml:"stats_path" validate:"required,startswith=/"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gt=0"`
}

// Timeout returns the per-request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	File       string `yaml:"file" validate:"required"`
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`
}

// StubConfig configures the legacy stub server.
type StubConfig struct {
	Addr      string `yaml:"addr" validate:"required"`
	UploadDir string `yaml:"upload_dir" validate:"required"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
	Stub    StubConfig    `yaml:"stub"`
}

const (
	envBaseURL  = "PDFASK_API_BASE_URL"
	envLogLevel = "PDFASK_LOG_LEVEL"
	envLogFile  = "PDFASK_LOG_FILE"
)

var validate = validator.New()

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return finish(cfg)
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return finish(&cfg)
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfask/config.yaml.
// If neither exists, it writes defaults to ~/.config/pdfask/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	cfg, err = finish(cfg)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func finish(cfg *AppConfig) (*AppConfig, error) {
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(envBaseURL); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(envLogFile); v != "" {
		cfg.Log.File = v
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfask", "config.yaml"), nil
}

func defaultLogFile() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pdfask", "pdfask.log")
	}
	return filepath.Join(os.TempDir(), "pdfask.log")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			IngestPath:  "/api/v1/ingest",
			QueryPath:   "/api/v1/query",
			HealthPath:  "/api/v1/health",
			StatsPath:   "/api/v1/stats",
			TimeoutSecs: 120,
		},
		Log: LogConfig{
			File:       defaultLogFile(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Stub: StubConfig{Addr: ":3000", UploadDir: "uploads"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = def.Backend.BaseURL
	}
	if cfg.Backend.IngestPath == "" {
		cfg.Backend.IngestPath = def.Backend.IngestPath
	}
	if cfg.Backend.QueryPath == "" {
		cfg.Backend.QueryPath = def.Backend.QueryPath
	}
	if cfg.Backend.HealthPath == "" {
		cfg.Backend.HealthPath = def.Backend.HealthPath
	}
	if cfg.Backend.StatsPath == "" {
		cfg.Backend.StatsPath = def.Backend.StatsPath
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = def.Backend.TimeoutSecs
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Stub.Addr == "" {
		cfg.Stub.Addr = def.Stub.Addr
	}
	if cfg.Stub.UploadDir == "" {
		cfg.Stub.UploadDir = def.Stub.UploadDir
	}
}
