// Package config handles loading application configuration from a YAML
// file with QRCARDS_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openclaw/qrcards/card"
)

// QRConfig controls how cards are rendered.
type QRConfig struct {
	Version    int    `yaml:"version"`
	Level      string `yaml:"level"`
	ModuleSize int    `yaml:"module_size"`
	Border     int    `yaml:"border"`
}

// Config holds all application configuration values.
type Config struct {
	OutputDir  string   `yaml:"output_dir"`
	DataDir    string   `yaml:"data_dir"`
	Port       int      `yaml:"port"`
	LogLevel   string   `yaml:"log_level"`
	WebhookURL string   `yaml:"webhook_url"`
	Roster     string   `yaml:"roster"`
	History    bool     `yaml:"history"`
	QR         QRConfig `yaml:"qr"`
}

func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		OutputDir: "qrcodes",
		DataDir:   filepath.Join(homeDir, ".qrcards"),
		Port:      8556,
		LogLevel:  "info",
		History:   true,
		QR: QRConfig{
			Version:    1,
			Level:      "highest",
			ModuleSize: 10,
			Border:     4,
		},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. QRCARDS_* environment variables
// override file and default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if _, err := card.ParseLevel(cfg.QR.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRCARDS_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QRCARDS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRCARDS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRCARDS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QRCARDS_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("QRCARDS_ROSTER"); v != "" {
		cfg.Roster = v
	}
	if v := os.Getenv("QRCARDS_QR_LEVEL"); v != "" {
		cfg.QR.Level = v
	}
	if v := os.Getenv("QRCARDS_HISTORY"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.History = true
		case "false", "0", "no":
			cfg.History = false
		}
	}
}

// CardOptions converts the QR section into encoder options.
func (c *Config) CardOptions() (card.Options, error) {
	opts := card.DefaultOptions()
	level, err := card.ParseLevel(c.QR.Level)
	if err != nil {
		return opts, err
	}
	opts.Level = level
	if c.QR.Version > 0 {
		opts.Version = c.QR.Version
	}
	if c.QR.ModuleSize > 0 {
		opts.ModuleSize = c.QR.ModuleSize
	}
	if c.QR.Border >= 0 {
		opts.Border = c.QR.Border
	}
	return opts, nil
}

// HistoryPath is the SQLite ledger location inside DataDir.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "cards.db")
}

// EnsureDataDir creates DataDir if it does not already exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}
