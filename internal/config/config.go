// Package config resolves transcriber settings from defaults, an optional
// YAML file, the environment and command-line flags, in that order.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Knarf49/leganizebackend/internal/transcript"
	"github.com/Knarf49/leganizebackend/pkg/stt"
)

// Config holds all application configuration.
type Config struct {
	Backend         string        `yaml:"backend"` // "openai" or "whisper"
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"` // OpenAI-compatible endpoint, empty = api.openai.com
	ModelPath       string        `yaml:"model_path"`
	Language        string        `yaml:"language"`
	Prompt          string        `yaml:"prompt"`
	Threshold       float64       `yaml:"threshold"`
	JoinThai        bool          `yaml:"join_thai"`
	FilterLanguages bool          `yaml:"filter_languages"`
	Proxy           string        `yaml:"proxy"`
	Timeout         time.Duration `yaml:"timeout"`
	LogLevel        string        `yaml:"log_level"`
	Daemon          DaemonConfig  `yaml:"daemon"`

	APIKey string `yaml:"-"`
}

// DaemonConfig holds settings only the daemon uses.
type DaemonConfig struct {
	Socket      string `yaml:"socket"`
	Redis       string `yaml:"redis"` // empty = in-memory history
	HistorySize int    `yaml:"history_size"`
	BusURL      string `yaml:"bus_url"`
}

const DefaultSocket = "/tmp/transcribe.sock"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend:   "openai",
		Model:     stt.DefaultModel,
		Language:  stt.DefaultLanguage,
		Threshold: transcript.DefaultThreshold,
		Timeout:   120 * time.Second,
		LogLevel:  "info",
		Daemon: DaemonConfig{
			Socket:      DefaultSocket,
			HistorySize: 3,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in model_path is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelPath = expandTilde(cfg.ModelPath)
	return cfg, nil
}

// ApplyEnv overrides fields from OPENAI_API_KEY, OPENAI_BASE_URL and
// TRANSCRIBE_* variables.
// Malformed numeric values are reported, not ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.APIKey, "OPENAI_API_KEY")
	set(&c.BaseURL, "OPENAI_BASE_URL")
	set(&c.Backend, "TRANSCRIBE_BACKEND")
	set(&c.Model, "TRANSCRIBE_MODEL")
	set(&c.ModelPath, "TRANSCRIBE_MODEL_PATH")
	set(&c.Language, "TRANSCRIBE_LANGUAGE")
	set(&c.Proxy, "TRANSCRIBE_PROXY")
	set(&c.LogLevel, "TRANSCRIBE_LOG")
	set(&c.Daemon.Socket, "TRANSCRIBE_SOCKET")
	set(&c.Daemon.Redis, "TRANSCRIBE_REDIS")
	set(&c.Daemon.BusURL, "TRANSCRIBE_BUS")

	if v := strings.TrimSpace(getenv("TRANSCRIBE_THRESHOLD")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRANSCRIBE_THRESHOLD: %w", err)
		}
		c.Threshold = f
	}
	c.ModelPath = expandTilde(c.ModelPath)
	return nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Backend {
	case "openai":
		if c.Model == "" {
			return fmt.Errorf("model must not be empty")
		}
	case "whisper":
		if c.ModelPath == "" {
			return fmt.Errorf("model_path must not be empty for the whisper backend")
		}
	default:
		return fmt.Errorf("backend must be \"openai\" or \"whisper\", got %q", c.Backend)
	}

	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], got %v", c.Threshold)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.Daemon.HistorySize < 0 {
		return fmt.Errorf("daemon.history_size must be >= 0")
	}

	return nil
}

// Options returns the backend request options this config describes.
func (c *Config) Options() stt.Options {
	return stt.Options{
		Model:    c.Model,
		Language: c.Language,
		Prompt:   c.Prompt,
	}
}

// Cleaner returns the transcript cleaner this config describes.
func (c *Config) Cleaner() *transcript.Cleaner {
	return &transcript.Cleaner{
		Threshold:       c.Threshold,
		JoinThai:        c.JoinThai,
		FilterLanguages: c.FilterLanguages,
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
