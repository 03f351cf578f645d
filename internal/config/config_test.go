package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cli "github.com/spf13/pflag"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend != "openai" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "openai")
	}
	if cfg.Model != "whisper-1" {
		t.Errorf("Model = %q, want %q", cfg.Model, "whisper-1")
	}
	if cfg.Language != "th" {
		t.Errorf("Language = %q, want %q", cfg.Language, "th")
	}
	if cfg.Threshold != 0.6 {
		t.Errorf("Threshold = %v, want 0.6", cfg.Threshold)
	}
	if cfg.Daemon.HistorySize != 3 {
		t.Errorf("Daemon.HistorySize = %d, want 3", cfg.Daemon.HistorySize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend: whisper
model_path: ~/models/ggml-medium.bin
language: en
threshold: 0.4
join_thai: true
timeout: 30s
log_level: debug
daemon:
  redis: localhost:6379
  history_size: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != "whisper" {
		t.Errorf("Backend = %q, want whisper", cfg.Backend)
	}
	if strings.HasPrefix(cfg.ModelPath, "~") || !strings.HasSuffix(cfg.ModelPath, filepath.Join("models", "ggml-medium.bin")) {
		t.Errorf("ModelPath = %q, want expanded path", cfg.ModelPath)
	}
	if cfg.Threshold != 0.4 {
		t.Errorf("Threshold = %v, want 0.4", cfg.Threshold)
	}
	if !cfg.JoinThai {
		t.Error("JoinThai = false, want true")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Daemon.Redis != "localhost:6379" || cfg.Daemon.HistorySize != 5 {
		t.Errorf("Daemon = %+v", cfg.Daemon)
	}
	// Unset fields keep their defaults.
	if cfg.Model != "whisper-1" {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
	if cfg.Daemon.Socket != DefaultSocket {
		t.Errorf("Daemon.Socket = %q, want default", cfg.Daemon.Socket)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
	if _, err := Load(writeConfig(t, "threshold: [oops")); err == nil {
		t.Error("Load() of invalid YAML should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"OPENAI_API_KEY":       " sk-test ",
		"TRANSCRIBE_MODEL":     "gpt-4o-transcribe",
		"TRANSCRIBE_THRESHOLD": "0.25",
		"TRANSCRIBE_REDIS":     "redis:6379",
		"OPENAI_BASE_URL":      "http://localhost:8080/v1/",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.APIKey)
	}
	if cfg.Model != "gpt-4o-transcribe" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Threshold != 0.25 {
		t.Errorf("Threshold = %v, want 0.25", cfg.Threshold)
	}
	if cfg.Daemon.Redis != "redis:6379" {
		t.Errorf("Daemon.Redis = %q", cfg.Daemon.Redis)
	}
	if cfg.BaseURL != "http://localhost:8080/v1/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}

	if err := Default().ApplyEnv(envMap(map[string]string{"TRANSCRIBE_THRESHOLD": "high"})); err == nil {
		t.Error("ApplyEnv() should reject a malformed threshold")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "azure" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"whisper without model path", func(c *Config) { c.Backend = "whisper" }},
		{"negative threshold", func(c *Config) { c.Threshold = -0.1 }},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"negative history", func(c *Config) { c.Daemon.HistorySize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfig(t, "model: from-yaml\nlanguage: en\nthreshold: 0.3\n")

	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	flagged := Default()
	flagged.RegisterFlags(fs)
	flagged.RegisterDaemonFlags(fs)
	if err := fs.Parse([]string{"--threshold", "0.9", "--redis", "cache:6379", "--base-url", "http://flag/"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Resolve(fs, flagged, path, envMap(map[string]string{
		"TRANSCRIBE_MODEL":     "from-env",
		"TRANSCRIBE_THRESHOLD": "0.5",
		"OPENAI_BASE_URL":      "http://env/",
	}))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.BaseURL != "http://flag/" {
		t.Errorf("BaseURL = %q, want flag to beat env", cfg.BaseURL)
	}

	if cfg.Model != "from-env" {
		t.Errorf("Model = %q, want env to beat yaml", cfg.Model)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q, want yaml to beat default", cfg.Language)
	}
	if cfg.Threshold != 0.9 {
		t.Errorf("Threshold = %v, want flag to beat env", cfg.Threshold)
	}
	if cfg.Daemon.Redis != "cache:6379" {
		t.Errorf("Daemon.Redis = %q, want flag value", cfg.Daemon.Redis)
	}
}

func TestResolveRejectsInvalid(t *testing.T) {
	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	flagged := Default()
	flagged.RegisterFlags(fs)
	if err := fs.Parse([]string{"-t", "7"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Resolve(fs, flagged, "", envMap(nil)); err == nil {
		t.Error("Resolve() should reject threshold 7")
	}
}

func TestNewLogger(t *testing.T) {
	var b strings.Builder
	logger := NewLogger(&b, "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(b.String(), "hidden") || !strings.Contains(b.String(), "shown") {
		t.Errorf("unexpected log output %q", b.String())
	}
}
