package config

import (
	cli "github.com/spf13/pflag"
)

// RegisterFlags binds the shared transcriber flags on fs to c. Daemon-only
// settings are registered by the daemon itself.
func (c *Config) RegisterFlags(fs *cli.FlagSet) {
	fs.StringVarP(&c.Backend, "backend", "b", c.Backend, "Transcription backend (openai|whisper)")
	fs.StringVarP(&c.Model, "model", "m", c.Model, "Remote model name")
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "OpenAI-compatible API base URL")
	fs.StringVar(&c.ModelPath, "model-path", c.ModelPath, "whisper.cpp model file for the whisper backend")
	fs.StringVar(&c.Language, "language", c.Language, "Language hint")
	fs.StringVar(&c.Prompt, "prompt", c.Prompt, "Prompt passed to the model")
	fs.Float64VarP(&c.Threshold, "threshold", "t", c.Threshold, "Drop segments whose no-speech probability is at or above this")
	fs.BoolVar(&c.JoinThai, "join-thai", c.JoinThai, "Remove spaces between Thai characters")
	fs.BoolVar(&c.FilterLanguages, "filter-lang", c.FilterLanguages, "Drop sentences that are neither Thai nor English")
	fs.StringVarP(&c.Proxy, "proxy", "p", c.Proxy, "SOCKS5 proxy address for API calls")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Timeout for one transcription")
	fs.StringVarP(&c.LogLevel, "log", "l", c.LogLevel, "Log level")
}

// Resolve builds the effective config: defaults, then the YAML file at path
// (if any), then the environment, then every flag explicitly set on fs.
func Resolve(fs *cli.FlagSet, flagged *Config, path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *cli.Flag) {
		cfg.copyFlag(f.Name, flagged)
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) copyFlag(name string, from *Config) {
	switch name {
	case "backend":
		c.Backend = from.Backend
	case "model":
		c.Model = from.Model
	case "base-url":
		c.BaseURL = from.BaseURL
	case "model-path":
		c.ModelPath = expandTilde(from.ModelPath)
	case "language":
		c.Language = from.Language
	case "prompt":
		c.Prompt = from.Prompt
	case "threshold":
		c.Threshold = from.Threshold
	case "join-thai":
		c.JoinThai = from.JoinThai
	case "filter-lang":
		c.FilterLanguages = from.FilterLanguages
	case "proxy":
		c.Proxy = from.Proxy
	case "timeout":
		c.Timeout = from.Timeout
	case "log":
		c.LogLevel = from.LogLevel
	case "socket":
		c.Daemon.Socket = from.Daemon.Socket
	case "redis":
		c.Daemon.Redis = from.Daemon.Redis
	case "history":
		c.Daemon.HistorySize = from.Daemon.HistorySize
	case "bus":
		c.Daemon.BusURL = from.Daemon.BusURL
	}
}

// RegisterDaemonFlags binds the daemon-only flags on fs to c.
func (c *Config) RegisterDaemonFlags(fs *cli.FlagSet) {
	fs.StringVarP(&c.Daemon.Socket, "socket", "s", c.Daemon.Socket, "Unix socket to listen on")
	fs.StringVar(&c.Daemon.Redis, "redis", c.Daemon.Redis, "Redis address for session history (empty = in-memory)")
	fs.IntVar(&c.Daemon.HistorySize, "history", c.Daemon.HistorySize, "Chunks of history kept per session")
	fs.StringVar(&c.Daemon.BusURL, "bus", c.Daemon.BusURL, "Websocket hub to publish results to")
}
