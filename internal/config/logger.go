package config

import (
	"io"
	log "log/slog"

	"github.com/lmittmann/tint"
)

var logLevels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// NewLogger returns a tint logger at the named level. Unknown names fall
// back to info.
func NewLogger(w io.Writer, level string) *log.Logger {
	lvl, ok := logLevels[level]
	if !ok {
		lvl = log.LevelInfo
	}
	return log.New(tint.NewHandler(w, &tint.Options{
		Level: lvl,
	}))
}
