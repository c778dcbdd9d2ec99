// Package logging builds the zap loggers used by the CLI and the TUI.
package logging

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a logger for env ("prod", "dev", anything else means
// test). A non-empty file redirects all output there, which the TUI needs
// because the terminal belongs to the renderer.
func NewLogger(env, file string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "dev", "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, errors.Wrap(err, "create log dir")
		}
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}

// Must is NewLogger that falls back to a no-op logger
func Must(env, file string) *zap.Logger {
	logger, err := NewLogger(env, file)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
