// Package logging configures the zap logger shared across the server.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where log output goes.
type Options struct {
	// Stdio suppresses console output so the stdio MCP transport owns stdout.
	Stdio bool
	// FilePath appends JSON logs to the given file when non-empty.
	FilePath string
	// Debug lowers the console level to debug.
	Debug bool
}

// New builds a logger per opts and returns it with a cleanup func that flushes
// buffers and closes the log file.
func New(opts Options) (*zap.Logger, func(), error) {
	var cores []zapcore.Core
	closeFile := func() {}

	if !opts.Stdio {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

		level := zapcore.InfoLevel
		if opts.Debug {
			level = zapcore.DebugLevel
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("os.OpenFile failed: %w", err)
		}
		closeFile = func() { _ = f.Close() }

		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "timestamp"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(f),
			zapcore.DebugLevel,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger, func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}
