package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogger builds a zap.Logger from the provided configuration. Output goes to
// stderr unless a log file is configured. The returned function flushes the logger
// and closes the log file.
func setupLogger(c LogConfig, stderr io.Writer) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(c.Level) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info":
		level.SetLevel(zap.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.WarnLevel)
	}

	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var ws zapcore.WriteSyncer
	closeOutput := func() error { return nil }

	switch {
	case c.File == "":
		ws = zapcore.AddSync(stderr)

	case c.Rotation.Enable:
		rotating := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    max(c.Rotation.MaxSizeMB, 1),
			MaxBackups: max(c.Rotation.MaxBackups, 1),
			MaxAge:     max(c.Rotation.MaxAgeDays, 1),
			Compress:   c.Rotation.Compress,
		}

		ws = zapcore.AddSync(rotating)
		closeOutput = rotating.Close

	default:
		if dir := filepath.Dir(c.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create log directory: %w", err)
			}
		}

		file, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}

		ws = zapcore.AddSync(file)
		closeOutput = file.Close
	}

	logger := zap.New(zapcore.NewCore(encoder, ws, level))

	cleanup := func() {
		_ = logger.Sync()
		_ = closeOutput()
	}

	return logger, cleanup, nil
}
