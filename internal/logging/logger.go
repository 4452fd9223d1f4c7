// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"aqi-prediction-service/internal/config"
)

// Init sets level, formatter and output on the standard logrus logger. When
// cfg.File is set, output is tee'd to a size-rotated file. The returned
// closer releases the file and is a no-op otherwise.
func Init(cfg config.LoggerConfig) io.Closer {
	Configure(log.StandardLogger(), cfg, os.Stdout)

	if cfg.File == "" {
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator
}

// Configure applies level and format to logger and writes to out.
func Configure(logger *log.Logger, cfg config.LoggerConfig, out io.Writer) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetOutput(out)

	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
