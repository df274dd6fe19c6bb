package providers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogSink is the logging-sink collaborator.
type LogSink interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// WithFields returns a sink that prefixes subsequent log lines with the
	// given structured fields, mirroring logger.go's LogActionWithFields.
	WithFields(fields map[string]interface{}) LogSink
}

// LogConfig mirrors logger.go's LogConfig: rotation settings for
// the lumberjack-backed file sink.
type LogConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	ToStdout   bool
}

// DefaultLogConfig matches logger.go's defaults.
func DefaultLogConfig() LogConfig {
	return LogConfig{MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30, Compress: true, ToStdout: false}
}

type logrusSink struct {
	log *logrus.Entry
}

// NewLogrusSink builds a LogSink writing to logDir/authnego.log with
// rotation, generalising logger.go's package-global logger into an
// injectable instance (this module is a library, not an app — every
// Session gets its own sink rather than sharing a package-level global).
func NewLogrusSink(logDir string, cfg LogConfig) (LogSink, error) {
	l := logrus.New()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logPath := filepath.Join(logDir, "authnego.log")

	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	if cfg.ToStdout {
		l.SetOutput(io.MultiWriter(lj, os.Stdout))
	} else {
		l.SetOutput(lj)
	}

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	l.SetLevel(logrus.InfoLevel)

	return &logrusSink{log: logrus.NewEntry(l)}, nil
}

// NewNopSink returns a LogSink that discards everything, useful for tests.
func NewNopSink() LogSink {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusSink{log: logrus.NewEntry(l)}
}

func (s *logrusSink) Debugf(format string, args ...interface{}) { s.log.Debugf(format, args...) }
func (s *logrusSink) Infof(format string, args ...interface{})  { s.log.Infof(format, args...) }
func (s *logrusSink) Warnf(format string, args ...interface{})  { s.log.Warnf(format, args...) }
func (s *logrusSink) Errorf(format string, args ...interface{}) { s.log.Errorf(format, args...) }

func (s *logrusSink) WithFields(fields map[string]interface{}) LogSink {
	return &logrusSink{log: s.log.WithFields(logrus.Fields(fields))}
}
