package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// Logger provides logging functionality
type Logger struct {
	file   *os.File
	logger *log.Logger
}

// NewLogger creates a logger writing to logPath and stdout
func NewLogger(logPath string) (*Logger, error) {
	// Ensure directory exists
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewLoggerWithWriter(io.MultiWriter(file, os.Stdout))
	l.file = file
	return l, nil
}

// NewLoggerWithWriter creates a logger that only writes to w
func NewLoggerWithWriter(w io.Writer) *Logger {
	logger := log.New()
	logger.SetOutput(w)

	// Millisecond precision on timestamps, same layout as the server logs
	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
	formatter.FullTimestamp = true
	formatter.DisableColors = true
	logger.SetFormatter(formatter)

	return &Logger{logger: logger}
}

// SetLevel parses and applies a log level (trace, debug, info, warn, error)
func (l *Logger) SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", level, err)
	}
	l.logger.SetLevel(lvl)
	return nil
}

// WithField returns an entry carrying a structured field
func (l *Logger) WithField(key string, value interface{}) *log.Entry {
	return l.logger.WithField(key, value)
}

// WithError returns an entry carrying err
func (l *Logger) WithError(err error) *log.Entry {
	return l.logger.WithError(err)
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logger.Debugf(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logger.Warnf(format, v...)
}

// GetLogPath returns the default log path
func GetLogPath() string {
	return filepath.Join(".", "logs", fmt.Sprintf("brief-copilot-%s.log", time.Now().Format("2006-01-02")))
}
