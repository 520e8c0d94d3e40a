// Package logger owns the process-wide structured logger used by the
// server, the CLI and the Docker layer.
package logger

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger wraps charmbracelet/log with maparr's defaults.
type Logger struct {
	*log.Logger
}

var (
	instance *Logger
	once     sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		instance = &Logger{
			Logger: log.NewWithOptions(os.Stderr, log.Options{
				Level:           log.InfoLevel,
				Prefix:          "maparr",
				ReportTimestamp: true,
				TimeFormat:      "15:04:05",
			}),
		}
	})
	return instance
}

// SetLogLevel applies a level by name. Unknown names keep info rather
// than failing startup over a config typo. Debug also reports callers,
// which is what you want when chasing a misdetected platform.
func (l *Logger) SetLogLevel(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	l.SetLevel(parsed)
	// Packages logging through the global charm logger follow along.
	log.SetLevel(parsed)
	l.SetReportCaller(parsed == log.DebugLevel)
}

// ConfigureFromEnv lets the environment override the configured level.
func (l *Logger) ConfigureFromEnv() {
	if level := os.Getenv("MAPARR_LOG_LEVEL"); level != "" {
		l.SetLogLevel(level)
	} else if os.Getenv("ENV") == "dev" {
		l.SetLogLevel("debug")
	}
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	GetLogger().Debug(msg, keyvals...)
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	GetLogger().Info(msg, keyvals...)
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	GetLogger().Warn(msg, keyvals...)
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	GetLogger().Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, keyvals ...interface{}) {
	GetLogger().Fatal(msg, keyvals...)
}
