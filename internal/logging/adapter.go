package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger is the canonical interface for structured logging throughout the application.
// It provides a simple, level-based logging API compatible with slog.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// SlogAdapter adapts an slog.Logger to the Logger interface and to the
// printf and Print style loggers expected by mcp-go and the MySQL driver.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used. Print calls are logged at
// warn level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return NewSlogAdapterWithLevel(logger, slog.LevelWarn)
}

// NewSlogAdapterWithLevel is NewSlogAdapter with the level used by Print.
func NewSlogAdapterWithLevel(logger *slog.Logger, level slog.Level) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger, level: level}
}

// Debug logs a debug message with key-value pairs.
func (a *SlogAdapter) Debug(msg string, args ...interface{}) {
	a.logger.Debug(msg, args...)
}

// Info logs an info message with key-value pairs.
func (a *SlogAdapter) Info(msg string, args ...interface{}) {
	a.logger.Info(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (a *SlogAdapter) Warn(msg string, args ...interface{}) {
	a.logger.Warn(msg, args...)
}

// Error logs an error message with key-value pairs.
func (a *SlogAdapter) Error(msg string, args ...interface{}) {
	a.logger.Error(msg, args...)
}

// Print logs the operands formatted with fmt.Sprint as a single message.
// It satisfies the driver logger interface of go-sql-driver/mysql.
func (a *SlogAdapter) Print(v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprint(v...))
	if msg == "" {
		return
	}
	a.logger.Log(context.Background(), a.level, msg, slog.String("component", "mysql"))
}

// Infof logs a printf-style info message. Together with Errorf it satisfies
// the logger interface of the mcp-go HTTP transport.
func (a *SlogAdapter) Infof(format string, v ...interface{}) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

// Errorf logs a printf-style error message.
func (a *SlogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}
