// Package logger provides named component loggers for the server and client
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the minimum severity that gets written
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levels = map[LogLevel]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (case-insensitive) to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// SetGlobalLogLevel sets the level for every component logger
func SetGlobalLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(levels[level])
}

// Logger is a component logger with printf-style helpers
type Logger struct {
	component string

	mu  sync.RWMutex
	out io.Writer
	zl  zerolog.Logger
}

var (
	Server   = New("server")
	Match    = New("match")
	Client   = New("client")
	Spectate = New("spectate")
)

// New creates a logger for the named component writing to stdout
func New(component string) *Logger {
	l := &Logger{component: component}
	l.SetOutput(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	return l
}

// SetOutput redirects the logger to w
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.zl = zerolog.New(w).With().Timestamp().Str("component", l.component).Logger()
}

// SetFile appends log output to the file at path in addition to the current output
func (l *Logger) SetFile(path string) error {
	f, err := openLogFile(path)
	if err != nil {
		return err
	}

	l.mu.RLock()
	current := l.out
	l.mu.RUnlock()

	l.SetOutput(zerolog.MultiLevelWriter(current, f))
	return nil
}

// RedirectToFile replaces the current output with the file at path
func (l *Logger) RedirectToFile(path string) error {
	f, err := openLogFile(path)
	if err != nil {
		return err
	}
	l.SetOutput(f)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// With returns a child logger carrying an extra field, e.g. a player id
func (l *Logger) With(key string, value interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		component: l.component,
		out:       l.out,
		zl:        l.zl.With().Interface(key, value).Logger(),
	}
}

// Zerolog exposes the underlying logger
func (l *Logger) Zerolog() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

func (l *Logger) Debug(format string, args ...interface{}) {
	zl := l.Zerolog()
	zl.Debug().Msgf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	zl := l.Zerolog()
	zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	zl := l.Zerolog()
	zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	zl := l.Zerolog()
	zl.Error().Msgf(format, args...)
}

// Fatal logs and exits the process with status 1
func (l *Logger) Fatal(format string, args ...interface{}) {
	zl := l.Zerolog()
	zl.Fatal().Msgf(format, args...)
}
