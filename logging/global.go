// Package logging wires log/slog to the console and a rotating log file and
// exposes package-level helpers used across the service.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/medfinder/medfinder-api/config"
)

type LoggingService struct {
	Logger  *slog.Logger
	rotator *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options configures InitLoggerWithOptions
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool
}

// InitLogger initializes the global logger with development defaults. An
// empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{Dir: logDir, Env: config.EnvDevelopment, Level: "info", RetentionWeeks: 4})
}

// InitLoggerWithOptions replaces the global logger. The previous rotating
// file, if any, is closed.
func InitLoggerWithOptions(opts Options) {
	if DefaultLoggingService != nil && DefaultLoggingService.rotator != nil {
		_ = DefaultLoggingService.rotator.Close()
	}

	DefaultLoggingService = newLoggingService(opts)
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Close flushes and closes the rotating log file
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotator == nil {
		return nil
	}
	err := DefaultLoggingService.rotator.Close()
	DefaultLoggingService.rotator = nil
	return err
}

func newLoggingService(opts Options) *LoggingService {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.Dir == "" {
		return &LoggingService{Logger: slog.New(consoleHandler)}
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}
	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}

	rotator := NewRotatingLoggerWithSizeLimit(opts.Dir, retention, maxSize)
	if err := rotator.open(); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger, logging to console only", "error", err)
		return &LoggingService{Logger: logger}
	}
	rotator.startCleanup()

	// Console gets text, the file gets JSON for parsing
	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return &LoggingService{
		Logger:  slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}),
		rotator: rotator,
	}
}

// GetConsoleLogLevel picks the console level. Test runs stay quiet unless
// verbose; other environments honor LOG_LEVEL over their default.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel keeps everything in the file
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler fans records out to every handler that accepts the level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
