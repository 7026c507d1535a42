package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LevelDebug LogLevel = LogLevel(slog.LevelDebug)
	LevelInfo  LogLevel = LogLevel(slog.LevelInfo)
	LevelWarn  LogLevel = LogLevel(slog.LevelWarn)
	LevelError LogLevel = LogLevel(slog.LevelError)
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level  LogLevel `json:"level"`
	Format string   `json:"format"` // "json" or "text"
	Output string   `json:"output"` // "stdout", "stderr", or file path
}

// DefaultLogConfig returns the configuration used when nothing is set.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LevelInfo,
		Format: "json",
		Output: "stdout",
	}
}

// Logger provides structured logging with context support
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
	mu      sync.Mutex
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	spotIDKey    ctxKey = "spot_id"
	cityIDKey    ctxKey = "city_id"
)

// NewLogger creates a new structured logger writing to config.Output.
func NewLogger(config LogConfig) (*Logger, error) {
	l := &Logger{config: config}

	var writer io.Writer
	switch config.Output {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(config.Output), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		writer = f
	}

	l.slogger = slog.New(newHandler(writer, config))
	return l, nil
}

// NewWriterLogger builds a logger on an arbitrary writer. Used by tests.
func NewWriterLogger(w io.Writer, config LogConfig) *Logger {
	return &Logger{config: config, slogger: slog.New(newHandler(w, config))}
}

func newHandler(w io.Writer, config LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.Level(config.Level)}
	if config.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// WithComponent returns a logger that tags every entry with component.
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component string
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, nil, fields...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, nil, fields...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, nil, fields...)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...Field) {
	l.log(ctx, LevelError, msg, err, fields...)
}

func (cl *ComponentLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	cl.logger.log(ctx, LevelDebug, msg, nil, append(fields, String("component", cl.component))...)
}

func (cl *ComponentLogger) Info(ctx context.Context, msg string, fields ...Field) {
	cl.logger.log(ctx, LevelInfo, msg, nil, append(fields, String("component", cl.component))...)
}

func (cl *ComponentLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	cl.logger.log(ctx, LevelWarn, msg, nil, append(fields, String("component", cl.component))...)
}

func (cl *ComponentLogger) Error(ctx context.Context, msg string, err error, fields ...Field) {
	cl.logger.log(ctx, LevelError, msg, err, append(fields, String("component", cl.component))...)
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, err error, fields ...Field) {
	if level < l.config.Level {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := make([]slog.Attr, 0, len(fields)+4)
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if id, ok := ctx.Value(spotIDKey).(int64); ok {
		attrs = append(attrs, slog.Int64("spot_id", id))
	}
	if city, ok := ctx.Value(cityIDKey).(string); ok && city != "" {
		attrs = append(attrs, slog.String("city_id", city))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	if level >= LevelWarn {
		if _, file, line, ok := runtime.Caller(2); ok {
			attrs = append(attrs, slog.String("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line)))
		}
	}
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}

	l.slogger.LogAttrs(ctx, slog.Level(level), msg, attrs...)
}

// WithRequestID stores a request id for later log entries.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSpotID stores the spot being processed.
func WithSpotID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, spotIDKey, id)
}

// WithCityID stores the city being processed.
func WithCityID(ctx context.Context, city string) context.Context {
	return context.WithValue(ctx, cityIDKey, city)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field           { return Field{Key: key, Value: value} }
func Int(key string, value int) Field          { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field      { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field  { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field        { return Field{Key: key, Value: value} }
func Any(key string, value any) Field          { return Field{Key: key, Value: value} }
func Strings(key string, value []string) Field { return Field{Key: key, Value: value} }
