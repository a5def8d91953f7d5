// Package logging wraps go.uber.org/zap with the level set a worker pool's
// environment variable contract needs: the usual FATAL/ERROR/WARN/INFO/DEBUG
// plus a TRACE level below zap's built-in Debug, for the per-task chatter
// that is too noisy to leave on even at DEBUG.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits one step below zap's DebugLevel so it never sorts above
// any built-in level.
const TraceLevel zapcore.Level = zapcore.DebugLevel - 1

// Config holds logger configuration.
type Config struct {
	Level  string // fatal, error, warn, info, debug, trace
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DefaultConfig returns a development-friendly configuration: console
// encoding at INFO to stdout.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
}

// Field is a structured log attribute.
type Field = zap.Field

// Field builds a structured attribute so callers need not import zap directly.
func Field(key string, value any) Field {
	return zap.Any(key, value)
}

// Logger is a thin wrapper around *zap.Logger that exposes the level set
// spec'd for this pool's LOG_LEVEL contract, including Trace.
type Logger struct {
	z *zap.Logger
}

// New builds a Logger from cfg. A nil cfg uses DefaultConfig. In a non-nil
// cfg, an empty Level means INFO, an empty Format selects JSON encoding, and
// an empty Output writes to stdout.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := parseLevel(cfg.Level)
	encoder := createEncoder(cfg)
	writer := createWriter(cfg.Output)

	core := zapcore.NewCore(encoder, writer, level)
	z := zap.New(core, zap.AddCaller())
	return &Logger{z: z}, nil
}

// NewFromEnv builds a Logger from the LOG_LEVEL environment variable,
// defaulting to INFO/console/stdout when unset or unrecognized.
func NewFromEnv() *Logger {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	l, _ := New(cfg)
	return l
}

// Nop returns a Logger that discards everything, used as the default when a
// caller does not supply one.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a child Logger with fields attached to every subsequent
// entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Trace logs below zap's Debug level.
func (l *Logger) Trace(msg string, fields ...Field) {
	if ce := l.z.Check(TraceLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Debug logs at DEBUG.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.z.Debug(msg, fields...)
}

// Info logs at INFO.
func (l *Logger) Info(msg string, fields ...Field) {
	l.z.Info(msg, fields...)
}

// Warn logs at WARN.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.z.Warn(msg, fields...)
}

// Error logs at ERROR.
func (l *Logger) Error(msg string, fields ...Field) {
	l.z.Error(msg, fields...)
}

// Fatal logs at FATAL and then terminates the process, matching zap's
// default Fatal behavior.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.z.Fatal(msg, fields...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func createEncoder(cfg *Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevel,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Format == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// encodeLevel renders TraceLevel as "trace" since zap's built-in encoders
// don't know about levels below Debug.
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == TraceLevel {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(l, enc)
}

func createWriter(output string) zapcore.WriteSyncer {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout)
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return zapcore.AddSync(os.Stdout)
		}
		return zapcore.AddSync(file)
	}
}
