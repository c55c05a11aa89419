// Package log provides structured, leveled logging built on top of log/slog.
// Every call site identifies the emitting object so multiplexed logs (many
// engines, many fetch sessions) stay attributable without per-component
// loggers.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Logger wraps an slog.Handler with a runtime-adjustable level and the
// object-first call convention used across this codebase.
type Logger struct {
	level   atomic.Int64
	handler slog.Handler
}

var std = newLogger(os.Stderr)

func newLogger(w *os.File) *Logger {
	l := &Logger{}
	l.level.Store(int64(LevelInfo))
	l.handler = slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.Level(LevelTrace), // the Logger's own level does the gating
	})
	return l
}

// Default returns the package-wide logger.
func Default() *Logger {
	return std
}

// Level returns the current minimum level that will be emitted.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel changes the minimum level that will be emitted.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int64(level))
}

// SetLevel changes the minimum level on the default logger.
func SetLevel(level Level) {
	std.SetLevel(level)
}

func objName(obj any) string {
	if obj == nil {
		return "nil"
	}
	if s, ok := obj.(fmt.Stringer); ok && s != nil {
		return s.String()
	}
	return fmt.Sprintf("%v", obj)
}

func (l *Logger) emit(level Level, obj any, msg string, kv ...any) {
	if level < l.Level() {
		return
	}
	record := slog.NewRecord(time.Now(), slog.Level(level), msg, 0)
	record.AddAttrs(slog.String("mod", objName(obj)))
	record.Add(kv...)
	_ = l.handler.Handle(context.Background(), record)
}

// Trace logs at LevelTrace: per-packet wire traces, only useful when
// debugging the codec or engine loop itself.
func (l *Logger) Trace(obj any, msg string, kv ...any) { l.emit(LevelTrace, obj, msg, kv...) }

// Debug logs at LevelDebug: retransmissions, window adjustments, and other
// frequent-but-routine events.
func (l *Logger) Debug(obj any, msg string, kv ...any) { l.emit(LevelDebug, obj, msg, kv...) }

// Info logs at LevelInfo: session lifecycle events (start, finish, version resolved).
func (l *Logger) Info(obj any, msg string, kv ...any) { l.emit(LevelInfo, obj, msg, kv...) }

// Warn logs at LevelWarn: recoverable anomalies (nack, dropped malformed packet).
func (l *Logger) Warn(obj any, msg string, kv ...any) { l.emit(LevelWarn, obj, msg, kv...) }

// Error logs at LevelError: failures that abort the operation in progress.
func (l *Logger) Error(obj any, msg string, kv ...any) { l.emit(LevelError, obj, msg, kv...) }

// Fatal logs at LevelFatal and terminates the process.
func (l *Logger) Fatal(obj any, msg string, kv ...any) {
	l.emit(LevelFatal, obj, msg, kv...)
	os.Exit(1)
}

func Trace(obj any, msg string, kv ...any) { std.emit(LevelTrace, obj, msg, kv...) }
func Debug(obj any, msg string, kv ...any) { std.emit(LevelDebug, obj, msg, kv...) }
func Info(obj any, msg string, kv ...any)  { std.emit(LevelInfo, obj, msg, kv...) }
func Warn(obj any, msg string, kv ...any)  { std.emit(LevelWarn, obj, msg, kv...) }
func Error(obj any, msg string, kv ...any) { std.emit(LevelError, obj, msg, kv...) }
func Fatal(obj any, msg string, kv ...any) { std.Fatal(obj, msg, kv...) }
