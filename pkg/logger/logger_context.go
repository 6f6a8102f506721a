package logger

import (
	"context"
)

type runIDKey struct{}

// ContextWithRunID returns a context carrying the export run identifier
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the export run identifier stored in ctx, if any
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// FromContext returns a logger that tags every entry with the run id found in ctx
func FromContext(ctx context.Context, base Logger) Logger {
	id, ok := RunIDFromContext(ctx)
	if !ok {
		return base
	}
	return &contextLogger{base: base, fields: []Field{WithField("run", id)}}
}

type contextLogger struct {
	base   Logger
	fields []Field
}

func (l *contextLogger) with(fields []Field) []Field {
	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	return append(all, fields...)
}

func (l *contextLogger) Info(message string, fields ...Field) {
	l.base.Info(message, l.with(fields)...)
}

func (l *contextLogger) Error(message string, fields ...Field) {
	l.base.Error(message, l.with(fields)...)
}

func (l *contextLogger) Warn(message string, fields ...Field) {
	l.base.Warn(message, l.with(fields)...)
}

func (l *contextLogger) Debug(message string, fields ...Field) {
	l.base.Debug(message, l.with(fields)...)
}

func (l *contextLogger) Success(message string, fields ...Field) {
	l.base.Success(message, l.with(fields)...)
}

func (l *contextLogger) WithTarget(target string) Logger {
	return &contextLogger{base: l.base.WithTarget(target), fields: l.fields}
}
