// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
)

// Logger defines the logging interface used throughout the application.
// goLibMyCarrier's zap logger satisfies it and is wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter forwards to a Logger, stamping every entry with a fixed set of base fields
// (application name, process id). Per-call fields win over base fields.
type ZapAdapter struct {
	log  Logger
	base map[string]any
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// With returns a copy of the adapter that adds fields to every entry.
func (a *ZapAdapter) With(fields map[string]any) *ZapAdapter {
	base := make(map[string]any, len(a.base)+len(fields))
	for k, v := range a.base {
		base[k] = v
	}
	for k, v := range fields {
		base[k] = v
	}
	return &ZapAdapter{log: a.log, base: base}
}

func (a *ZapAdapter) merge(fields map[string]any) map[string]any {
	if len(a.base) == 0 {
		return fields
	}
	out := make(map[string]any, len(a.base)+len(fields))
	for k, v := range a.base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, a.merge(fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, a.merge(fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, a.merge(fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, a.merge(fields))
}
