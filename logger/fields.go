package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across stubgen.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Model
	FieldModule = "module"
	FieldStruct = "struct"
	FieldPhrase = "phrase"
	FieldKey    = "key"

	// Build pipeline
	FieldStep    = "step"
	FieldVersion = "version"
	FieldCommand = "command"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and files
	FieldCount = "count"
	FieldFile  = "file"
	FieldPath  = "path"
)

type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a generation run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context as key-value pairs
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns the global logger decorated with run_id and component from ctx
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
//
//	type Engine struct {
//	    log *zap.SugaredLogger
//	}
//
//	func NewEngine() *Engine {
//	    return &Engine{log: logger.ComponentLogger("typegen.infer")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
