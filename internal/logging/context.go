package logging

import (
	"context"
	"log/slog"

	"sipbuilder/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBuildID is the standardized structured logging key for build identifiers.
	FieldBuildID = "build_id"
	// FieldStage is the standardized structured logging key for build stage names.
	FieldStage = "stage"
	// FieldDocument is the standardized structured logging key for document kinds.
	FieldDocument = "document"
	// FieldSchema is the standardized structured logging key for schema display names.
	FieldSchema = "schema"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.BuildIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBuildID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if kind, ok := services.DocumentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDocument, kind))
	}
	return fields
}

// WithContext returns a logger annotated with any standardized fields found in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
