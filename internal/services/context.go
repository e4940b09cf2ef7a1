package services

import "context"

type contextKey string

const (
	buildIDKey  contextKey = "build_id"
	stageKey    contextKey = "stage"
	documentKey contextKey = "document"
)

// WithBuildID annotates context with the build identifier.
func WithBuildID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, buildIDKey, id)
}

// BuildIDFromContext extracts the build identifier if present.
func BuildIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(buildIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the build stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDocument annotates context with the document kind being processed.
func WithDocument(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, documentKey, kind)
}

// DocumentFromContext returns the document kind if present.
func DocumentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(documentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
