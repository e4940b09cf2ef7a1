package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacoelho/xsd/xsderrors"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/logging"
	"sipbuilder/internal/schema"
	"sipbuilder/internal/services"
)

// Validator checks generated documents against their configured schemas.
// The fallback reference of a kind is consulted only when the primary schema
// cannot be loaded; a document rejected by a loadable schema is invalid,
// full stop.
type Validator struct {
	registry *schema.Registry
	cache    *Cache
	logger   *slog.Logger
}

func New(registry *schema.Registry, cache *Cache, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{registry: registry, cache: cache, logger: logger}
}

// Validate attaches a validation outcome to doc. The document bytes are never
// modified and the outcome is written exactly once.
func (v *Validator) Validate(ctx context.Context, doc *compile.Document) error {
	if doc.Outcome.Status != compile.StatusPending {
		return services.Wrap(services.ErrValidation, "validate", "check document",
			fmt.Sprintf("document %s already has outcome %s", doc.Kind, doc.Outcome.Status), nil)
	}

	refs := v.registry.Resolve(doc.Kind)
	if len(refs) == 0 {
		doc.Outcome = compile.Outcome{Status: compile.StatusSkipped}
		return nil
	}

	ctx = services.WithDocument(ctx, string(doc.Kind))
	logger := logging.WithContext(ctx, v.logger)

	var warnings []string
	for _, ref := range refs {
		compiled, err := v.cache.Get(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			warnings = append(warnings,
				fmt.Sprintf("schema %q (%s) could not be loaded: %v", ref.Name, ref.Location, err))
			logger.Warn("schema load failed, trying next reference",
				slog.String(logging.FieldSchema, ref.Name), logging.Error(err))
			continue
		}

		verr := compiled.Validate(bytes.NewReader(doc.Data))
		if verr == nil {
			doc.Outcome = compile.Outcome{
				Status:     compile.StatusValid,
				SchemaName: ref.Name,
				Warnings:   warnings,
			}
			logger.Info("document valid", slog.String(logging.FieldSchema, ref.Name))
			return nil
		}
		doc.Outcome = compile.Outcome{
			Status:     compile.StatusInvalid,
			SchemaName: ref.Name,
			Violations: violations(verr),
			Warnings:   warnings,
		}
		logger.Warn("document rejected by schema",
			slog.String(logging.FieldSchema, ref.Name),
			slog.Int("violations", len(doc.Outcome.Violations)))
		return nil
	}

	doc.Outcome = compile.Outcome{
		Status:   compile.StatusUnvalidated,
		Warnings: append(warnings, "no schema reference could be loaded, document left unvalidated"),
	}
	logger.Warn("document unvalidated, no loadable schema")
	return nil
}

// Load compiles one schema reference through the shared cache.
func (v *Validator) Load(ctx context.Context, ref schema.Reference) error {
	_, err := v.cache.Get(ctx, ref)
	return err
}

// Preflight loads every active schema reference so that configuration
// problems surface at startup instead of on the first build. With strict set,
// a kind whose references all fail to load is an error; otherwise failures
// are logged and validation degrades to "unvalidated" at build time.
func (v *Validator) Preflight(ctx context.Context, strict bool) error {
	for _, kind := range compile.AllKinds() {
		refs := v.registry.Resolve(kind)
		if len(refs) == 0 {
			continue
		}
		loaded := false
		for _, ref := range refs {
			if _, err := v.cache.Get(ctx, ref); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				v.logger.Warn("schema preflight load failed",
					slog.String(logging.FieldDocument, string(kind)),
					slog.String(logging.FieldSchema, ref.Name),
					logging.Error(err))
				continue
			}
			loaded = true
		}
		if !loaded && strict {
			return services.Wrap(services.ErrConfiguration, "validate", "preflight",
				fmt.Sprintf("no loadable schema for document kind %s", kind), nil)
		}
	}
	return nil
}

// violations flattens an engine error into report violations.
func violations(err error) []compile.Violation {
	var list xsderrors.Errors
	if errors.As(err, &list) {
		out := make([]compile.Violation, 0, len(list))
		for _, item := range list {
			out = append(out, violation(item))
		}
		return out
	}
	return []compile.Violation{violation(err)}
}

func violation(err error) compile.Violation {
	var item *xsderrors.Error
	if !errors.As(err, &item) {
		return compile.Violation{Message: err.Error()}
	}
	path := item.Path
	if item.Line > 0 {
		path = fmt.Sprintf("%s (line %d, column %d)", item.Path, item.Line, item.Column)
	}
	return compile.Violation{
		Path:    path,
		Code:    string(item.Code),
		Message: item.Message,
	}
}
