package testsupport

import (
	"path/filepath"
	"testing"

	"sipbuilder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Schema locations point at the embedded builtins so tests never touch the
// network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MountDir = filepath.Join(base, "storage")
	cfgVal.Paths.OutputDir = filepath.Join(base, "sip")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Validation.METS.XSD = "builtin:mets.xsd"
	cfgVal.Validation.METS.Name = "builtin mets"
	cfgVal.Validation.METS.FallbackXSD = ""
	cfgVal.Validation.METS.FallbackName = ""
	cfgVal.Validation.SigProp.Active = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMETSSchema overrides the primary METS schema location.
func WithMETSSchema(location string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Validation.METS.XSD = location
	}
}

// WithMETSFallback sets the fallback METS schema location.
func WithMETSFallback(location, name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Validation.METS.FallbackXSD = location
		b.cfg.Validation.METS.FallbackName = name
	}
}

// WithValidationDisabled deactivates validation for every document kind.
func WithValidationDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Validation.METS.Active = false
		b.cfg.Validation.DCXML.Active = false
		b.cfg.Validation.SigProp.Active = false
	}
}
