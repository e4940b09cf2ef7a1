package schema

import (
	"embed"
	"fmt"
	"strings"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/config"
)

// BuiltinPrefix marks schema locations resolved against the embedded schema
// set instead of the filesystem or network.
const BuiltinPrefix = "builtin:"

//go:embed static/*.xsd
var builtinFS embed.FS

// Reference is one resolvable schema location for a document kind.
type Reference struct {
	// Location is an http(s) URL, a builtin: name, or an absolute path.
	Location string
	// Version is the XML Schema version the location is written in. It is
	// carried as cache-key metadata; the validation engine itself implements
	// XSD 1.0.
	Version string
	// Name is the human-readable schema name recorded in build reports.
	Name string
	// Fallback marks a reference tried only when the one before it failed
	// to load.
	Fallback bool
	// Mandatory marks document kinds whose rejection fails the build.
	Mandatory bool
}

// Registry resolves document kinds to their configured schema references.
type Registry struct {
	validation config.Validation
}

func NewRegistry(validation config.Validation) *Registry {
	return &Registry{validation: validation}
}

// Resolve returns the schema references for kind in resolution order, the
// primary first and any fallback after it. It returns nil when validation of
// the kind is deactivated.
func (r *Registry) Resolve(kind compile.Kind) []Reference {
	switch kind {
	case compile.KindMETS:
		mets := r.validation.METS
		if !mets.Active {
			return nil
		}
		refs := []Reference{{
			Location:  mets.XSD,
			Version:   mets.XMLSchemaVersion,
			Name:      mets.Name,
			Mandatory: mets.Mandatory,
		}}
		if mets.FallbackXSD != "" {
			refs = append(refs, Reference{
				Location:  mets.FallbackXSD,
				Version:   mets.FallbackXMLSchemaVersion,
				Name:      mets.FallbackName,
				Fallback:  true,
				Mandatory: mets.Mandatory,
			})
		}
		return refs
	case compile.KindDublinCore:
		return singleReference(r.validation.DCXML)
	case compile.KindSigProp:
		return singleReference(r.validation.SigProp)
	default:
		return nil
	}
}

// Active reports whether validation is configured for kind.
func (r *Registry) Active(kind compile.Kind) bool {
	return len(r.Resolve(kind)) > 0
}

func singleReference(s config.Schema) []Reference {
	if !s.Active {
		return nil
	}
	return []Reference{{
		Location:  s.XSD,
		Version:   s.XMLSchemaVersion,
		Name:      s.Name,
		Mandatory: s.Mandatory,
	}}
}

// IsBuiltin reports whether location names an embedded schema.
func IsBuiltin(location string) bool {
	return strings.HasPrefix(location, BuiltinPrefix)
}

// Builtin returns the embedded schema document named by a builtin: location.
func Builtin(location string) ([]byte, error) {
	name := strings.TrimPrefix(location, BuiltinPrefix)
	data, err := builtinFS.ReadFile("static/" + name)
	if err != nil {
		return nil, fmt.Errorf("builtin schema %q: %w", name, err)
	}
	return data, nil
}
