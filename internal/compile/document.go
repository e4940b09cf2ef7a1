package compile

import "sipbuilder/internal/metadata"

// Kind identifies a generated document type.
type Kind string

const (
	KindMETS       Kind = "preservation-mets"
	KindDublinCore Kind = "dublin-core"
	KindSigProp    Kind = "significant-properties"
)

// AllKinds returns the document kinds in synthesis order.
func AllKinds() []Kind {
	return []Kind{KindMETS, KindDublinCore, KindSigProp}
}

// ValidationStatus describes how validation of a generated document ended.
type ValidationStatus string

const (
	// StatusPending marks a document not yet validated.
	StatusPending ValidationStatus = "pending"
	// StatusValid marks a document accepted by a schema.
	StatusValid ValidationStatus = "valid"
	// StatusInvalid marks a document rejected by a schema.
	StatusInvalid ValidationStatus = "invalid"
	// StatusUnvalidated marks a document whose schema references could not
	// be loaded; the build proceeds with a warning.
	StatusUnvalidated ValidationStatus = "unvalidated"
	// StatusSkipped marks a document whose kind has validation deactivated.
	StatusSkipped ValidationStatus = "skipped"
)

// Violation is one schema violation with a document-path locator.
type Violation struct {
	Path    string `json:"path,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Outcome is the validation result attached to a generated document.
type Outcome struct {
	Status ValidationStatus `json:"status"`
	// SchemaName names the schema reference actually used, which may be the
	// fallback when the primary failed to load.
	SchemaName string      `json:"schema_name,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Accepted reports whether the outcome does not block a conformant SIP.
func (o Outcome) Accepted() bool {
	switch o.Status {
	case StatusValid, StatusUnvalidated, StatusSkipped:
		return true
	default:
		return false
	}
}

// Document is a generated XML artifact. Created by a Compiler with a pending
// outcome; the validator attaches the final outcome exactly once.
type Document struct {
	Kind    Kind
	Data    []byte
	Outcome Outcome
}

// Compiler maps the normalized metadata model to one serialized document
// kind. Implementations are deterministic and free of side effects.
type Compiler interface {
	Kind() Kind
	Compile(meta *metadata.Metadata) (*Document, error)
}

// Compilers returns one compiler per document kind, in synthesis order.
func Compilers() []Compiler {
	return []Compiler{
		NewMETSCompiler(),
		NewDublinCoreCompiler(),
		NewSigPropCompiler(),
	}
}

func newDocument(kind Kind, data []byte) *Document {
	return &Document{
		Kind:    kind,
		Data:    data,
		Outcome: Outcome{Status: StatusPending},
	}
}
