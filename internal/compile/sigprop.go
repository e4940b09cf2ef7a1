package compile

import (
	"sipbuilder/internal/metadata"
	"sipbuilder/internal/xmlbuild"
)

// SigPropCompiler synthesizes the significant-properties document. Unlike
// optional sections elsewhere, an absence of significant characteristics
// still produces a valid document with an empty object, so downstream
// consumers can tell "nothing marked significant" apart from "no data".
type SigPropCompiler struct{}

func NewSigPropCompiler() *SigPropCompiler { return &SigPropCompiler{} }

func (c *SigPropCompiler) Kind() Kind { return KindSigProp }

func (c *SigPropCompiler) Compile(meta *metadata.Metadata) (*Document, error) {
	root := xmlbuild.New(nsPremis.URI, "premis")
	root.SetAttr("version", "3.0")
	object := root.Sub(nsPremis.URI, "object")

	for _, prop := range meta.SigProps {
		entry := object.Sub(nsPremis.URI, "significantProperties")
		entry.Sub(nsPremis.URI, "significantPropertiesType").SetText(prop.Type)
		entry.Sub(nsPremis.URI, "significantPropertiesValue").SetText(prop.Value)
	}

	data, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{nsPremis})
	if err != nil {
		return nil, err
	}
	return newDocument(KindSigProp, data), nil
}
