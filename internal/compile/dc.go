package compile

import (
	"sipbuilder/internal/metadata"
	"sipbuilder/internal/xmlbuild"
)

// qualifiedName pairs a namespace with a local element name for the bag-info
// mapping tables.
type qualifiedName struct {
	ns    xmlbuild.Namespace
	local string
}

// baginfoMapping binds one bag-info key to its output element.
type baginfoMapping struct {
	key  string
	name qualifiedName
}

// dcRecordMap maps bag-info keys to the elements of the standalone dc.xml
// record, in output order.
var dcRecordMap = []baginfoMapping{
	{"DC-Title", qualifiedName{nsDC, "title"}},
	{"DC-Terms-Identifier", qualifiedName{nsDCTerms, "identifier"}},
	{"Origin-System-Identifier", qualifiedName{nsRosetta, "externalSystem"}},
	{"External-Identifier", qualifiedName{nsRosetta, "externalId"}},
}

// DublinCoreCompiler synthesizes the standalone dc.xml record from bag-info
// metadata.
type DublinCoreCompiler struct{}

func NewDublinCoreCompiler() *DublinCoreCompiler { return &DublinCoreCompiler{} }

func (c *DublinCoreCompiler) Kind() Kind { return KindDublinCore }

func (c *DublinCoreCompiler) Compile(meta *metadata.Metadata) (*Document, error) {
	record := xmlbuild.New(nsDC.URI, "record")

	for _, mapping := range dcRecordMap {
		for _, value := range meta.Descriptive[mapping.key] {
			record.Sub(mapping.name.ns.URI, mapping.name.local).SetText(value)
		}
	}

	data, err := xmlbuild.Marshal(record, []xmlbuild.Namespace{nsDC, nsDCTerms, nsRosetta})
	if err != nil {
		return nil, err
	}
	return newDocument(KindDublinCore, data), nil
}
