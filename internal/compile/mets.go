package compile

import (
	"fmt"
	"sort"
	"strings"

	"sipbuilder/internal/metadata"
	"sipbuilder/internal/xmlbuild"
)

// dmdDCMap maps bag-info keys to descriptive record elements inside the
// dmdSec. Bag-info values take priority over the package's embedded dc.xml.
var dmdDCMap = []baginfoMapping{
	{"DC-Terms-Identifier", qualifiedName{nsDCTerms, "identifier"}},
	{"DC-Creator", qualifiedName{nsDC, "creator"}},
	{"DC-Title", qualifiedName{nsDC, "title"}},
	{"DC-Rights", qualifiedName{nsDC, "rights"}},
	{"DC-Terms-Rights", qualifiedName{nsDCTerms, "rights"}},
	{"DC-Terms-License", qualifiedName{nsDCTerms, "license"}},
	{"DC-Terms-Access-Rights", qualifiedName{nsDCTerms, "accessRights"}},
	{"Embargo-Enddate", qualifiedName{nsDCTerms, "available"}},
	{"DC-Terms-Rights-Holder", qualifiedName{nsDCTerms, "rightsHolder"}},
}

// dmdRecordOrder fixes the element order of the descriptive record. Elements
// outside this list sort after it by name and content.
var dmdRecordOrder = []qualifiedName{
	{nsDCTerms, "identifier"},
	{nsDC, "creator"},
	{nsDC, "title"},
	{nsDC, "rights"},
	{nsDCTerms, "rights"},
	{nsDCTerms, "license"},
	{nsDCTerms, "accessRights"},
	{nsDCTerms, "available"},
	{nsDCTerms, "rightsHolder"},
}

// METSCompiler synthesizes the preservation METS document describing the
// intellectual entity, its representations and its payload files.
type METSCompiler struct{}

func NewMETSCompiler() *METSCompiler { return &METSCompiler{} }

func (c *METSCompiler) Kind() Kind { return KindMETS }

func (c *METSCompiler) Compile(meta *metadata.Metadata) (*Document, error) {
	root := xmlbuild.New(nsMETS.URI, "mets")

	root.Append(c.compileDMDSec(meta))
	root.Append(c.compileIEAMDSec(meta))
	for _, amdsec := range c.compileRepAMDSecs(meta.Representations) {
		root.Append(amdsec)
	}
	for _, amdsec := range c.compileFileAMDSecs(meta.Representations) {
		root.Append(amdsec)
	}
	root.Append(c.compileFileSec(meta.Representations))

	data, err := xmlbuild.Marshal(root, []xmlbuild.Namespace{
		nsMETS, nsDC, nsDCTerms, nsOAI, nsXLink,
	})
	if err != nil {
		return nil, err
	}
	return newDocument(KindMETS, data), nil
}

// clark renders a namespace-qualified name in a single comparable string.
func clark(space, local string) string {
	return "{" + space + "}" + local
}

// recordOrderIndex positions a descriptive record element for sorting.
func recordOrderIndex(space, local string) int {
	for i, name := range dmdRecordOrder {
		if name.ns.URI == space && name.local == local {
			return i
		}
	}
	return len(dmdRecordOrder)
}

// mdWrap nests child inside a mets:mdWrap/mets:xmlData envelope.
func mdWrap(child *xmlbuild.Element, mdType, otherMDType string) *xmlbuild.Element {
	wrap := xmlbuild.New(nsMETS.URI, "mdWrap")
	wrap.SetAttr("MDTYPE", mdType)
	if otherMDType != "" {
		wrap.SetAttr("OTHERMDTYPE", otherMDType)
	}
	xmldata := wrap.Sub(nsMETS.URI, "xmlData")
	xmldata.Append(child)
	return wrap
}

// newDNX returns an empty dnx container. Its subtree serializes in the dnx
// default namespace.
func newDNX() *xmlbuild.Element {
	return xmlbuild.New(dnxURI, "dnx")
}

// compileDMDSec builds the ie-dmd section holding the merged descriptive
// record: the composite identifier, the bag-info mappings, then any dc.xml
// elements not already covered by bag-info.
func (c *METSCompiler) compileDMDSec(meta *metadata.Metadata) *xmlbuild.Element {
	dmdsec := xmlbuild.New(nsMETS.URI, "dmdSec")
	dmdsec.SetAttr("ID", "ie-dmd")

	record := xmlbuild.New(nsDC.URI, "record")
	record.Sub(nsDCTerms.URI, "identifier").SetText(meta.CompositeIdentifier)

	type entry struct{ tag, text string }
	fromBagInfo := make(map[entry]bool)
	for _, mapping := range dmdDCMap {
		for _, value := range meta.Descriptive[mapping.key] {
			record.Sub(mapping.name.ns.URI, mapping.name.local).SetText(value)
			fromBagInfo[entry{clark(mapping.name.ns.URI, mapping.name.local), value}] = true
		}
	}
	for _, extra := range meta.DCExtras {
		if fromBagInfo[entry{clark(extra.Space, extra.Local), extra.Text}] {
			continue
		}
		record.Append(extra)
	}

	sort.SliceStable(record.Children, func(i, j int) bool {
		a, b := record.Children[i], record.Children[j]
		ai, bi := recordOrderIndex(a.Space, a.Local), recordOrderIndex(b.Space, b.Local)
		if ai != bi {
			return ai < bi
		}
		at, bt := clark(a.Space, a.Local), clark(b.Space, b.Local)
		if at != bt {
			return at < bt
		}
		return a.Text < b.Text
	})

	dmdsec.Append(mdWrap(record, "DC", ""))
	return dmdsec
}

// compileIEAMDSec builds the ie-amd section with its technical, rights,
// source and provenance subsections. The rights and source subsections are
// omitted entirely when the package carries no backing data for them.
func (c *METSCompiler) compileIEAMDSec(meta *metadata.Metadata) *xmlbuild.Element {
	amdsec := xmlbuild.New(nsMETS.URI, "amdSec")
	amdsec.SetAttr("ID", "ie-amd")

	amdsec.Append(c.compileIETechMD(meta))
	if meta.HasRights() {
		amdsec.Append(c.compileIERightsMD())
	}
	if meta.SourceMetadata != nil {
		amdsec.Append(c.compileIESourceMD(meta.SourceMetadata))
	}
	amdsec.Append(c.compileIEDigiprovMD(meta))
	return amdsec
}

func (c *METSCompiler) compileIETechMD(meta *metadata.Metadata) *xmlbuild.Element {
	dnx := newDNX()

	if meta.PreservationLevel != "" {
		section := dnx.Sub(dnxURI, "section")
		section.SetAttr("id", "preservationLevel")
		record := section.Sub(dnxURI, "record")
		record.Sub(dnxURI, "key").SetAttr("id", "preservationLevelType").SetText(meta.PreservationLevel)
	}

	if meta.HasSigProps {
		section := dnx.Sub(dnxURI, "section")
		section.SetAttr("id", "significantProperties")
		for _, prop := range meta.SigProps {
			record := section.Sub(dnxURI, "record")
			record.Sub(dnxURI, "key").SetAttr("id", "significantPropertiesType").SetText(prop.Type)
			record.Sub(dnxURI, "key").SetAttr("id", "significantPropertiesValue").SetText(prop.Value)
		}
	}

	techmd := xmlbuild.New(nsMETS.URI, "techMD")
	techmd.SetAttr("ID", "ie-amd-tech")
	techmd.Append(mdWrap(dnx, "OTHER", "dnx"))
	return techmd
}

func (c *METSCompiler) compileIERightsMD() *xmlbuild.Element {
	dnx := newDNX()
	dnx.Sub(dnxURI, "section").SetAttr("id", "accessRightsPolicy")

	rightsmd := xmlbuild.New(nsMETS.URI, "rightsMD")
	rightsmd.SetAttr("ID", "ie-amd-rights")
	rightsmd.Append(mdWrap(dnx, "OTHER", "dnx"))
	return rightsmd
}

func (c *METSCompiler) compileIESourceMD(source *xmlbuild.Element) *xmlbuild.Element {
	sourcemd := xmlbuild.New(nsMETS.URI, "sourceMD")
	sourcemd.SetAttr("ID", "ie-amd-source-OTHER")
	sourcemd.Append(mdWrap(source, "OTHER", "Text"))
	return sourcemd
}

// compileIEDigiprovMD builds the provenance subsection. Events collected from
// the package supplement an otherwise empty dnx container.
func (c *METSCompiler) compileIEDigiprovMD(meta *metadata.Metadata) *xmlbuild.Element {
	dnx := newDNX()
	if meta.Events != nil {
		section := dnx.Sub(dnxURI, "section")
		section.SetAttr("id", "event")
		section.Append(meta.Events)
	}

	digiprovmd := xmlbuild.New(nsMETS.URI, "digiprovMD")
	digiprovmd.SetAttr("ID", "ie-amd-digiprov")
	digiprovmd.Append(mdWrap(dnx, "OTHER", "dnx"))
	return digiprovmd
}

// compileRepAMDSecs builds one repN-amd section per representation with its
// preservation and usage type characteristics.
func (c *METSCompiler) compileRepAMDSecs(reps []metadata.Representation) []*xmlbuild.Element {
	var amdsecs []*xmlbuild.Element
	for _, rep := range reps {
		dnx := newDNX()
		section := dnx.Sub(dnxURI, "section")
		section.SetAttr("id", "generalRepCharacteristics")
		record := section.Sub(dnxURI, "record")
		record.Sub(dnxURI, "key").SetAttr("id", "preservationType").SetText(rep.PreservationType)
		record.Sub(dnxURI, "key").SetAttr("id", "usageType").SetText(rep.UsageType)

		amdsec := xmlbuild.New(nsMETS.URI, "amdSec")
		amdsec.SetAttr("ID", fmt.Sprintf("rep%d-amd", rep.Index))
		techmd := amdsec.Sub(nsMETS.URI, "techMD")
		techmd.SetAttr("ID", fmt.Sprintf("rep%d-amd-tech", rep.Index))
		techmd.Append(mdWrap(dnx, "OTHER", "dnx"))
		amdsecs = append(amdsecs, amdsec)
	}
	return amdsecs
}

// compileFileAMDSecs builds one fidN-M-amd section per payload file carrying
// its fixity records.
func (c *METSCompiler) compileFileAMDSecs(reps []metadata.Representation) []*xmlbuild.Element {
	var amdsecs []*xmlbuild.Element
	for _, rep := range reps {
		for _, file := range rep.Files {
			dnx := newDNX()
			section := dnx.Sub(dnxURI, "section")
			section.SetAttr("id", "fileFixity")
			for _, checksum := range file.Checksums {
				record := section.Sub(dnxURI, "record")
				record.Sub(dnxURI, "key").SetAttr("id", "fixityType").SetText(checksum.Algorithm)
				record.Sub(dnxURI, "key").SetAttr("id", "fixityValue").SetText(checksum.Value)
			}

			amdsec := xmlbuild.New(nsMETS.URI, "amdSec")
			amdsec.SetAttr("ID", fmt.Sprintf("fid%d-%d-amd", rep.Index, file.Index))
			techmd := amdsec.Sub(nsMETS.URI, "techMD")
			techmd.SetAttr("ID", fmt.Sprintf("fid%d-%d-amd-tech", rep.Index, file.Index))
			techmd.Append(mdWrap(dnx, "OTHER", "dnx"))
			amdsecs = append(amdsecs, amdsec)
		}
	}
	return amdsecs
}

// compileFileSec builds the fileSec with one fileGrp per representation.
// File locators are recorded relative to the payload directory.
func (c *METSCompiler) compileFileSec(reps []metadata.Representation) *xmlbuild.Element {
	filesec := xmlbuild.New(nsMETS.URI, "fileSec")
	for _, rep := range reps {
		filegrp := filesec.Sub(nsMETS.URI, "fileGrp")
		filegrp.SetAttr("USE", rep.UsageType)
		filegrp.SetAttr("ID", fmt.Sprintf("rep%d", rep.Index))
		filegrp.SetAttr("ADMID", fmt.Sprintf("rep%d-amd", rep.Index))
		for _, file := range rep.Files {
			el := filegrp.Sub(nsMETS.URI, "file")
			el.SetAttr("ID", fmt.Sprintf("fid%d-%d", rep.Index, file.Index))
			el.SetAttr("ADMID", fmt.Sprintf("fid%d-%d-amd", rep.Index, file.Index))
			flocat := el.Sub(nsMETS.URI, "FLocat")
			flocat.SetAttr("LOCTYPE", file.LocType)
			flocat.SetAttrNS(nsXLink.URI, "href", stripRootSegment(file.Href))
		}
	}
	return filesec
}

// stripRootSegment drops the leading path segment of a payload href, turning
// "data/preservation_master/x.tiff" into "preservation_master/x.tiff".
func stripRootSegment(href string) string {
	if _, rest, ok := strings.Cut(href, "/"); ok {
		return rest
	}
	return href
}
