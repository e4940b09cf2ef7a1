package compile_test

import (
	"strings"
	"testing"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/ip"
	"sipbuilder/internal/metadata"
	"sipbuilder/internal/testsupport"
	"sipbuilder/internal/xmlbuild"
)

const (
	nsMETS    = "http://www.exlibrisgroup.com/xsd/dps/rosettaMets"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsRosetta = "http://www.exlibrisgroup.com/dps"
	nsDNX     = "http://www.exlibrisgroup.com/dps/dnx"
	nsPremis  = "http://www.loc.gov/premis/v3"
)

func extract(t *testing.T, opts ...testsupport.IPOption) *metadata.Metadata {
	t.Helper()
	root := testsupport.WriteIP(t, t.TempDir(), opts...)
	pkg, err := ip.Load(root)
	if err != nil {
		t.Fatalf("ip.Load failed: %v", err)
	}
	meta, err := metadata.Extract(pkg)
	if err != nil {
		t.Fatalf("metadata.Extract failed: %v", err)
	}
	return meta
}

func compileKind(t *testing.T, kind compile.Kind, meta *metadata.Metadata) *xmlbuild.Element {
	t.Helper()
	for _, compiler := range compile.Compilers() {
		if compiler.Kind() != kind {
			continue
		}
		doc, err := compiler.Compile(meta)
		if err != nil {
			t.Fatalf("Compile %s failed: %v", kind, err)
		}
		if doc.Outcome.Status != compile.StatusPending {
			t.Fatalf("new document should have pending outcome, got %s", doc.Outcome.Status)
		}
		root, err := xmlbuild.Parse(doc.Data)
		if err != nil {
			t.Fatalf("generated %s does not parse: %v\n%s", kind, err, doc.Data)
		}
		return root
	}
	t.Fatalf("no compiler for kind %s", kind)
	return nil
}

func TestDublinCoreRecordMapsBagInfo(t *testing.T) {
	meta := extract(t,
		testsupport.WithBagInfo("DC-Terms-Identifier", "urn:example:1"),
	)
	root := compileKind(t, compile.KindDublinCore, meta)

	if root.Space != nsDC || root.Local != "record" {
		t.Fatalf("unexpected root element: %q %q", root.Space, root.Local)
	}
	if title := root.Find(nsDC, "title"); title == nil || title.Text != "Test Object" {
		t.Fatalf("missing dc:title, got %#v", title)
	}
	if id := root.Find(nsDCTerms, "identifier"); id == nil || id.Text != "urn:example:1" {
		t.Fatalf("missing dcterms:identifier, got %#v", id)
	}
	if sys := root.Find(nsRosetta, "externalSystem"); sys == nil || sys.Text != "test-system" {
		t.Fatalf("missing rosetta:externalSystem, got %#v", sys)
	}
	if id := root.Find(nsRosetta, "externalId"); id == nil || id.Text != "obj-0001" {
		t.Fatalf("missing rosetta:externalId, got %#v", id)
	}
}

func TestMETSDMDSecRecordsCompositeIdentifier(t *testing.T) {
	meta := extract(t)
	root := compileKind(t, compile.KindMETS, meta)

	dmdsec := root.Find(nsMETS, "dmdSec")
	if dmdsec == nil {
		t.Fatal("missing dmdSec")
	}
	record := findRecord(t, dmdsec)
	id := record.Find(nsDCTerms, "identifier")
	if id == nil || id.Text != "dcm:Test Organization@test-system@obj-0001" {
		t.Fatalf("unexpected dcterms:identifier: %#v", id)
	}
}

func TestMETSDMDSecMergesDCXMLWithoutDuplicates(t *testing.T) {
	dcXML := `<record xmlns="http://purl.org/dc/elements/1.1/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Test Object</dc:title>
  <dc:creator>Embedded Author</dc:creator>
</record>`
	meta := extract(t, testsupport.WithMetaXML("dc.xml", dcXML))
	root := compileKind(t, compile.KindMETS, meta)

	record := findRecord(t, root.Find(nsMETS, "dmdSec"))
	titles := record.FindAll(nsDC, "title")
	if len(titles) != 1 {
		t.Fatalf("expected duplicate title to be skipped, got %d titles", len(titles))
	}
	if creator := record.Find(nsDC, "creator"); creator == nil || creator.Text != "Embedded Author" {
		t.Fatalf("expected embedded creator to be merged, got %#v", creator)
	}

	// creator sorts before title in the fixed record order
	var order []string
	for _, child := range record.Children {
		order = append(order, child.Local)
	}
	creatorIdx, titleIdx := indexOf(order, "creator"), indexOf(order, "title")
	if creatorIdx < 0 || titleIdx < 0 || creatorIdx > titleIdx {
		t.Fatalf("unexpected record order: %v", order)
	}
}

func TestMETSRepresentationSections(t *testing.T) {
	meta := extract(t, testsupport.WithPayloadFiles(
		"preservation_master/a.tiff",
		"modified_master/rep/b.jpg",
	))
	root := compileKind(t, compile.KindMETS, meta)

	amdsecs := root.FindAll(nsMETS, "amdSec")
	var ids []string
	for _, amdsec := range amdsecs {
		for _, attr := range amdsec.Attrs {
			if attr.Local == "ID" {
				ids = append(ids, attr.Value)
			}
		}
	}
	for _, want := range []string{"ie-amd", "rep1-amd", "rep2-amd", "fid1-1-amd", "fid2-1-amd"} {
		if indexOf(ids, want) < 0 {
			t.Fatalf("missing amdSec %q in %v", want, ids)
		}
	}

	filesec := root.Find(nsMETS, "fileSec")
	if filesec == nil {
		t.Fatal("missing fileSec")
	}
	groups := filesec.FindAll(nsMETS, "fileGrp")
	if len(groups) != 2 {
		t.Fatalf("expected 2 fileGrp elements, got %d", len(groups))
	}
}

func TestMETSFLocatStripsPayloadRoot(t *testing.T) {
	meta := extract(t)
	root := compileKind(t, compile.KindMETS, meta)

	filesec := root.Find(nsMETS, "fileSec")
	flocat := filesec.Children[0].Children[0].Find(nsMETS, "FLocat")
	if flocat == nil {
		t.Fatal("missing FLocat")
	}
	var href string
	for _, attr := range flocat.Attrs {
		if attr.Local == "href" {
			href = attr.Value
		}
	}
	if href != "preservation_master/sample.tiff" {
		t.Fatalf("expected href relative to payload root, got %q", href)
	}
	if strings.HasPrefix(href, "data/") {
		t.Fatalf("href must not keep the payload directory: %q", href)
	}
}

func TestMETSTechMDCarriesPreservationLevelAndSigProps(t *testing.T) {
	sigprop := `<premis xmlns="http://www.loc.gov/premis/v3"><object>
  <significantProperties>
    <significantPropertiesType>content</significantPropertiesType>
    <significantPropertiesValue>searchable text</significantPropertiesValue>
  </significantProperties>
</object></premis>`
	meta := extract(t,
		testsupport.WithBagInfo("Preservation-Level", "full"),
		testsupport.WithMetaXML("significant_properties.xml", sigprop),
	)
	root := compileKind(t, compile.KindMETS, meta)

	techmd := root.Find(nsMETS, "amdSec").Find(nsMETS, "techMD")
	dnx := techmd.Find(nsMETS, "mdWrap").Find(nsMETS, "xmlData").Find(nsDNX, "dnx")
	if dnx == nil {
		t.Fatal("missing dnx container")
	}

	var sections []string
	for _, section := range dnx.FindAll(nsDNX, "section") {
		for _, attr := range section.Attrs {
			if attr.Local == "id" {
				sections = append(sections, attr.Value)
			}
		}
	}
	for _, want := range []string{"preservationLevel", "significantProperties"} {
		if indexOf(sections, want) < 0 {
			t.Fatalf("missing dnx section %q in %v", want, sections)
		}
	}
}

func TestMETSOmitsRightsMDWithoutRightsStatement(t *testing.T) {
	meta := extract(t)
	root := compileKind(t, compile.KindMETS, meta)

	ieAMD := root.Find(nsMETS, "amdSec")
	if rightsmd := ieAMD.Find(nsMETS, "rightsMD"); rightsmd != nil {
		t.Fatal("rightsMD must be omitted when the package has no rights statement")
	}
}

func TestMETSIncludesRightsMDWithRightsStatement(t *testing.T) {
	meta := extract(t, testsupport.WithBagInfo("DC-Rights", "All rights reserved"))
	root := compileKind(t, compile.KindMETS, meta)

	ieAMD := root.Find(nsMETS, "amdSec")
	rightsmd := ieAMD.Find(nsMETS, "rightsMD")
	if rightsmd == nil {
		t.Fatal("expected rightsMD section")
	}
	var id string
	for _, attr := range rightsmd.Attrs {
		if attr.Local == "ID" {
			id = attr.Value
		}
	}
	if id != "ie-amd-rights" {
		t.Fatalf("unexpected rightsMD ID: %q", id)
	}
}

func TestMETSOmitsSourceMDWhenAbsent(t *testing.T) {
	meta := extract(t)
	root := compileKind(t, compile.KindMETS, meta)

	ieAMD := root.Find(nsMETS, "amdSec")
	if sourcemd := ieAMD.Find(nsMETS, "sourceMD"); sourcemd != nil {
		t.Fatal("sourceMD must be omitted when the package has no source metadata")
	}
}

func TestMETSIncludesSourceMDWhenPresent(t *testing.T) {
	meta := extract(t, testsupport.WithMetaXML("source_metadata.xml", "<source>catalog record</source>"))
	root := compileKind(t, compile.KindMETS, meta)

	ieAMD := root.Find(nsMETS, "amdSec")
	if sourcemd := ieAMD.Find(nsMETS, "sourceMD"); sourcemd == nil {
		t.Fatal("expected sourceMD section")
	}
}

func TestSigPropDocumentEmptyWhenNothingMarked(t *testing.T) {
	meta := extract(t)
	root := compileKind(t, compile.KindSigProp, meta)

	if root.Space != nsPremis || root.Local != "premis" {
		t.Fatalf("unexpected root: %q %q", root.Space, root.Local)
	}
	object := root.Find(nsPremis, "object")
	if object == nil {
		t.Fatal("expected premis:object even for empty documents")
	}
	if len(object.Children) != 0 {
		t.Fatalf("expected empty object, got %d children", len(object.Children))
	}
}

func TestSigPropDocumentListsMarkedProperties(t *testing.T) {
	sigprop := `<premis xmlns="http://www.loc.gov/premis/v3"><object>
  <significantProperties>
    <significantPropertiesType>behavior</significantPropertiesType>
    <significantPropertiesValue>animations preserved</significantPropertiesValue>
  </significantProperties>
</object></premis>`
	meta := extract(t, testsupport.WithMetaXML("significant_properties.xml", sigprop))
	root := compileKind(t, compile.KindSigProp, meta)

	entries := root.Find(nsPremis, "object").FindAll(nsPremis, "significantProperties")
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	typ := entries[0].Find(nsPremis, "significantPropertiesType")
	if typ == nil || typ.Text != "behavior" {
		t.Fatalf("unexpected type element: %#v", typ)
	}
}

func findRecord(t *testing.T, dmdsec *xmlbuild.Element) *xmlbuild.Element {
	t.Helper()
	if dmdsec == nil {
		t.Fatal("missing dmdSec")
	}
	record := dmdsec.Find(nsMETS, "mdWrap").Find(nsMETS, "xmlData").Find(nsDC, "record")
	if record == nil {
		t.Fatal("missing dc record in dmdSec")
	}
	return record
}

func indexOf(values []string, want string) int {
	for i, value := range values {
		if value == want {
			return i
		}
	}
	return -1
}
