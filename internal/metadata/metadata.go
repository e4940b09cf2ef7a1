package metadata

import (
	"fmt"
	"sort"
	"strings"

	"sipbuilder/internal/ip"
	"sipbuilder/internal/services"
	"sipbuilder/internal/xmlbuild"
)

// Bag-info keys with structural meaning for the generated documents.
const (
	KeySourceOrganization = "Source-Organization"
	KeyOriginSystemID     = "Origin-System-Identifier"
	KeyExternalID         = "External-Identifier"
	KeyPreservationLevel  = "Preservation-Level"
	KeyTitle              = "DC-Title"
)

// Preservation type identifiers per representation category.
const (
	TypePreservationMaster = "PRESERVATION_MASTER"
	TypeModifiedMaster     = "MODIFIED_MASTER"
	TypeDerivativeCopy     = "DERIVATIVE_COPY"
)

// DefaultUsageType is the usage type recorded for every representation.
const DefaultUsageType = "VIEW"

// DefaultLocType identifies how file hrefs are expressed.
const DefaultLocType = "URL"

// Checksum is one fixity value for a file. Algorithm is uppercased.
type Checksum struct {
	Algorithm string
	Value     string
}

// File describes a single payload file within a representation.
type File struct {
	Index     int
	Href      string
	LocType   string
	Checksums []Checksum
}

// Representation groups payload files sharing a preservation type.
type Representation struct {
	Index            int
	PreservationType string
	UsageType        string
	Files            []File
}

// Metadata is the normalized preservation metadata model every document
// synthesizer consumes. Optional sources are marked absent with nil or empty
// values rather than omitted fields so synthesizers can apply their omission
// policies explicitly.
type Metadata struct {
	SourceOrganization string
	OriginSystemID     string
	ExternalID         string
	// CompositeIdentifier is the dcm:{org}@{system}@{id} identifier required
	// by the preservation system.
	CompositeIdentifier string

	Title             string
	PreservationLevel string

	// Descriptive retains the full bag-info key/value view for the mapping
	// tables in the synthesizers.
	Descriptive ip.BagInfo

	// DCExtras carries the child elements of the embedded meta/dc.xml, nil
	// when the document is absent.
	DCExtras []*xmlbuild.Element

	// SourceMetadata is the embedded source metadata document root, nil when
	// absent.
	SourceMetadata *xmlbuild.Element

	// Events is the embedded provenance events document root, nil when
	// absent.
	Events *xmlbuild.Element

	// SigProps is meaningful only when HasSigProps is true; an empty slice
	// then means "document present, nothing marked significant".
	SigProps    []ip.SigProp
	HasSigProps bool

	Representations []Representation

	// Warnings carries tolerated source defects surfaced during loading.
	Warnings []string
}

// rightsKeys are the bag-info keys that constitute a rights statement.
var rightsKeys = []string{
	"DC-Rights",
	"DC-Terms-Rights",
	"DC-Terms-License",
	"DC-Terms-Access-Rights",
	"DC-Terms-Rights-Holder",
}

// HasRights reports whether the package carries any rights statement. A
// package without one gets no rights block in the generated documents.
func (m *Metadata) HasRights() bool {
	for _, key := range rightsKeys {
		if m.Descriptive.Has(key) {
			return true
		}
	}
	return false
}

// Extract normalizes a loaded information package into the metadata model.
// It fails when metadata required for a conformant SIP cannot be derived;
// absent optional sections are legal and recorded as absent.
func Extract(pkg *ip.IP) (*Metadata, error) {
	if pkg == nil {
		return nil, services.Wrap(services.ErrValidation, "extract", "read package", "nil information package", nil)
	}

	meta := &Metadata{
		SourceOrganization: pkg.BagInfo.First(KeySourceOrganization),
		OriginSystemID:     pkg.BagInfo.First(KeyOriginSystemID),
		ExternalID:         pkg.BagInfo.First(KeyExternalID),
		Title:              pkg.BagInfo.First(KeyTitle),
		PreservationLevel:  pkg.BagInfo.First(KeyPreservationLevel),
		Descriptive:        pkg.BagInfo,
		SourceMetadata:     pkg.SourceMetadata,
		Events:             pkg.Events,
		SigProps:           pkg.SigProps,
		HasSigProps:        pkg.HasSigProps,
		Warnings:           append([]string(nil), pkg.Warnings...),
	}

	for _, key := range []string{KeySourceOrganization, KeyOriginSystemID, KeyExternalID} {
		if !pkg.BagInfo.Has(key) {
			return nil, services.Wrap(
				services.ErrValidation,
				"extract",
				"derive identifier",
				fmt.Sprintf("missing required metadata %q in %s", key, ip.BagInfoName),
				nil,
			)
		}
	}
	meta.CompositeIdentifier = fmt.Sprintf(
		"dcm:%s@%s@%s", meta.SourceOrganization, meta.OriginSystemID, meta.ExternalID,
	)

	if pkg.DCXML != nil {
		meta.DCExtras = pkg.DCXML.Children
	}

	meta.Representations = buildRepresentations(pkg)
	return meta, nil
}

// buildRepresentations orders payload categories into the fixed preservation
// type sequence: the preservation master first, then modified masters and
// derivative copies with two-digit suffixes past the first of each kind.
func buildRepresentations(pkg *ip.IP) []Representation {
	var reps []Representation
	index := 0
	next := func() int {
		index++
		return index
	}

	reps = append(reps, Representation{
		Index:            next(),
		PreservationType: TypePreservationMaster,
		UsageType:        DefaultUsageType,
		Files:            buildFiles(pkg, pkg.Payload.PreservationMaster),
	})

	for _, category := range []struct {
		name  string
		files map[string][]string
	}{
		{TypeModifiedMaster, pkg.Payload.ModifiedMaster},
		{TypeDerivativeCopy, pkg.Payload.DerivativeCopy},
	} {
		for repID, repName := range sortedKeys(category.files) {
			preservationType := category.name
			if repID > 0 {
				preservationType = fmt.Sprintf("%s_%02d", category.name, repID+1)
			}
			reps = append(reps, Representation{
				Index:            next(),
				PreservationType: preservationType,
				UsageType:        DefaultUsageType,
				Files:            buildFiles(pkg, category.files[repName]),
			})
		}
	}
	return reps
}

func buildFiles(pkg *ip.IP, hrefs []string) []File {
	sorted := append([]string(nil), hrefs...)
	sort.Strings(sorted)

	files := make([]File, 0, len(sorted))
	for i, href := range sorted {
		files = append(files, File{
			Index:     i + 1,
			Href:      href,
			LocType:   DefaultLocType,
			Checksums: checksumList(pkg.ChecksumsFor(href)),
		})
	}
	return files
}

func checksumList(byAlg map[string]string) []Checksum {
	algs := make([]string, 0, len(byAlg))
	for alg := range byAlg {
		algs = append(algs, alg)
	}
	sort.Strings(algs)

	out := make([]Checksum, 0, len(algs))
	for _, alg := range algs {
		out = append(out, Checksum{Algorithm: strings.ToUpper(alg), Value: byAlg[alg]})
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
