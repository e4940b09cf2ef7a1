package ip

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sipbuilder/internal/fileutil"
	"sipbuilder/internal/xmlbuild"
)

// Well-known locations inside an information package.
const (
	BagInfoName        = "bag-info.txt"
	ManifestPrefix     = "manifest-"
	PayloadDirName     = "data"
	DCXMLPath          = "meta/dc.xml"
	SigPropPath        = "meta/significant_properties.xml"
	EventsPath         = "meta/events.xml"
	SourceMetadataPath = "meta/source_metadata.xml"
)

// PremisNamespace is the namespace of the embedded significant-properties
// document.
const PremisNamespace = "http://www.loc.gov/premis/v3"

// Payload directory categories, in representation order.
const (
	CategoryPreservationMaster = "preservation_master"
	CategoryModifiedMaster     = "modified_master"
	CategoryDerivativeCopy     = "derivative_copy"
)

// ErrIncomplete marks an IP that is missing required source files.
var ErrIncomplete = errors.New("incomplete information package")

// BagInfo holds parsed bag-info.txt metadata. Repeated keys accumulate.
type BagInfo map[string][]string

// First returns the first value recorded for key, or "".
func (b BagInfo) First(key string) string {
	if values := b[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Has reports whether key carries at least one value.
func (b BagInfo) Has(key string) bool {
	return len(b[key]) > 0
}

// Manifest maps payload-relative file paths to checksum values for one
// algorithm.
type Manifest map[string]string

// SigProp is one significant-properties entry from the embedded PREMIS
// document.
type SigProp struct {
	Type  string
	Value string
}

// Payload lists the package content files per representation category. Paths
// are relative to the IP root using forward slashes.
type Payload struct {
	PreservationMaster []string
	ModifiedMaster     map[string][]string
	DerivativeCopy     map[string][]string
}

// IP is a loaded information package. Read-only once returned by Load.
type IP struct {
	Path string

	BagInfo   BagInfo
	Manifests map[string]Manifest

	DCXML          *xmlbuild.Element
	SourceMetadata *xmlbuild.Element
	Events         *xmlbuild.Element

	// SigProps distinguishes an absent significant_properties.xml
	// (HasSigProps false) from a present document listing nothing.
	SigProps    []SigProp
	HasSigProps bool

	Payload Payload

	// Warnings collects tolerated defects found while loading, such as
	// malformed manifest lines.
	Warnings []string
}

// Load reads an information package from disk. bag-info.txt and at least one
// manifest file are required; the metadata documents under meta/ are
// optional. A missing or malformed required file returns an error wrapping
// ErrIncomplete.
func Load(path string) (*IP, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrIncomplete, path)
	}

	pkg := &IP{Path: path}

	if pkg.BagInfo, err = loadBagInfo(filepath.Join(path, BagInfoName)); err != nil {
		return nil, err
	}
	if pkg.Manifests, err = pkg.loadManifests(); err != nil {
		return nil, err
	}
	if err := pkg.loadMetadata(); err != nil {
		return nil, err
	}
	if err := pkg.loadPayload(); err != nil {
		return nil, fmt.Errorf("%w: list payload: %v", ErrIncomplete, err)
	}

	return pkg, nil
}

func loadBagInfo(path string) (BagInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load %q: %v", ErrIncomplete, BagInfoName, err)
	}
	defer file.Close()

	out := BagInfo{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		out[key] = append(out[key], value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrIncomplete, BagInfoName, err)
	}
	return out, nil
}

// loadManifests reads every manifest-<alg>.txt at the package root. Lines
// that do not split into a checksum and a path are recorded as warnings, not
// failures.
func (p *IP) loadManifests() (map[string]Manifest, error) {
	matches, err := filepath.Glob(filepath.Join(p.Path, ManifestPrefix+"*.txt"))
	if err != nil {
		return nil, fmt.Errorf("%w: glob manifests: %v", ErrIncomplete, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no file with prefix %q found", ErrIncomplete, ManifestPrefix)
	}

	manifests := make(map[string]Manifest, len(matches))
	for _, match := range matches {
		base := filepath.Base(match)
		alg := strings.TrimSuffix(strings.TrimPrefix(base, ManifestPrefix), ".txt")
		entries, warnings, err := loadManifestFile(match, base)
		if err != nil {
			return nil, err
		}
		manifests[alg] = entries
		p.Warnings = append(p.Warnings, warnings...)
	}
	return manifests, nil
}

func loadManifestFile(path, name string) (Manifest, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unable to load %q: %v", ErrIncomplete, name, err)
	}
	defer file.Close()

	entries := Manifest{}
	var warnings []string
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		checksum, target, found := strings.Cut(line, " ")
		checksum = strings.TrimSpace(checksum)
		target = strings.TrimSpace(target)
		if !found || checksum == "" || target == "" {
			warnings = append(warnings, fmt.Sprintf("%s:%d: malformed checksum entry %q", name, lineNo, line))
			continue
		}
		entries[filepath.ToSlash(target)] = checksum
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: read %q: %v", ErrIncomplete, name, err)
	}
	return entries, warnings, nil
}

// loadMetadata reads the optional documents under meta/. A missing file is
// legal; a present but unparsable file fails the load since downstream
// documents cannot be produced from it.
func (p *IP) loadMetadata() error {
	var err error
	if p.DCXML, err = loadOptionalXML(p.Path, DCXMLPath); err != nil {
		return err
	}
	if p.SourceMetadata, err = loadOptionalXML(p.Path, SourceMetadataPath); err != nil {
		return err
	}
	if p.Events, err = loadOptionalXML(p.Path, EventsPath); err != nil {
		return err
	}

	sigPropDoc, err := loadOptionalXML(p.Path, SigPropPath)
	if err != nil {
		return err
	}
	if sigPropDoc != nil {
		p.HasSigProps = true
		p.SigProps = parseSigProps(sigPropDoc)
	}
	return nil
}

func loadOptionalXML(root, rel string) (*xmlbuild.Element, error) {
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unable to load %q: %v", ErrIncomplete, rel, err)
	}
	parsed, err := xmlbuild.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load XML from %q: %v", ErrIncomplete, rel, err)
	}
	return parsed, nil
}

func parseSigProps(doc *xmlbuild.Element) []SigProp {
	object := doc.Find(PremisNamespace, "object")
	if object == nil {
		return nil
	}
	var props []SigProp
	for _, entry := range object.FindAll(PremisNamespace, "significantProperties") {
		typeEl := entry.Find(PremisNamespace, "significantPropertiesType")
		valueEl := entry.Find(PremisNamespace, "significantPropertiesValue")
		if typeEl == nil || valueEl == nil {
			continue
		}
		props = append(props, SigProp{Type: typeEl.Text, Value: valueEl.Text})
	}
	return props
}

// loadPayload lists payload files per representation category. Paths are
// relative to the IP root so they line up with manifest entries.
func (p *IP) loadPayload() error {
	payloadRoot := filepath.Join(p.Path, PayloadDirName)

	master, err := listCategoryFiles(p.Path, filepath.Join(payloadRoot, CategoryPreservationMaster))
	if err != nil {
		return err
	}
	p.Payload.PreservationMaster = master

	for _, category := range []string{CategoryModifiedMaster, CategoryDerivativeCopy} {
		dir := filepath.Join(payloadRoot, category)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		reps := map[string][]string{}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			files, err := listCategoryFiles(p.Path, filepath.Join(dir, entry.Name()))
			if err != nil {
				return err
			}
			reps[entry.Name()] = files
		}
		switch category {
		case CategoryModifiedMaster:
			p.Payload.ModifiedMaster = reps
		case CategoryDerivativeCopy:
			p.Payload.DerivativeCopy = reps
		}
	}
	return nil
}

func listCategoryFiles(ipRoot, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	rels, err := fileutil.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(rels))
	for _, rel := range rels {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		ipRel, err := filepath.Rel(ipRoot, full)
		if err != nil {
			return nil, err
		}
		files = append(files, filepath.ToSlash(ipRel))
	}
	sort.Strings(files)
	return files, nil
}

// ChecksumsFor collects the per-algorithm checksums recorded for a payload
// file. Algorithms without an entry for the file are simply absent.
func (p *IP) ChecksumsFor(path string) map[string]string {
	out := map[string]string{}
	for alg, manifest := range p.Manifests {
		if value, ok := manifest[path]; ok {
			out[alg] = value
		}
	}
	return out
}
