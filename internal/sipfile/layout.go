package sipfile

import "path/filepath"

// SIP directory layout names.
const (
	ContentDirName = "content"
	StreamsDirName = "streams"
	METSName       = "ie.xml"
	DCName         = "dc.xml"
	SigPropName    = "sig_prop.xml"
	ManifestName   = "manifest-sha512.txt"
)

// Layout addresses the fixed file layout of a SIP rooted at a single output
// directory.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

// ContentDir is the directory holding the METS document and payload streams.
func (l Layout) ContentDir() string { return filepath.Join(l.Root, ContentDirName) }

// StreamsDir is the payload destination directory.
func (l Layout) StreamsDir() string { return filepath.Join(l.ContentDir(), StreamsDirName) }

// METSPath locates the preservation METS document.
func (l Layout) METSPath() string { return filepath.Join(l.ContentDir(), METSName) }

// DCPath locates the descriptive Dublin Core record.
func (l Layout) DCPath() string { return filepath.Join(l.Root, DCName) }

// SigPropPath locates the significant-properties document.
func (l Layout) SigPropPath() string { return filepath.Join(l.ContentDir(), SigPropName) }

// ManifestPath locates the generated payload checksum manifest.
func (l Layout) ManifestPath() string { return filepath.Join(l.Root, ManifestName) }
