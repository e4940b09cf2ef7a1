package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"sipbuilder/internal/fileutil"
)

// IPOption customizes a generated information package fixture.
type IPOption func(*ipBuilder)

type ipBuilder struct {
	bagInfo      [][2]string
	removedKeys  map[string]bool
	payloadFiles []string
	metaFiles    map[string]string
	skipManifest bool
}

// WriteIP lays out a loadable information package fixture at root and
// returns root. The default package carries the required bag-info keys, one
// preservation master file, and a sha512 manifest covering the payload.
func WriteIP(t testing.TB, root string, opts ...IPOption) string {
	t.Helper()

	b := &ipBuilder{
		bagInfo: [][2]string{
			{"Source-Organization", "Test Organization"},
			{"Origin-System-Identifier", "test-system"},
			{"External-Identifier", "obj-0001"},
			{"DC-Title", "Test Object"},
		},
		removedKeys:  make(map[string]bool),
		payloadFiles: []string{"preservation_master/sample.tiff"},
		metaFiles:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, rel := range b.payloadFiles {
		WriteFile(t, filepath.Join(root, "data", filepath.FromSlash(rel)), 64)
	}

	var bagInfo strings.Builder
	for _, pair := range b.bagInfo {
		if b.removedKeys[pair[0]] {
			continue
		}
		fmt.Fprintf(&bagInfo, "%s: %s\n", pair[0], pair[1])
	}
	writeText(t, filepath.Join(root, "bag-info.txt"), bagInfo.String())

	if !b.skipManifest {
		var manifest strings.Builder
		sorted := append([]string(nil), b.payloadFiles...)
		sort.Strings(sorted)
		for _, rel := range sorted {
			sum, err := fileutil.SHA512File(filepath.Join(root, "data", filepath.FromSlash(rel)))
			if err != nil {
				t.Fatalf("hash payload %s: %v", rel, err)
			}
			fmt.Fprintf(&manifest, "%s data/%s\n", sum, rel)
		}
		writeText(t, filepath.Join(root, "manifest-sha512.txt"), manifest.String())
	}

	for name, content := range b.metaFiles {
		writeText(t, filepath.Join(root, "meta", name), content)
	}

	return root
}

// WithBagInfo appends one bag-info key/value pair. Repeating a key yields a
// multi-valued field.
func WithBagInfo(key, value string) IPOption {
	return func(b *ipBuilder) {
		b.bagInfo = append(b.bagInfo, [2]string{key, value})
	}
}

// WithoutBagInfoKey drops every occurrence of key from bag-info.
func WithoutBagInfoKey(key string) IPOption {
	return func(b *ipBuilder) {
		b.removedKeys[key] = true
	}
}

// WithPayloadFiles replaces the payload file set. Paths are slash-relative
// to the data directory.
func WithPayloadFiles(rels ...string) IPOption {
	return func(b *ipBuilder) {
		b.payloadFiles = rels
	}
}

// WithMetaXML writes one metadata document under meta/.
func WithMetaXML(name, content string) IPOption {
	return func(b *ipBuilder) {
		b.metaFiles[name] = content
	}
}

// WithoutManifest omits the sha512 manifest, producing an incomplete package.
func WithoutManifest() IPOption {
	return func(b *ipBuilder) {
		b.skipManifest = true
	}
}

func writeText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
