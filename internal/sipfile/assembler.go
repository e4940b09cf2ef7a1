package sipfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/fileutil"
	"sipbuilder/internal/ip"
	"sipbuilder/internal/logging"
	"sipbuilder/internal/services"
)

// Assembler writes the SIP file layout from a loaded package and its
// generated documents. Assembly is attempted even for partially generated
// document sets; whatever was written stays on disk so a failed build can be
// inspected.
type Assembler struct {
	logger *slog.Logger
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{logger: logger}
}

// Write assembles the SIP at layout from the package payload and the
// documents that were generated. Documents missing from docs are skipped;
// the payload copy and checksum manifest always run.
func (a *Assembler) Write(ctx context.Context, pkg *ip.IP, docs map[compile.Kind]*compile.Document, layout Layout) error {
	logger := logging.WithContext(ctx, a.logger)

	if err := os.MkdirAll(layout.ContentDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "assemble", "create layout",
			fmt.Sprintf("creating %s", layout.ContentDir()), err)
	}

	for kind, dst := range map[compile.Kind]string{
		compile.KindMETS:       layout.METSPath(),
		compile.KindDublinCore: layout.DCPath(),
		compile.KindSigProp:    layout.SigPropPath(),
	} {
		doc, ok := docs[kind]
		if !ok || doc == nil {
			logger.Warn("document missing from assembly",
				slog.String(logging.FieldDocument, string(kind)))
			continue
		}
		if err := os.WriteFile(dst, doc.Data, 0o644); err != nil {
			return services.Wrap(services.ErrTransient, "assemble", "write document",
				fmt.Sprintf("writing %s", dst), err)
		}
	}

	src := filepath.Join(pkg.Path, ip.PayloadDirName)
	if err := fileutil.CopyTree(ctx, src, layout.StreamsDir()); err != nil {
		return services.Wrap(services.ErrTransient, "assemble", "copy payload",
			fmt.Sprintf("copying %s to %s", src, layout.StreamsDir()), err)
	}

	if err := a.writeManifest(pkg, layout); err != nil {
		return err
	}

	logger.Info("assembled SIP", slog.String("path", layout.Root))
	return nil
}

// writeManifest records one sha512 line per payload stream, relative to the
// SIP root. Checksums carried by the source package are reused; files the
// source manifest does not cover are hashed from the copied stream.
func (a *Assembler) writeManifest(pkg *ip.IP, layout Layout) error {
	files, err := fileutil.ListFiles(layout.StreamsDir())
	if err != nil {
		return services.Wrap(services.ErrTransient, "assemble", "write manifest",
			fmt.Sprintf("listing %s", layout.StreamsDir()), err)
	}

	source := pkg.Manifests["sha512"]
	var b strings.Builder
	for _, rel := range files {
		sum, ok := source[path.Join(ip.PayloadDirName, rel)]
		if !ok {
			sum, err = fileutil.SHA512File(filepath.Join(layout.StreamsDir(), rel))
			if err != nil {
				return services.Wrap(services.ErrTransient, "assemble", "write manifest",
					fmt.Sprintf("hashing %s", rel), err)
			}
		}
		fmt.Fprintf(&b, "%s %s\n", sum, path.Join(ContentDirName, StreamsDirName, rel))
	}

	if err := os.WriteFile(layout.ManifestPath(), []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "assemble", "write manifest",
			fmt.Sprintf("writing %s", layout.ManifestPath()), err)
	}
	return nil
}
