package metadata_test

import (
	"errors"
	"testing"

	"sipbuilder/internal/ip"
	"sipbuilder/internal/metadata"
	"sipbuilder/internal/services"
	"sipbuilder/internal/testsupport"
)

func loadIP(t *testing.T, opts ...testsupport.IPOption) *ip.IP {
	t.Helper()
	root := testsupport.WriteIP(t, t.TempDir(), opts...)
	pkg, err := ip.Load(root)
	if err != nil {
		t.Fatalf("ip.Load failed: %v", err)
	}
	return pkg
}

func TestExtractBuildsCompositeIdentifier(t *testing.T) {
	meta, err := metadata.Extract(loadIP(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := "dcm:Test Organization@test-system@obj-0001"
	if meta.CompositeIdentifier != want {
		t.Fatalf("unexpected composite identifier: %q", meta.CompositeIdentifier)
	}
}

func TestExtractFailsOnMissingIdentifierKey(t *testing.T) {
	pkg := loadIP(t, testsupport.WithoutBagInfoKey("External-Identifier"))

	_, err := metadata.Extract(pkg)
	if err == nil {
		t.Fatal("expected error for missing External-Identifier")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestExtractOrdersRepresentations(t *testing.T) {
	pkg := loadIP(t, testsupport.WithPayloadFiles(
		"preservation_master/a.tiff",
		"modified_master/zz/z.jpg",
		"modified_master/aa/a.jpg",
		"derivative_copy/rep/c.jpg",
	))

	meta, err := metadata.Extract(pkg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	reps := meta.Representations
	if len(reps) != 4 {
		t.Fatalf("expected 4 representations, got %d", len(reps))
	}
	wantTypes := []string{
		"PRESERVATION_MASTER",
		"MODIFIED_MASTER",
		"MODIFIED_MASTER_02",
		"DERIVATIVE_COPY",
	}
	for i, want := range wantTypes {
		if reps[i].PreservationType != want {
			t.Fatalf("representation %d: got %q, want %q", i, reps[i].PreservationType, want)
		}
		if reps[i].Index != i+1 {
			t.Fatalf("representation %d: index %d", i, reps[i].Index)
		}
		if reps[i].UsageType != metadata.DefaultUsageType {
			t.Fatalf("representation %d: usage type %q", i, reps[i].UsageType)
		}
	}
	// aa sorts before zz, so MODIFIED_MASTER covers aa.
	if href := reps[1].Files[0].Href; href != "data/modified_master/aa/a.jpg" {
		t.Fatalf("unexpected first modified master file: %q", href)
	}
}

func TestExtractUppercasesChecksumAlgorithms(t *testing.T) {
	meta, err := metadata.Extract(loadIP(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	files := meta.Representations[0].Files
	if len(files) != 1 {
		t.Fatalf("expected one payload file, got %d", len(files))
	}
	if len(files[0].Checksums) == 0 {
		t.Fatal("expected checksums from the manifest")
	}
	if files[0].Checksums[0].Algorithm != "SHA512" {
		t.Fatalf("expected uppercased algorithm, got %q", files[0].Checksums[0].Algorithm)
	}
	if files[0].LocType != metadata.DefaultLocType {
		t.Fatalf("unexpected loc type %q", files[0].LocType)
	}
}

func TestExtractCarriesOptionalMetadata(t *testing.T) {
	dcXML := `<record xmlns="http://purl.org/dc/elements/1.1/"><title>Embedded Title</title></record>`
	pkg := loadIP(t, testsupport.WithMetaXML("dc.xml", dcXML))

	meta, err := metadata.Extract(pkg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(meta.DCExtras) != 1 || meta.DCExtras[0].Local != "title" {
		t.Fatalf("unexpected dc extras: %#v", meta.DCExtras)
	}
	if meta.SourceMetadata != nil {
		t.Fatal("expected absent source metadata to stay nil")
	}
	if meta.HasSigProps {
		t.Fatal("expected HasSigProps false")
	}
}
