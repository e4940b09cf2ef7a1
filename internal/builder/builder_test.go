package builder_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sipbuilder/internal/builder"
	"sipbuilder/internal/compile"
	"sipbuilder/internal/config"
	"sipbuilder/internal/schema"
	"sipbuilder/internal/services"
	"sipbuilder/internal/sipfile"
	"sipbuilder/internal/store"
	"sipbuilder/internal/testsupport"
	"sipbuilder/internal/validate"
)

func newBuilder(t *testing.T, cfg *config.Config, st *store.Store) *builder.Builder {
	t.Helper()
	loader := validate.NewLocationLoader(5 * time.Second)
	validator := validate.New(schema.NewRegistry(cfg.Validation), validate.NewCache(loader), nil)
	return builder.New(cfg, st, validator, nil)
}

func TestRunCompletesBuild(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	b := newBuilder(t, cfg, st)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	result, err := b.Run(context.Background(), ipPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if len(result.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(result.Documents))
	}
	for _, kind := range compile.AllKinds() {
		doc := result.Documents[kind]
		if doc == nil {
			t.Fatalf("document %s missing from result", kind)
		}
		if doc.Outcome.Status != compile.StatusValid {
			t.Fatalf("document %s: expected valid, got %s (%v)",
				kind, doc.Outcome.Status, doc.Outcome.Violations)
		}
	}

	layout := sipfile.NewLayout(result.OutputPath)
	for _, path := range []string{
		layout.METSPath(), layout.DCPath(), layout.SigPropPath(), layout.ManifestPath(),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected SIP file %s: %v", path, err)
		}
	}

	record, err := st.GetByID(context.Background(), result.BuildID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Status != store.StatusCompleted {
		t.Fatalf("persisted status: expected completed, got %s", record.Status)
	}
	snap, err := record.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if !snap.Finalized || snap.State != string(store.StatusCompleted) {
		t.Fatalf("persisted report not finalized as completed: %+v", snap)
	}
	if !snap.Success {
		t.Fatal("completed build must finalize a successful report")
	}
	if len(snap.Documents) != 3 {
		t.Fatalf("expected 3 document results in report, got %d", len(snap.Documents))
	}
}

func TestRunFailsWhenExtractionFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	b := newBuilder(t, cfg, st)
	ipPath := testsupport.WriteIP(t, t.TempDir(),
		testsupport.WithoutBagInfoKey("External-Identifier"))

	result, err := b.Run(context.Background(), ipPath)
	if err == nil {
		t.Fatal("expected extraction failure")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if result == nil || result.Status != store.StatusFailed {
		t.Fatalf("expected failed result, got %+v", result)
	}
	if result.OutputPath != "" {
		t.Fatalf("extraction failure must not allocate output, got %s", result.OutputPath)
	}

	record, err := st.GetByID(context.Background(), result.BuildID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Status != store.StatusFailed || record.ErrorMessage == "" {
		t.Fatalf("expected persisted failure with message, got %+v", record)
	}
}

func TestRunFailsButAssemblesWhenMandatoryDocumentRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// The wrong schema on a mandatory kind makes the document invalid.
	cfg.Validation.DCXML.XSD = "builtin:mets.xsd"
	st := testsupport.MustOpenStore(t, cfg)
	b := newBuilder(t, cfg, st)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	result, err := b.Run(context.Background(), ipPath)
	if err == nil {
		t.Fatal("expected build to fail")
	}
	if result.Status != store.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	doc := result.Documents[compile.KindDublinCore]
	if doc == nil || doc.Outcome.Status != compile.StatusInvalid {
		t.Fatalf("expected invalid dublin-core document, got %+v", doc)
	}
	if result.Report.Success() {
		t.Fatal("failed build must not finalize a successful report")
	}

	if result.OutputPath == "" {
		t.Fatal("failed build must still assemble for inspection")
	}
	layout := sipfile.NewLayout(result.OutputPath)
	if _, err := os.Stat(layout.DCPath()); err != nil {
		t.Fatalf("rejected document must still be written: %v", err)
	}
}

func TestRunSkipsValidationWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithValidationDisabled())
	b := newBuilder(t, cfg, nil)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	result, err := b.Run(context.Background(), ipPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	for _, kind := range compile.AllKinds() {
		if got := result.Documents[kind].Outcome.Status; got != compile.StatusSkipped {
			t.Fatalf("document %s: expected skipped, got %s", kind, got)
		}
	}
}

func TestRunWithoutStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	b := newBuilder(t, cfg, nil)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	result, err := b.Run(context.Background(), ipPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.BuildID == "" {
		t.Fatal("one-shot builds still get a build ID")
	}
	if result.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
}

func TestRunToUsesExplicitOutputDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	b := newBuilder(t, cfg, nil)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	result, err := b.RunTo(context.Background(), ipPath, "obj-0001-sip")
	if err != nil {
		t.Fatalf("RunTo failed: %v", err)
	}
	want := filepath.Join(cfg.OutputRoot(), "obj-0001-sip")
	if result.OutputPath != want {
		t.Fatalf("expected output at %s, got %s", want, result.OutputPath)
	}
	if _, err := os.Stat(sipfile.NewLayout(want).METSPath()); err != nil {
		t.Fatalf("expected assembled SIP: %v", err)
	}

	if _, err := b.RunTo(context.Background(), ipPath, "obj-0001-sip"); err == nil {
		t.Fatal("expected reuse of an existing output directory to fail")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	b := newBuilder(t, cfg, nil)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := b.Run(ctx, ipPath)
	if err == nil {
		t.Fatal("expected cancelled build to fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Status != store.StatusFailed {
		t.Fatalf("expected failed result, got %+v", result)
	}
}

func TestConcurrentBuildsGetDistinctOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	const builds = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		outputs = make(map[string]bool)
	)
	for i := 0; i < builds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := newBuilder(t, cfg, st)
			result, err := b.Run(context.Background(), ipPath)
			if err != nil {
				t.Errorf("Run failed: %v", err)
				return
			}
			mu.Lock()
			outputs[result.OutputPath] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(outputs) != builds {
		t.Fatalf("expected %d distinct output dirs, got %d", builds, len(outputs))
	}
	records, err := st.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != builds {
		t.Fatalf("expected %d build records, got %d", builds, len(records))
	}
}

func TestRunAnnotatesLogsWithStageAndDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	loader := validate.NewLocationLoader(5 * time.Second)
	validator := validate.New(schema.NewRegistry(cfg.Validation), validate.NewCache(loader), logger)
	b := builder.New(cfg, nil, validator, logger)
	ipPath := testsupport.WriteIP(t, t.TempDir())

	result, err := b.Run(context.Background(), ipPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	annotated := false
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, `"stage":"validate"`) && strings.Contains(line, `"document":"dublin-core"`) {
			if !strings.Contains(line, `"build_id":"`+result.BuildID+`"`) {
				t.Fatalf("stage log missing build id: %s", line)
			}
			annotated = true
		}
	}
	if !annotated {
		t.Fatal("expected validation logs annotated with stage and document")
	}
}
