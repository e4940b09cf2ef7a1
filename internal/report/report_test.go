package report_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/report"
	"sipbuilder/internal/services"
)

func TestAppendRecordsEntriesInOrder(t *testing.T) {
	rep := report.New("build-1")

	if err := rep.Append(report.LevelInfo, "extract", "", "", "first"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rep.Warning("validate", "dublin-core", "second")

	snap := rep.Snapshot()
	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Entries))
	}
	if snap.Entries[0].Message != "first" || snap.Entries[1].Message != "second" {
		t.Fatalf("entries out of order: %+v", snap.Entries)
	}
	if snap.Entries[1].Level != report.LevelWarning {
		t.Fatalf("expected warning level, got %s", snap.Entries[1].Level)
	}
	if snap.Entries[1].Document != "dublin-core" {
		t.Fatalf("expected document on entry, got %q", snap.Entries[1].Document)
	}
}

func TestFinalizeSealsReport(t *testing.T) {
	rep := report.New("build-1")
	rep.Info("extract", "starting")

	if rep.Success() {
		t.Fatal("report must not be successful before finalization")
	}
	if err := rep.Finalize("completed", true); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if !rep.Finalized() {
		t.Fatal("report must be finalized")
	}
	if !rep.Success() {
		t.Fatal("successful finalization must set the success flag")
	}

	err := rep.Append(report.LevelInfo, "extract", "", "", "late")
	if err == nil {
		t.Fatal("expected append after finalize to fail")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := rep.Finalize("failed", false); err == nil {
		t.Fatal("expected second finalize to fail")
	}
	snap := rep.Snapshot()
	if snap.State != "completed" || !snap.Success {
		t.Fatalf("first finalization must stand, got state %q success %v", snap.State, snap.Success)
	}
	if snap.Finished == nil {
		t.Fatal("finalized snapshot must carry a finish time")
	}
	if len(snap.Entries) != 1 {
		t.Fatalf("rejected append must not be recorded, got %d entries", len(snap.Entries))
	}
}

func TestSetDocumentReplacesSameKind(t *testing.T) {
	rep := report.New("build-1")

	if err := rep.SetDocument(report.DocumentResult{
		Kind:        compile.KindDublinCore,
		Synthesized: false,
		Error:       "synthesis failed",
	}); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if err := rep.SetDocument(report.DocumentResult{
		Kind:        compile.KindDublinCore,
		Synthesized: true,
		Outcome:     compile.Outcome{Status: compile.StatusValid},
	}); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if err := rep.SetDocument(report.DocumentResult{
		Kind:        compile.KindMETS,
		Synthesized: true,
	}); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}

	snap := rep.Snapshot()
	if len(snap.Documents) != 2 {
		t.Fatalf("expected 2 document results, got %d", len(snap.Documents))
	}
	if !snap.Documents[0].Synthesized || snap.Documents[0].Outcome.Status != compile.StatusValid {
		t.Fatalf("same-kind result not replaced: %+v", snap.Documents[0])
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	rep := report.New("build-1")
	rep.Info("extract", "first")

	snap := rep.Snapshot()
	rep.Info("extract", "second")

	if len(snap.Entries) != 1 {
		t.Fatalf("snapshot must not observe later appends, got %d entries", len(snap.Entries))
	}
	if snap.Finished != nil {
		t.Fatal("unfinalized snapshot must not carry a finish time")
	}
}

func TestConcurrentAppends(t *testing.T) {
	rep := report.New("build-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				rep.Info("validate", "concurrent")
			}
		}()
	}
	wg.Wait()

	if got := len(rep.Snapshot().Entries); got != 200 {
		t.Fatalf("expected 200 entries, got %d", got)
	}
}

func TestSnapshotRoundTripsThroughJSON(t *testing.T) {
	rep := report.New("build-1")
	rep.Info("extract", "starting")
	if err := rep.SetDocument(report.DocumentResult{
		Kind:        compile.KindSigProp,
		Synthesized: true,
		Outcome:     compile.Outcome{Status: compile.StatusSkipped},
	}); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if err := rep.Finalize("completed", true); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var snap report.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	restored := report.FromSnapshot(snap)
	if !restored.Finalized() {
		t.Fatal("restored report must remain finalized")
	}
	if !restored.Success() {
		t.Fatal("restored report must keep the success flag")
	}
	got := restored.Snapshot()
	if got.BuildID != "build-1" || got.State != "completed" {
		t.Fatalf("unexpected restored snapshot: %+v", got)
	}
	if len(got.Documents) != 1 || got.Documents[0].Kind != compile.KindSigProp {
		t.Fatalf("document results lost in round trip: %+v", got.Documents)
	}
}
