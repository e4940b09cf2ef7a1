package store_test

import (
	"context"
	"testing"
	"time"

	"sipbuilder/internal/report"
	"sipbuilder/internal/store"
	"sipbuilder/internal/testsupport"
)

func TestCreateAndGetBuild(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	build, err := st.Create(ctx, "/packages/obj-0001")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if build.ID == "" {
		t.Fatal("expected generated build ID")
	}
	if build.Status != store.StatusPending {
		t.Fatalf("expected pending status, got %s", build.Status)
	}
	if build.IPPath != "/packages/obj-0001" {
		t.Fatalf("unexpected ip path: %s", build.IPPath)
	}

	got, err := st.GetByID(ctx, build.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil || got.ID != build.ID {
		t.Fatalf("expected build %s, got %+v", build.ID, got)
	}
}

func TestGetByIDReturnsNilForUnknown(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	got, err := st.GetByID(context.Background(), "no-such-build")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown build, got %+v", got)
	}
}

func TestUpdatePersistsChanges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	build := testsupport.NewBuild(t, st, "/packages/obj-0001")

	build.Status = store.StatusCompleted
	build.OutputPath = "/sips/abc"
	build.ProgressStage = "assemble"
	if err := st.Update(ctx, build); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := st.GetByID(ctx, build.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.OutputPath != "/sips/abc" || got.ProgressStage != "assemble" {
		t.Fatalf("updated fields not persisted: %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatal("updated_at must not precede created_at")
	}
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	build := testsupport.NewBuild(t, st, "/packages/obj-0001")

	build.Status = store.Status("bogus")
	if err := st.Update(context.Background(), build); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
}

func TestUpdateUnknownBuildFails(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	build := &store.Build{ID: "no-such-build", IPPath: "/x", Status: store.StatusFailed}
	if err := st.Update(context.Background(), build); err == nil {
		t.Fatal("expected update of unknown build to fail")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewBuild(t, st, "/packages/a")
	time.Sleep(2 * time.Millisecond)
	second := testsupport.NewBuild(t, st, "/packages/b")

	builds, err := st.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(builds) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(builds))
	}
	if builds[0].ID != second.ID || builds[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", builds[0].ID, builds[1].ID)
	}

	limited, err := st.List(ctx, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Fatalf("limit must keep the newest build, got %+v", limited)
	}
}

func TestListByStatus(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	pending := testsupport.NewBuild(t, st, "/packages/a")
	done := testsupport.NewBuild(t, st, "/packages/b")
	done.Status = store.StatusCompleted
	if err := st.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	builds, err := st.ListByStatus(ctx, store.StatusPending)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(builds) != 1 || builds[0].ID != pending.ID {
		t.Fatalf("expected only the pending build, got %+v", builds)
	}

	if _, err := st.ListByStatus(ctx, store.Status("bogus")); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
}

func TestDeleteRemovesBuild(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	build := testsupport.NewBuild(t, st, "/packages/a")

	if err := st.Delete(ctx, build.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err := st.GetByID(ctx, build.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected build gone, got %+v", got)
	}
}

func TestReportRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	build := testsupport.NewBuild(t, st, "/packages/a")

	rep := report.New(build.ID)
	rep.Info("extract", "starting")
	if err := rep.Finalize("completed", true); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := build.SetReport(rep.Snapshot()); err != nil {
		t.Fatalf("SetReport failed: %v", err)
	}
	if err := st.Update(ctx, build); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := st.GetByID(ctx, build.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	snap, err := got.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if snap.BuildID != build.ID || !snap.Finalized {
		t.Fatalf("unexpected restored snapshot: %+v", snap)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Message != "starting" {
		t.Fatalf("entries lost in round trip: %+v", snap.Entries)
	}
}

func TestReportEmptyWhenUnset(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	build := testsupport.NewBuild(t, st, "/packages/a")

	snap, err := build.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if snap.Finalized || len(snap.Entries) != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
