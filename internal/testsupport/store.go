package testsupport

import (
	"context"
	"testing"

	"sipbuilder/internal/config"
	"sipbuilder/internal/store"
)

// MustOpenStore opens a build store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewBuild creates a pending build record for tests using the provided store.
func NewBuild(t testing.TB, st *store.Store, ipPath string) *store.Build {
	t.Helper()

	build, err := st.Create(context.Background(), ipPath)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return build
}
