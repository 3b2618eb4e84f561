// Package testutil provides shared test helpers for the change-request backend.
package testutil

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/starford/skulls/internal/backend"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *backend.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "skulls-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := backend.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestBackend starts the hypermedia backend on an httptest server backed by
// a fresh store. Links in responses point at the server's own URL.
func TestBackend(t *testing.T, notifier backend.Notifier) (*httptest.Server, *backend.Store) {
	t.Helper()
	store := TestStore(t)
	srv := httptest.NewServer(backend.NewRouter(backend.NewHandler(store, notifier, ""), nil))
	t.Cleanup(srv.Close)
	return srv, store
}

// Seed inserts change requests and fails the test on error.
func Seed(t *testing.T, store *backend.Store, inputs ...backend.Input) []*backend.ChangeRequest {
	t.Helper()
	out := make([]*backend.ChangeRequest, 0, len(inputs))
	for _, in := range inputs {
		cr, err := store.Create(t.Context(), in)
		if err != nil {
			t.Fatalf("seed %q: %v", in.Title, err)
		}
		out = append(out, cr)
	}
	return out
}
