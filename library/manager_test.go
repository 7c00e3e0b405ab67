package library

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"booktrack/config"
	"booktrack/mockapi"
)

func newManager(t *testing.T, backend string) *LibraryManager {
	t.Helper()
	srv := httptest.NewServer(mockapi.NewServer(mockapi.Options{Secret: "test"}).Handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIURL:         srv.URL,
		SessionBackend: backend,
		DBPath:         filepath.Join(t.TempDir(), "session.db"),
		LogLevel:       "warn",
	}
	mgr, err := NewLibraryManager(cfg, nil)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestStatusFollowsLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, config.BackendSQLite)

	st, err := mgr.Status(ctx)
	if err != nil || st.LoggedIn {
		t.Fatalf("want logged out, got %+v (%v)", st, err)
	}

	if err := mgr.Register(ctx, "alice", "secret1", "alice@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	st, err = mgr.Status(ctx)
	if err != nil || !st.LoggedIn || !st.Token.JWT || st.Token.ExpiresAt.IsZero() {
		t.Fatalf("want logged in with JWT expiry, got %+v (%v)", st, err)
	}

	if err := mgr.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if st, _ = mgr.Status(ctx); st.LoggedIn {
		t.Fatalf("still logged in after logout")
	}
}

func TestSealedSQLiteSession(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(mockapi.NewServer(mockapi.Options{}).Handler())
	defer srv.Close()

	cfg := &config.Config{
		APIURL:            srv.URL,
		SessionBackend:    config.BackendSQLite,
		DBPath:            filepath.Join(t.TempDir(), "session.db"),
		SessionPassphrase: "pw",
	}
	mgr, err := NewLibraryManager(cfg, nil)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	if err := mgr.Register(ctx, "alice", "secret1", "alice@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := mgr.Profile(ctx); err != nil {
		t.Fatalf("profile with sealed token: %v", err)
	}
	mgr.Close()

	// The raw row must not hold the plain token.
	db, err := NewDatabase(cfg.DBPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	raw, err := db.GetToken(ctx)
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if InspectToken(raw).JWT {
		t.Fatalf("token stored in clear")
	}
}

func TestUnreachableRedisIsStorageError(t *testing.T) {
	cfg := &config.Config{
		SessionBackend: config.BackendRedis,
		RedisAddr:      "127.0.0.1:1",
	}
	_, err := NewLibraryManager(cfg, nil)
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("want StorageError, got %v", err)
	}
}

func TestImportBooks(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, config.BackendMemory)
	if err := mgr.Register(ctx, "alice", "secret1", "alice@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}

	input := `[
		{"title": "Dune", "author": "Frank Herbert", "genre": "SF", "totalPages": 412},
		{"title": "", "author": "Nobody"},
		{"title": "Emma", "author": "Jane Austen"}
	]`
	results, err := mgr.ImportBooks(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Book.ID == "" {
		t.Fatalf("first entry: %+v", results[0])
	}
	var ve *ValidationError
	if !errors.As(results[1].Err, &ve) {
		t.Fatalf("second entry should fail validation, got %v", results[1].Err)
	}
	if results[2].Err != nil {
		t.Fatalf("third entry: %v", results[2].Err)
	}

	books, err := mgr.GetAllBooks(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 2 || books[0].Title != "Dune" || books[1].Title != "Emma" {
		t.Fatalf("unexpected books: %+v", books)
	}
}

func TestImportBooksFromFile(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, config.BackendMemory)

	if _, err := mgr.ImportBooksFromFile(ctx, " "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := mgr.ImportBooksFromFile(ctx, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	if _, err := mgr.ImportBooksFromFile(ctx, bad); err == nil {
		t.Fatalf("expected decode error")
	}

	// Logged out: the requests go out and come back unauthorized.
	good := filepath.Join(t.TempDir(), "books.json")
	os.WriteFile(good, []byte(`[{"title":"Dune","author":"Herbert"}]`), 0o644)
	results, err := mgr.ImportBooksFromFile(ctx, good)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var ue *UnauthorizedError
	if len(results) != 1 || !errors.As(results[0].Err, &ue) {
		t.Fatalf("want unauthorized result, got %+v", results)
	}
}

func TestPrettyBook(t *testing.T) {
	line := PrettyBook(&Book{ID: "b1", Title: "Dune", Author: "Herbert", Genre: "SF", TotalPages: 412})
	for _, want := range []string{"b1", "Dune", "Herbert", "SF", "412"} {
		if !strings.Contains(line, want) {
			t.Fatalf("%q missing from %q", want, line)
		}
	}
}
