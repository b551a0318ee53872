package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	if _, err := store.Get("api_session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}
	if err := store.Set("api_session", "sess-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("api_session", "sess-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := NewFileStore(path).Get("api_session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "sess-2" {
		t.Fatalf("expected sess-2, got %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	if err := store.Delete("api_session"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete("api_session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewFileStore(path).Set("api_session", "x"); err == nil {
		t.Fatalf("expected error for corrupt session file")
	}
}

func TestRequestStoreUsesSessionCookie(t *testing.T) {
	manager := NewManager("test_session", false)

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := NewRequestStore(r.Context(), manager)
		if r.URL.Path == "/set" {
			if err := store.Set("api_session", "sess-9"); err != nil {
				t.Errorf("set: %v", err)
			}
			return
		}
		value, err := store.Get("api_session")
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(value))
	})
	handler = manager.LoadAndSave(handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/set", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}
	if cookies[0].Name != "test_session" || !cookies[0].Expires.IsZero() || cookies[0].MaxAge != 0 {
		t.Fatalf("expected non-persistent test_session cookie, got %+v", cookies[0])
	}

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Body.String() != "sess-9" {
		t.Fatalf("expected stored session, got %q (status %d)", rec.Body.String(), rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected missing session without cookie, got %d", rec.Code)
	}
}
