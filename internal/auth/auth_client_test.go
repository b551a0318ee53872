package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProfilePassesSessionKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile" || r.URL.Query().Get("api_session") != "sess 1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"success": true, "first_name": "Ravi", "profile": {"user_id": "AB1234"}}`))
	}))
	defer srv.Close()

	reply, err := NewLoginClient(srv.URL, srv.Client()).Profile(context.Background(), "sess 1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if reply.FirstName != "Ravi" || reply.Profile["user_id"] != "AB1234" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestProfileNotLoggedIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "Not logged in."}`))
	}))
	defer srv.Close()

	_, err := NewLoginClient(srv.URL, srv.Client()).Profile(context.Background(), "x")
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Message != "Not logged in." || rejected.StatusCode != http.StatusOK {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
}

func TestParseBodyNonObject(t *testing.T) {
	for _, data := range []string{"", "null", "[1,2]", `"text"`, "{broken"} {
		if body := parseBody([]byte(data)); len(body) != 0 {
			t.Fatalf("expected empty object for %q, got %v", data, body)
		}
	}
}
