package authserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKiteBrokerRejectsBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":"error","message":"Token is invalid or has expired.","error_type":"TokenException"}`))
	}))
	defer srv.Close()

	_, err := NewKiteBroker(srv.URL).Login(context.Background(), "key", "secret", "sess-1")
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
}

func TestKiteBrokerUnreachableIsNotRejection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewKiteBroker(base).Login(context.Background(), "key", "secret", "sess-1")
	if err == nil {
		t.Fatalf("expected error from closed broker")
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		t.Fatalf("network failure must not be a rejection: %v", err)
	}
}
