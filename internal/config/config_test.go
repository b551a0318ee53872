package config

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveBaseURLPrefersEnvOverride(t *testing.T) {
	got := ResolveBaseURL(EnvBaseURL("https://api.example.com//"), OriginBaseURL("http://localhost:3000"))
	if got != "https://api.example.com" {
		t.Fatalf("expected env override without trailing slash, got %q", got)
	}
}

func TestResolveBaseURLFallsBackToOrigin(t *testing.T) {
	got := ResolveBaseURL(EnvBaseURL("   "), OriginBaseURL("http://localhost:3000"))
	if got != "http://localhost:3000" {
		t.Fatalf("expected origin fallback, got %q", got)
	}
}

func TestResolveBaseURLEmptyWithoutOrigin(t *testing.T) {
	got := ResolveBaseURL(EnvBaseURL(""), OriginBaseURL(""), nil)
	if got != "" {
		t.Fatalf("expected empty base, got %q", got)
	}
}

func TestRequestOrigin(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com:8443/login", nil)
	if got := RequestOrigin(req, false); got != "http://example.com:8443" {
		t.Fatalf("unexpected origin %q", got)
	}

	req.TLS = &tls.ConnectionState{}
	if got := RequestOrigin(req, false); got != "https://example.com:8443" {
		t.Fatalf("expected https origin, got %q", got)
	}

	if got := RequestOrigin(nil, true); got != "" {
		t.Fatalf("expected empty origin for nil request, got %q", got)
	}
}

func TestRequestOriginForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com:8443/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https, http")
	req.Header.Set("X-Forwarded-Host", "attacker.example.net")

	if got := RequestOrigin(req, false); got != "http://example.com:8443" {
		t.Fatalf("expected forwarded headers to be ignored, got %q", got)
	}
	if got := RequestOrigin(req, true); got != "https://attacker.example.net" {
		t.Fatalf("expected forwarded origin when trusted, got %q", got)
	}
}

func TestListenerOrigin(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/login", nil)
	if got := ListenerOrigin(req); got != "" {
		t.Fatalf("expected empty origin without a listener, got %q", got)
	}

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
	req = req.WithContext(context.WithValue(req.Context(), http.LocalAddrContextKey, addr))
	req.Host = "attacker.example.net"
	if got := ListenerOrigin(req); got != "http://127.0.0.1:8080" {
		t.Fatalf("unexpected listener origin %q", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.Server.ListenAddr)
	}
	if cfg.Broker.Name != "zerodha" {
		t.Fatalf("unexpected broker %q", cfg.Broker.Name)
	}
	if cfg.Login.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Login.RequestTimeout)
	}
	if !cfg.Instruments.FirstRunOnLogin {
		t.Fatalf("expected instruments first run enabled by default")
	}
	if cfg.Server.TrustForwardedHeaders {
		t.Fatalf("expected forwarded headers to be untrusted by default")
	}
}

func TestLoadConfigTrustForwardedHeadersFromEnv(t *testing.T) {
	t.Setenv("TRADELOGIN_TRUST_FORWARDED_HEADERS", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Server.TrustForwardedHeaders {
		t.Fatalf("expected forwarded headers to be trusted")
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "login:\n  api_base_url: http://file.example\nserver:\n  listen_addr: \":9000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRADELOGIN_API_BASE_URL", "http://env.example/")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Login.APIBaseURL != "http://env.example/" {
		t.Fatalf("expected env to win, got %q", cfg.Login.APIBaseURL)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Fatalf("expected file listen addr, got %q", cfg.Server.ListenAddr)
	}
}
