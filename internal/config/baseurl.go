package config

import (
	"net"
	"net/http"
	"strings"
)

// BaseURLSource yields a candidate base URL and whether it applies.
type BaseURLSource func() (string, bool)

// ResolveBaseURL returns the first base URL offered by sources, in order.
// An empty result means requests are made relative to the current origin.
func ResolveBaseURL(sources ...BaseURLSource) string {
	for _, source := range sources {
		if source == nil {
			continue
		}
		if base, ok := source(); ok {
			return base
		}
	}
	return ""
}

// EnvBaseURL applies when the configured override is non-empty. Trailing
// slashes are stripped.
func EnvBaseURL(value string) BaseURLSource {
	return func() (string, bool) {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", false
		}
		return strings.TrimRight(value, "/"), true
	}
}

// OriginBaseURL applies when a page origin is known.
func OriginBaseURL(origin string) BaseURLSource {
	return func() (string, bool) {
		if origin == "" {
			return "", false
		}
		return strings.TrimRight(origin, "/"), true
	}
}

// RequestOrigin returns scheme://host[:port] for the page that r was served
// from. X-Forwarded-Host and X-Forwarded-Proto are only read when
// trustForwarded is set.
func RequestOrigin(r *http.Request, trustForwarded bool) string {
	if r == nil || r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if trustForwarded {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}
		if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
			host = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	return scheme + "://" + host
}

// ListenerOrigin returns scheme://ip:port of the local socket r arrived on.
// Unlike the Host header it cannot be chosen by the client.
func ListenerOrigin(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok || addr == nil {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + addr.String()
}
