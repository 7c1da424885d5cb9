package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cliptube/cliptube/internal/httputil"
)

func serveWithSecurity(t *testing.T, cfg SecurityConfig, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	securityHeaders(cfg)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestSecurityHeadersPresent(t *testing.T) {
	rec := serveWithSecurity(t, SecurityConfig{}, func(w http.ResponseWriter, r *http.Request) {})

	for header, want := range map[string]string{
		"Referrer-Policy":        "no-referrer",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "SAMEORIGIN",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("expected %s %q, got %q", header, want, got)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected a Content-Security-Policy header")
	}
}

func TestSecurityHeadersNonceReachesHandler(t *testing.T) {
	var seen string
	rec := serveWithSecurity(t, SecurityConfig{}, func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.NonceFromContext(r.Context())
	})

	if seen == "" {
		t.Fatal("expected a nonce in the request context")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-"+seen+"'") {
		t.Errorf("expected the policy to carry nonce %q, got %q", seen, csp)
	}
}

func TestSecurityHeadersMediaEndpointInPolicy(t *testing.T) {
	rec := serveWithSecurity(t, SecurityConfig{MediaEndpoint: "https://media.example.com"},
		func(w http.ResponseWriter, r *http.Request) {})

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "media-src 'self' https://media.example.com") {
		t.Errorf("expected media endpoint in media-src, got %q", csp)
	}
	if !strings.Contains(csp, "img-src 'self' data: https://media.example.com") {
		t.Errorf("expected media endpoint in img-src, got %q", csp)
	}
}

func TestStrictTransportOnlyOverHTTPS(t *testing.T) {
	rec := serveWithSecurity(t, SecurityConfig{BaseURL: "http://localhost:8080"},
		func(w http.ResponseWriter, r *http.Request) {})
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("expected no HSTS header for a plain-http base URL")
	}

	rec = serveWithSecurity(t, SecurityConfig{BaseURL: "https://cliptube.example.com"},
		func(w http.ResponseWriter, r *http.Request) {})
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected an HSTS header for an https base URL")
	}
}
