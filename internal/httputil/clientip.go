package httputil

import (
	"net/http"
	"strings"
)

// ClientIP returns the address a request originated from: the first entry
// of X-Forwarded-For when a proxy set it, RemoteAddr otherwise. Both the
// rate limiter and view recording key on it.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	return r.RemoteAddr
}
