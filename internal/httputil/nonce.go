package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
)

type contextKey string

const nonceKey contextKey = "csp-nonce"

// nonceBytes of entropy per request; base64url keeps the value header-safe.
const nonceBytes = 16

// GenerateNonce returns a fresh per-request CSP nonce. The inline style
// and script blocks in the page templates carry it so the policy can stay
// strict. An empty return disables the inline blocks rather than the page.
func GenerateNonce() string {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		slog.Error("httputil: nonce generation failed", "error", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ContextWithNonce stashes the nonce for the renderer, which injects it
// into the templates' nonce attributes.
func ContextWithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey, nonce)
}

func NonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey).(string)
	return nonce
}
