// Package flash carries a one-shot message from one request to the next
// rendered page, using a short-lived cookie. The message is cleared as
// soon as it is read.
package flash

import (
	"net/http"
	"net/url"
	"strings"
)

const cookieName = "flash"

const (
	KindSuccess = "success"
	KindError   = "error"
)

type Message struct {
	Kind string
	Text string
}

// Set queues msg for the next page render in this session.
func Set(w http.ResponseWriter, kind, text string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    url.QueryEscape(kind + ":" + text),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// Take returns the pending message, if any, and clears it.
func Take(w http.ResponseWriter, r *http.Request) *Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, text, found := strings.Cut(raw, ":")
	if !found || text == "" {
		return nil
	}
	if kind != KindSuccess && kind != KindError {
		return nil
	}
	return &Message{Kind: kind, Text: text}
}
