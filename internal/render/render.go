// Package render turns handler output into HTML pages. Views are embedded
// html/template files sharing a header/footer pair; every page receives
// the page title, the session user id, and any pending flash message.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/cliptube/cliptube/internal/flash"
	"github.com/cliptube/cliptube/internal/httputil"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Renderer struct {
	tpl *template.Template
}

func New() *Renderer {
	return &Renderer{
		tpl: template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")),
	}
}

// Page is the envelope every view is executed with.
type Page struct {
	Title  string
	UserID string
	Nonce  string
	Flash  *flash.Message
	Data   any
}

func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, view string, p Page) {
	if p.Flash == nil {
		p.Flash = flash.Take(w, r)
	}
	p.Nonce = httputil.NonceFromContext(r.Context())

	// Execute into a buffer first so a template failure can still become
	// a clean 500 instead of a half-written page.
	var buf bytes.Buffer
	if err := rn.tpl.ExecuteTemplate(&buf, view, p); err != nil {
		slog.Error("render: template execution failed", "view", view, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// NotFound renders the shared not-found view. The status is a parameter
// because the watch page serves it with 200 while every other route
// uses 404.
func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request, status int, userID string) {
	rn.Render(w, r, status, "404", Page{Title: "Video not found", UserID: userID})
}
