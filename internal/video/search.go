package video

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cliptube/cliptube/internal/auth"
	"github.com/cliptube/cliptube/internal/render"
)

// likeEscaper neutralizes the ILIKE metacharacters in user input so a
// keyword of "100%" matches the literal text instead of everything.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches the keyword case-insensitively anywhere in the title.
// An empty keyword skips the database entirely and renders the bare form.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))

	data := listPageData{Videos: []listEntry{}, Keyword: keyword}
	if keyword != "" {
		videos, err := h.queryListing(r.Context(),
			listingColumns+` WHERE v.title ILIKE $1 ORDER BY v.created_at DESC`,
			"%"+likeEscaper.Replace(keyword)+"%",
		)
		if err != nil {
			slog.Error("video: search failed", "keyword", keyword, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		data.Videos = videos
	}

	h.renderer.Render(w, r, http.StatusOK, "search", render.Page{
		Title:  "Search",
		UserID: userID,
		Data:   data,
	})
}
