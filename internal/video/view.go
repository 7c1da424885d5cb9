package video

import (
	"log/slog"
	"net/http"

	"github.com/cliptube/cliptube/internal/httputil"
	"github.com/go-chi/chi/v5"
)

// RegisterView bumps the play counter for a video. The increment happens
// inside the database so concurrent plays never lose an update.
func (h *Handler) RegisterView(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(),
		`UPDATE videos SET views = views + 1 WHERE id = $1`, videoID,
	)
	if err != nil {
		slog.Error("video: failed to register view", "video_id", videoID, "error", err)
		httputil.WriteStatus(w, http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteStatus(w, http.StatusNotFound)
		return
	}

	h.recordViewDetails(r, videoID)
	httputil.WriteStatus(w, http.StatusOK)
}

// recordViewDetails captures who watched: anonymized viewer hash, browser
// and device from the user agent, and a coarse location when GeoIP is
// configured. Failures are logged and swallowed; the view already counted.
func (h *Handler) recordViewDetails(r *http.Request, videoID string) {
	ip := httputil.ClientIP(r)
	ua := r.UserAgent()

	var country, city string
	if h.geo != nil {
		country, city = h.geo.Lookup(ip)
	}

	_, err := h.db.Exec(r.Context(),
		`INSERT INTO video_views (video_id, viewer_hash, browser, device, country, city)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		videoID, viewerHash(ip, ua), parseBrowser(ua), parseDevice(ua), country, city,
	)
	if err != nil {
		slog.Error("video: failed to record view details", "video_id", videoID, "error", err)
	}
}
