package video

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cliptube/cliptube/internal/auth"
	"github.com/cliptube/cliptube/internal/flash"
	"github.com/cliptube/cliptube/internal/render"
	"github.com/cliptube/cliptube/internal/validate"
	"github.com/go-chi/chi/v5"
)

const dateFormat = "Jan 2, 2006"

type listEntry struct {
	ID        string
	Title     string
	ThumbURL  string
	OwnerName string
	CreatedAt string
	Views     int64
}

type listPageData struct {
	Videos  []listEntry
	Keyword string
}

type watchVideo struct {
	ID          string
	Title       string
	Description string
	Hashtags    []string
	FileURL     string
	ThumbURL    string
	OwnerName   string
	CreatedAt   string
	Views       int64
}

type commentEntry struct {
	ID        string
	Text      string
	OwnerName string
	CreatedAt string
}

type watchData struct {
	Video    watchVideo
	Comments []commentEntry
	IsOwner  bool
}

type editFormData struct {
	ID          string
	Title       string
	Description string
	Hashtags    string
}

const listingColumns = `SELECT v.id, v.title, v.thumb_key, v.views, v.created_at, u.username
	 FROM videos v
	 JOIN users u ON u.id = v.owner_id`

func (h *Handler) queryListing(ctx context.Context, query string, args ...any) ([]listEntry, error) {
	rows, err := h.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []listEntry{}
	for rows.Next() {
		var e listEntry
		var thumbKey string
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Title, &thumbKey, &e.Views, &createdAt, &e.OwnerName); err != nil {
			return nil, err
		}
		e.ThumbURL = h.files.ResolveURL(thumbKey)
		e.CreatedAt = createdAt.Format(dateFormat)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Home lists every video, newest first. An empty store renders an empty
// page rather than an error.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	videos, err := h.queryListing(r.Context(), listingColumns+` ORDER BY v.created_at DESC`)
	if err != nil {
		slog.Error("video: failed to list videos", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "home", render.Page{
		Title:  "Home",
		UserID: userID,
		Data:   listPageData{Videos: videos},
	})
}

func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var v watchVideo
	var fileKey, thumbKey, ownerID string
	var createdAt time.Time
	err := h.db.QueryRow(r.Context(),
		`SELECT v.id, v.title, v.description, v.hashtags, v.file_key, v.thumb_key, v.owner_id, u.username, v.views, v.created_at
		 FROM videos v
		 JOIN users u ON u.id = v.owner_id
		 WHERE v.id = $1`,
		videoID,
	).Scan(&v.ID, &v.Title, &v.Description, &v.Hashtags, &fileKey, &thumbKey, &ownerID, &v.OwnerName, &v.Views, &createdAt)
	if err != nil {
		// The watch page keeps its historical behavior of serving the
		// not-found view with a 200; every other route sets 404.
		h.renderer.NotFound(w, r, http.StatusOK, userID)
		return
	}
	v.FileURL = h.files.ResolveURL(fileKey)
	v.ThumbURL = h.files.ResolveURL(thumbKey)
	v.CreatedAt = createdAt.Format(dateFormat)

	comments, err := h.queryComments(r.Context(), videoID)
	if err != nil {
		slog.Error("video: failed to load comments", "video_id", videoID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "watch", render.Page{
		Title:  v.Title,
		UserID: userID,
		Data: watchData{
			Video:    v,
			Comments: comments,
			IsOwner:  userID != "" && userID == ownerID,
		},
	})
}

func (h *Handler) GetEdit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var title, description, ownerID string
	var hashtags []string
	err := h.db.QueryRow(r.Context(),
		`SELECT title, description, hashtags, owner_id FROM videos WHERE id = $1`,
		videoID,
	).Scan(&title, &description, &hashtags, &ownerID)
	if err != nil {
		h.renderer.NotFound(w, r, http.StatusNotFound, userID)
		return
	}

	if ownerID != userID {
		forbidRedirect(w, "/")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "edit", render.Page{
		Title:  "Edit: " + title,
		UserID: userID,
		Data: editFormData{
			ID:          videoID,
			Title:       title,
			Description: description,
			Hashtags:    strings.Join(hashtags, ","),
		},
	})
}

func (h *Handler) PostEdit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	// Ownership is checked before anything is written; a non-owner's
	// submission must leave the record untouched.
	var ownerID string
	err := h.db.QueryRow(r.Context(),
		`SELECT owner_id FROM videos WHERE id = $1`, videoID,
	).Scan(&ownerID)
	if err != nil {
		h.renderer.NotFound(w, r, http.StatusNotFound, userID)
		return
	}
	if ownerID != userID {
		flash.Set(w, flash.KindError, "You are not the owner of the video.")
		forbidRedirect(w, "/")
		return
	}

	form := editFormData{
		ID:          videoID,
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: r.PostFormValue("description"),
		Hashtags:    r.PostFormValue("hashtags"),
	}

	reject := func(msg string) {
		h.renderer.Render(w, r, http.StatusBadRequest, "edit", render.Page{
			Title:  "Edit video",
			UserID: userID,
			Flash:  &flash.Message{Kind: flash.KindError, Text: msg},
			Data:   form,
		})
	}

	if form.Title == "" {
		reject("title is required")
		return
	}
	for _, msg := range []string{
		validate.Title(form.Title),
		validate.Description(form.Description),
		validate.Hashtags(form.Hashtags),
	} {
		if msg != "" {
			reject(msg)
			return
		}
	}

	// The owner_id predicate makes a lost race with a concurrent owner
	// change impossible, on top of the check above.
	tag, err := h.db.Exec(r.Context(),
		`UPDATE videos SET title = $1, description = $2, hashtags = $3 WHERE id = $4 AND owner_id = $5`,
		form.Title, form.Description, formatHashtags(form.Hashtags), videoID, userID,
	)
	if err != nil {
		slog.Error("video: failed to update video", "video_id", videoID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		h.renderer.NotFound(w, r, http.StatusNotFound, userID)
		return
	}

	flash.Set(w, flash.KindSuccess, "Changes saved.")
	http.Redirect(w, r, "/videos/"+videoID, http.StatusFound)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var ownerID, fileKey, thumbKey string
	err := h.db.QueryRow(r.Context(),
		`SELECT owner_id, file_key, thumb_key FROM videos WHERE id = $1`, videoID,
	).Scan(&ownerID, &fileKey, &thumbKey)
	if err != nil {
		h.renderer.NotFound(w, r, http.StatusNotFound, userID)
		return
	}
	if ownerID != userID {
		forbidRedirect(w, "/")
		return
	}

	// Comments and view records go with the row via the FK cascade; the
	// owner's video list is the owner_id relation itself.
	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM videos WHERE id = $1 AND owner_id = $2`, videoID, userID,
	)
	if err != nil {
		slog.Error("video: failed to delete video", "video_id", videoID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		h.renderer.NotFound(w, r, http.StatusNotFound, userID)
		return
	}

	// Stored objects are purged out of band; a leaked file is recoverable,
	// a blocked response is not.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := deleteWithRetry(ctx, h.files, fileKey, 3); err != nil {
			slog.Error("video: file delete failed", "key", fileKey, "error", err)
		}
		if err := deleteWithRetry(ctx, h.files, thumbKey, 3); err != nil {
			slog.Error("video: thumbnail delete failed", "key", thumbKey, "error", err)
		}
	}()

	flash.Set(w, flash.KindSuccess, "Video deleted.")
	http.Redirect(w, r, "/", http.StatusFound)
}
