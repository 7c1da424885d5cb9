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
)

type uploadFormData struct {
	ErrorMessage string
	Title        string
	Description  string
	Hashtags     string
}

func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "upload", render.Page{
		Title:  "Upload video",
		UserID: auth.UserIDFromContext(r.Context()),
	})
}

func (h *Handler) renderUploadError(w http.ResponseWriter, r *http.Request, form uploadFormData, msg string) {
	form.ErrorMessage = msg
	h.renderer.Render(w, r, http.StatusBadRequest, "upload", render.Page{
		Title:  "Upload video",
		UserID: auth.UserIDFromContext(r.Context()),
		Data:   form,
	})
}

// PostUpload stores both objects before touching the database, so a failed
// insert never leaves a video row pointing at media that does not exist.
func (h *Handler) PostUpload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.renderUploadError(w, r, uploadFormData{}, "upload is too large or malformed")
		return
	}

	form := uploadFormData{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: r.PostFormValue("description"),
		Hashtags:    r.PostFormValue("hashtags"),
	}

	if form.Title == "" {
		h.renderUploadError(w, r, form, "title is required")
		return
	}
	for _, msg := range []string{
		validate.Title(form.Title),
		validate.Description(form.Description),
		validate.Hashtags(form.Hashtags),
	} {
		if msg != "" {
			h.renderUploadError(w, r, form, msg)
			return
		}
	}

	videoFile, videoHeader, err := r.FormFile("video")
	if err != nil {
		h.renderUploadError(w, r, form, "a video file is required")
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumb")
	if err != nil {
		h.renderUploadError(w, r, form, "a thumbnail image is required")
		return
	}
	defer thumbFile.Close()

	fileKey := videoFileKey(videoHeader.Filename)
	thumbKey := thumbFileKey(thumbHeader.Filename)

	if err := h.files.Save(r.Context(), fileKey, videoFile, videoHeader.Header.Get("Content-Type")); err != nil {
		slog.Error("video: failed to store video file", "key", fileKey, "error", err)
		h.renderUploadError(w, r, form, "could not store the video file, try again")
		return
	}
	if err := h.files.Save(r.Context(), thumbKey, thumbFile, thumbHeader.Header.Get("Content-Type")); err != nil {
		slog.Error("video: failed to store thumbnail", "key", thumbKey, "error", err)
		h.cleanupObjects(fileKey)
		h.renderUploadError(w, r, form, "could not store the thumbnail, try again")
		return
	}

	var videoID string
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO videos (title, description, hashtags, file_key, thumb_key, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		form.Title, form.Description, formatHashtags(form.Hashtags), fileKey, thumbKey, userID,
	).Scan(&videoID)
	if err != nil {
		slog.Error("video: failed to insert video", "error", err)
		h.cleanupObjects(fileKey, thumbKey)
		h.renderUploadError(w, r, form, "could not save the video, try again")
		return
	}

	flash.Set(w, flash.KindSuccess, "Video uploaded.")
	http.Redirect(w, r, "/", http.StatusFound)
}

// cleanupObjects is best effort; orphaned objects only cost storage.
func (h *Handler) cleanupObjects(keys ...string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		for _, key := range keys {
			if err := h.files.Delete(ctx, key); err != nil {
				slog.Error("video: failed to clean up object", "key", key, "error", err)
			}
		}
	}()
}
