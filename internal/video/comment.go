package video

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cliptube/cliptube/internal/auth"
	"github.com/cliptube/cliptube/internal/httputil"
	"github.com/cliptube/cliptube/internal/validate"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) queryComments(ctx context.Context, videoID string) ([]commentEntry, error) {
	rows, err := h.db.Query(ctx,
		`SELECT c.id, c.body, u.username, c.created_at
		 FROM comments c
		 JOIN users u ON u.id = c.owner_id
		 WHERE c.video_id = $1
		 ORDER BY c.created_at ASC`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []commentEntry{}
	for rows.Next() {
		var c commentEntry
		var createdAt time.Time
		if err := rows.Scan(&c.ID, &c.Text, &c.OwnerName, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = createdAt.Format(dateFormat)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

type createCommentRequest struct {
	Text string `json:"text"`
}

type createCommentResponse struct {
	NewCommentID string `json:"newCommentId"`
}

// CreateComment attaches a comment to a video for the authenticated user.
// The watch page reads newCommentId back so it can render the comment
// without a reload.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		httputil.WriteError(w, http.StatusBadRequest, "comment text is required")
		return
	}
	if msg := validate.CommentText(text); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var exists bool
	err := h.db.QueryRow(r.Context(),
		`SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID,
	).Scan(&exists)
	if err != nil {
		slog.Error("video: failed to check video for comment", "video_id", videoID, "error", err)
		httputil.WriteStatus(w, http.StatusInternalServerError)
		return
	}
	if !exists {
		httputil.WriteStatus(w, http.StatusNotFound)
		return
	}

	var commentID string
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO comments (body, owner_id, video_id) VALUES ($1, $2, $3) RETURNING id`,
		text, userID, videoID,
	).Scan(&commentID)
	if err != nil {
		// The video can vanish between the existence check and the
		// insert; the FK violation is still a missing video.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			httputil.WriteStatus(w, http.StatusNotFound)
			return
		}
		slog.Error("video: failed to insert comment", "video_id", videoID, "error", err)
		httputil.WriteStatus(w, http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, createCommentResponse{NewCommentID: commentID})
}

// DeleteComment removes a comment its author no longer wants. Only the
// author may delete it; the video owner has no say over other people's
// comments.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	commentID := chi.URLParam(r, "commentID")

	var ownerID string
	err := h.db.QueryRow(r.Context(),
		`SELECT owner_id FROM comments WHERE id = $1`, commentID,
	).Scan(&ownerID)
	if err != nil {
		httputil.WriteStatus(w, http.StatusNotFound)
		return
	}
	if ownerID != userID {
		httputil.WriteStatus(w, http.StatusForbidden)
		return
	}

	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM comments WHERE id = $1 AND owner_id = $2`, commentID, userID,
	)
	if err != nil {
		slog.Error("video: failed to delete comment", "comment_id", commentID, "error", err)
		httputil.WriteStatus(w, http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteStatus(w, http.StatusNotFound)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "success"})
}
