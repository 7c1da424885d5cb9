package video

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cliptube/cliptube/internal/database"
	"github.com/cliptube/cliptube/internal/render"
	"github.com/google/uuid"
)

// FileStore resolves where uploaded media lives. The S3 and local-disk
// backends both implement it; handlers never know which one they got.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	ResolveURL(key string) string
}

type GeoResolver interface {
	Lookup(ip string) (country, city string)
}

type Handler struct {
	db             database.DBTX
	files          FileStore
	renderer       *render.Renderer
	geo            GeoResolver
	maxUploadBytes int64
}

func NewHandler(db database.DBTX, files FileStore, renderer *render.Renderer, maxUploadBytes int64) *Handler {
	return &Handler{
		db:             db,
		files:          files,
		renderer:       renderer,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) SetGeoResolver(g GeoResolver) {
	h.geo = g
}

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".mkv": true, ".avi": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

func videoFileKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !videoExtensions[ext] {
		ext = ".mp4"
	}
	return fmt.Sprintf("videos/%s%s", uuid.NewString(), ext)
}

func thumbFileKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !imageExtensions[ext] {
		ext = ".jpg"
	}
	return fmt.Sprintf("thumbs/%s%s", uuid.NewString(), ext)
}
