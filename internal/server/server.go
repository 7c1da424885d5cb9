package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/cliptube/cliptube/internal/auth"
	"github.com/cliptube/cliptube/internal/database"
	"github.com/cliptube/cliptube/internal/ratelimit"
	"github.com/cliptube/cliptube/internal/render"
	"github.com/cliptube/cliptube/internal/video"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB             database.DBTX
	Pinger         Pinger
	Files          video.FileStore
	Geo            video.GeoResolver
	JWTSecret      string
	BaseURL        string
	MaxUploadBytes int64
	// MediaDir, when set, is served under /media/ for the local-disk
	// storage backend. S3 deployments leave it empty.
	MediaDir string
	// MediaEndpoint is the external origin media is fetched from, for
	// the content security policy. Empty means same-origin.
	MediaEndpoint string
}

type Server struct {
	router       chi.Router
	pinger       Pinger
	authHandler  *auth.Handler
	videoHandler *video.Handler
	mediaDir     string
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:       cfg.BaseURL,
		MediaEndpoint: cfg.MediaEndpoint,
	}))

	s := &Server{router: r, pinger: cfg.Pinger, mediaDir: cfg.MediaDir}

	renderer := render.New()
	secureCookies := strings.HasPrefix(cfg.BaseURL, "https://")
	s.authHandler = auth.NewHandler(cfg.DB, renderer, cfg.JWTSecret, secureCookies)
	s.videoHandler = video.NewHandler(cfg.DB, cfg.Files, renderer, cfg.MaxUploadBytes)
	if cfg.Geo != nil {
		s.videoHandler.SetGeoResolver(cfg.Geo)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)

	// Credential posts get their own tight bucket: they are the
	// brute-force surface.
	authLimiter := ratelimit.NewLimiter(0.5, 5)

	// Every page route sees the session identity; only the mutating ones
	// demand it.
	s.router.Group(func(r chi.Router) {
		r.Use(s.authHandler.Populate)

		r.Get("/", s.videoHandler.Home)
		r.Get("/search", s.videoHandler.Search)
		r.Get("/join", s.authHandler.GetJoin)
		r.With(authLimiter.Middleware).Post("/join", s.authHandler.PostJoin)
		r.Get("/login", s.authHandler.GetLogin)
		r.With(authLimiter.Middleware).Post("/login", s.authHandler.PostLogin)
		r.Get("/videos/{id}", s.videoHandler.Watch)

		r.Group(func(r chi.Router) {
			r.Use(s.authHandler.RequireUser)
			r.Get("/logout", s.authHandler.Logout)
			r.Get("/videos/upload", s.videoHandler.GetUpload)
			r.Post("/videos/upload", s.videoHandler.PostUpload)
			r.Get("/videos/{id}/edit", s.videoHandler.GetEdit)
			r.Post("/videos/{id}/edit", s.videoHandler.PostEdit)
			r.Get("/videos/{id}/delete", s.videoHandler.Delete)
		})
	})

	apiLimiter := ratelimit.NewLimiter(5, 20)
	s.router.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Use(s.authHandler.Populate)

		// View registration is open: anonymous plays count too.
		r.Post("/videos/{id}/view", s.videoHandler.RegisterView)

		r.Group(func(r chi.Router) {
			r.Use(s.authHandler.RequireUserAPI)
			r.Post("/videos/{id}/comments", s.videoHandler.CreateComment)
			r.Delete("/comments/{commentID}", s.videoHandler.DeleteComment)
		})
	})

	if s.mediaDir != "" {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir)))
		s.router.Get("/media/*", fileServer.ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
