package server

import (
	"log/slog"
	"net/http"
	"time"
)

// loggedResponse captures what the handler wrote so the request log can
// carry status and payload size.
type loggedResponse struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (lr *loggedResponse) WriteHeader(code int) {
	lr.status = code
	lr.ResponseWriter.WriteHeader(code)
}

func (lr *loggedResponse) Write(p []byte) (int, error) {
	n, err := lr.ResponseWriter.Write(p)
	lr.bytes += n
	return n, err
}

func (lr *loggedResponse) Unwrap() http.ResponseWriter {
	return lr.ResponseWriter
}

// requestLogger writes one slog line per request. Health probes are
// skipped; they would drown everything else.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		lr := &loggedResponse{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(lr, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lr.status,
			"bytes", lr.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
