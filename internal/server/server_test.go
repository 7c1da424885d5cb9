package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cliptube/cliptube/internal/auth"
	"github.com/cliptube/cliptube/internal/database"
	"github.com/pashagolub/pgxmock/v4"
)

type stubStore struct{}

func (stubStore) Save(context.Context, string, io.Reader, string) error { return nil }
func (stubStore) Delete(context.Context, string) error                  { return nil }
func (stubStore) ResolveURL(key string) string                          { return "/media/" + key }

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

const testSecret = "test-secret-for-server-tests"

func newTestServer(db database.DBTX, pinger Pinger) *Server {
	return New(Config{
		DB:             db,
		Pinger:         pinger,
		Files:          stubStore{},
		JWTSecret:      testSecret,
		BaseURL:        "http://localhost:8080",
		MaxUploadBytes: 32 << 20,
	})
}

func TestHealthEndpoint(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("expected ok status, got %s", rec.Body.String())
	}
}

func TestHealthEndpointUnhealthyDatabase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{err: errors.New("connection refused")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestHomeRouteServesListing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT v.id, v.title`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "thumb_key", "views", "created_at", "username"}).
			AddRow("vid-1", "A video", "thumbs/a.jpg", int64(1), time.Now(), "alice"))

	srv := newTestServer(mock, stubPinger{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "A video") {
		t.Error("expected the listing in the page")
	}
}

func TestUploadPageRequiresLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/upload", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestUploadPageWithSessionCookie(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	token, err := auth.GenerateSessionToken(testSecret, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(mock, stubPinger{})
	req := httptest.NewRequest(http.MethodGet, "/videos/upload", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for a logged-in user, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "multipart/form-data") {
		t.Error("expected the upload form")
	}
}

func TestLoginRouteRateLimited(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{})

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=&password="))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "192.0.2.50:1234"
		last = httptest.NewRecorder()
		srv.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after login burst, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on the limited response")
	}
}

func TestJoinRouteRateLimited(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{})

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader("name="))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "192.0.2.51:1234"
		last = httptest.NewRecorder()
		srv.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after join burst, got %d", last.Code)
	}
}

func TestCommentAPIRequiresAuth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{})
	req := httptest.NewRequest(http.MethodPost, "/api/videos/vid-1/comments",
		strings.NewReader(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestViewAPIIsOpen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE videos SET views = views \+ 1`).
		WithArgs("vid-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO video_views`).
		WithArgs("vid-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	srv := newTestServer(mock, stubPinger{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/videos/vid-1/view", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 without a session, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMediaRouteOnlyWithLocalDir(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := newTestServer(mock, stubPinger{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/videos/a.mp4", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a media dir, got %d", rec.Code)
	}
}
