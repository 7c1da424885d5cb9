package auth

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/cliptube/cliptube/internal/database"
	"github.com/cliptube/cliptube/internal/flash"
	"github.com/cliptube/cliptube/internal/httputil"
	"github.com/cliptube/cliptube/internal/render"
	"github.com/cliptube/cliptube/internal/validate"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const userIDKey contextKey = "userID"

const sessionCookie = "session"

type Handler struct {
	db            database.DBTX
	renderer      *render.Renderer
	secret        string
	secureCookies bool
}

func NewHandler(db database.DBTX, renderer *render.Renderer, secret string, secureCookies bool) *Handler {
	return &Handler{db: db, renderer: renderer, secret: secret, secureCookies: secureCookies}
}

type joinForm struct {
	ErrorMessage string
	Name         string
	Username     string
	Email        string
}

type loginForm struct {
	ErrorMessage string
	Username     string
}

func (h *Handler) GetJoin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "join", render.Page{Title: "Join", Data: joinForm{}})
}

func (h *Handler) PostJoin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, r, http.StatusBadRequest, "join", render.Page{Title: "Join", Data: joinForm{ErrorMessage: "invalid form submission"}})
		return
	}

	form := joinForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}
	password := r.PostFormValue("password")

	fail := func(msg string) {
		form.ErrorMessage = msg
		h.renderer.Render(w, r, http.StatusBadRequest, "join", render.Page{Title: "Join", Data: form})
	}

	if form.Name == "" || form.Username == "" || form.Email == "" || password == "" {
		fail("name, username, email, and password are required")
		return
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		fail("invalid email address")
		return
	}
	if msg := validate.Name(form.Name); msg != "" {
		fail(msg)
		return
	}
	if msg := validate.Username(form.Username); msg != "" {
		fail(msg)
		return
	}
	if len(password) < 8 {
		fail("password must be at least 8 characters")
		return
	}
	if len(password) > 72 {
		fail("password must be at most 72 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fail("failed to create account")
		return
	}

	var userID string
	err = h.db.QueryRow(r.Context(),
		"INSERT INTO users (email, password, name, username) VALUES ($1, $2, $3, $4) RETURNING id",
		form.Email, string(hashed), form.Name, form.Username,
	).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			fail("that username or email is already taken")
			return
		}
		fail("failed to create account")
		return
	}

	flash.Set(w, flash.KindSuccess, "Welcome! Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) GetLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "login", render.Page{Title: "Login", Data: loginForm{}})
}

func (h *Handler) PostLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, r, http.StatusBadRequest, "login", render.Page{Title: "Login", Data: loginForm{ErrorMessage: "invalid form submission"}})
		return
	}

	form := loginForm{Username: strings.TrimSpace(r.PostFormValue("username"))}
	password := r.PostFormValue("password")

	fail := func(status int, msg string) {
		form.ErrorMessage = msg
		h.renderer.Render(w, r, status, "login", render.Page{Title: "Login", Data: form})
	}

	if form.Username == "" || password == "" {
		fail(http.StatusBadRequest, "username and password are required")
		return
	}

	var userID, hashed string
	err := h.db.QueryRow(r.Context(),
		"SELECT id, password FROM users WHERE username = $1", form.Username,
	).Scan(&userID, &hashed)
	if err != nil {
		fail(http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		fail(http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := GenerateSessionToken(h.secret, userID)
	if err != nil {
		fail(http.StatusInternalServerError, "failed to start session")
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionDuration / time.Second),
	})
}

func (h *Handler) sessionUserID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	claims, err := ValidateSessionToken(h.secret, cookie.Value)
	if err != nil {
		return ""
	}
	return claims.UserID
}

// Populate attaches the session user id to the request context when a
// valid session cookie is present. It never rejects the request.
func (h *Handler) Populate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := h.sessionUserID(r); userID != "" {
			r = r.WithContext(ContextWithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser guards HTML routes: anonymous requests are bounced to the
// login page with a flash message.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			flash.Set(w, flash.KindError, "Log in first.")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUserAPI guards JSON routes with a bare 401.
func (h *Handler) RequireUserAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContextWithUserID returns a context carrying the given user id, read
// back by UserIDFromContext.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
