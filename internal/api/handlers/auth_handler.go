package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/isdelr/user-manager/internal/auth"
	"github.com/isdelr/user-manager/internal/view"
	"github.com/rs/zerolog/log"
)

// Authenticator is the part of auth.Authenticator the login flow needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (auth.Token, error)
	Logout(ctx context.Context, token string) error
}

// SessionCookies reads and writes the session cookie.
type SessionCookies interface {
	SessionChecker
	SetCookie(w http.ResponseWriter, token auth.Token)
	ClearCookie(w http.ResponseWriter)
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	auth   Authenticator
	gate   SessionCookies
	render view.Renderer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator Authenticator, gate SessionCookies, render view.Renderer) *AuthHandler {
	return &AuthHandler{auth: authenticator, gate: gate, render: render}
}

// LoginForm renders the login page. Logged-in users go straight to the list.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.gate.IsAuthenticated(auth.FromContext(r.Context())) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render.Render(w, http.StatusOK, view.PageLogin, view.Page{Title: "Login"})
}

// Login verifies the submitted credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.loginFailed(w, http.StatusBadRequest)
		return
	}

	email := r.PostForm.Get("email")
	token, err := h.auth.Authenticate(r.Context(), email, r.PostForm.Get("password"))
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingCredentials):
		h.loginFailed(w, http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		log.Warn().Str("email", email).Msg("Failed authentication attempt")
		h.loginFailed(w, http.StatusUnauthorized)
		return
	default:
		serverError(w, r, h.render, err, "Failed to authenticate user")
		return
	}

	h.gate.SetCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the current session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			// The cookie is dropped regardless; the row expires on its own.
			log.Error().Err(err).Msg("Failed to delete session")
		}
	}
	h.gate.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, status int) {
	h.render.Render(w, status, view.PageLogin, view.Page{Title: "Login", Error: auth.LoginFailedMessage})
}

var (
	_ SessionCookies = (*auth.Gate)(nil)
	_ Authenticator  = (*auth.Authenticator)(nil)
)
