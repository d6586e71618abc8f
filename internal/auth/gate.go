package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/user-manager/internal/models"
	"github.com/isdelr/user-manager/internal/services"
	"github.com/rs/zerolog/log"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session"

type contextKey string

// SessionKey is the context key for the current session.
const SessionKey = contextKey("session")

// SessionResolver maps a session token to its live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.Session, error)
}

// Gate loads the caller's session from the cookie and guards protected routes.
type Gate struct {
	resolver SessionResolver
	secure   bool
	now      func() time.Time
}

// NewGate creates a Gate. secure sets the Secure flag on cookies it writes.
func NewGate(resolver SessionResolver, secure bool) *Gate {
	return &Gate{resolver: resolver, secure: secure, now: time.Now}
}

// Load resolves the session cookie, if any, and stores the session on the
// request context. Requests without a valid session continue anonymously.
func (g *Gate) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := g.resolver.Resolve(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, services.ErrSessionNotFound) {
				log.Error().Err(err).Msg("Failed to resolve session")
			}
			g.ClearCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), &session)))
	})
}

// RequireSession redirects anonymous requests to the login page.
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.IsAuthenticated(FromContext(r.Context())) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAuthenticated reports whether session binds a user and has not expired.
func (g *Gate) IsAuthenticated(session *models.Session) bool {
	return session != nil && session.UserID > 0 && !session.Expired(g.now())
}

// SetCookie writes the session cookie for token.
func (g *Gate) SetCookie(w http.ResponseWriter, token Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token.Value,
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// ClearCookie expires the session cookie in the browser.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// FromContext returns the session stored by Load, or nil.
func FromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(SessionKey).(*models.Session)
	return session
}
