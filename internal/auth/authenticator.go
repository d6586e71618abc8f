package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/user-manager/internal/models"
	"github.com/isdelr/user-manager/internal/services"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LoginFailedMessage is the only text shown for any failed login.
const LoginFailedMessage = "Invalid email or password"

// Token is a signed session token and the moment it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Authenticator verifies credentials and manages the sessions they open.
type Authenticator struct {
	users    services.UserServiceProvider
	sessions services.SessionServiceProvider
	events   services.EventServiceProvider
	tokens   *TokenIssuer
	ttl      time.Duration
}

// NewAuthenticator creates a new Authenticator. events may be nil.
func NewAuthenticator(users services.UserServiceProvider, sessions services.SessionServiceProvider, events services.EventServiceProvider, tokens *TokenIssuer, ttl time.Duration) *Authenticator {
	return &Authenticator{
		users:    users,
		sessions: sessions,
		events:   events,
		tokens:   tokens,
		ttl:      ttl,
	}
}

// Authenticate checks email and password and opens a session on success.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (Token, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Token{}, ErrMissingCredentials
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Burn the same time a real comparison would take.
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			a.record(ctx, "auth.login.fail", "warn", fmt.Sprintf("Failed login for %s.", email), nil)
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.record(ctx, "auth.login.fail", "warn", fmt.Sprintf("Failed login for %s.", email), &user.ID)
		return Token{}, ErrInvalidCredentials
	}

	session, err := a.sessions.CreateSession(ctx, user.ID, a.ttl)
	if err != nil {
		return Token{}, err
	}

	value, err := a.tokens.Generate(session)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	a.record(ctx, "auth.login", "info", fmt.Sprintf("User %d logged in.", user.ID), &user.ID)
	return Token{Value: value, ExpiresAt: session.ExpiresAt}, nil
}

// Resolve maps a token to its live session.
func (a *Authenticator) Resolve(ctx context.Context, token string) (models.Session, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return models.Session{}, services.ErrSessionNotFound
	}
	return a.sessions.GetSession(ctx, claims.SessionID)
}

// Logout destroys the session behind token. Invalid tokens are ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil
	}
	session, err := a.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if err := a.sessions.DeleteSession(ctx, session.ID); err != nil {
		return err
	}
	a.record(ctx, "auth.logout", "info", fmt.Sprintf("User %d logged out.", session.UserID), &session.UserID)
	return nil
}

func (a *Authenticator) record(ctx context.Context, eventType, level, message string, userID *int64) {
	if a.events == nil {
		return
	}
	if err := a.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record auth event")
	}
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummy
}
