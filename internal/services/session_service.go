package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/user-manager/internal/models"
)

// SessionServiceProvider defines the interface for server-side sessions.
type SessionServiceProvider interface {
	CreateSession(ctx context.Context, userID int64, ttl time.Duration) (models.Session, error)
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionService stores sessions in the sessions table. Rows are removed
// with their user through the foreign key cascade.
type SessionService struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(db *sql.DB) *SessionService {
	return &SessionService{db: db, now: time.Now}
}

// CreateSession opens a session for userID valid for ttl.
func (s *SessionService) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (models.Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	session := models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.CreatedAt.Unix(), session.ExpiresAt.Unix())
	if err != nil {
		return models.Session{}, persistenceError("create session", err)
	}
	return session, nil
}

// GetSession returns a live session. Missing and expired sessions both
// yield ErrSessionNotFound.
func (s *SessionService) GetSession(ctx context.Context, id string) (models.Session, error) {
	var (
		session            models.Session
		createdAt, expires int64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ? AND expires_at > ?",
		id, s.now().Unix())
	if err := row.Scan(&session.ID, &session.UserID, &createdAt, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, persistenceError("get session", err)
	}
	session.CreatedAt = time.Unix(createdAt, 0).UTC()
	session.ExpiresAt = time.Unix(expires, 0).UTC()
	return session, nil
}

// DeleteSession removes a session. Unknown ids are ignored.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return persistenceError("delete session", err)
	}
	return nil
}

// DeleteExpired purges every session that expired at or before now and
// returns how many rows were removed.
func (s *SessionService) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, persistenceError("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistenceError("delete expired sessions", err)
	}
	return n, nil
}
