package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/user-manager/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, name, email string) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUserWithPassword(ctx context.Context, name, email, password string) (int64, error)
}

// UserService owns every read and write of the users table.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService. events may be nil.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

// ListUsers returns every user in primary key order.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email FROM users ORDER BY id")
	if err != nil {
		return nil, persistenceError("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email); err != nil {
			return nil, persistenceError("list users", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list users", err)
	}
	return users, nil
}

// CreateUser inserts a user without a password and returns the new id.
// Such users are listed but cannot log in.
func (s *UserService) CreateUser(ctx context.Context, name, email string) (int64, error) {
	return s.insert(ctx, name, email, "")
}

// CreateUserWithPassword creates a user able to log in, storing only the
// bcrypt hash of password.
func (s *UserService) CreateUserWithPassword(ctx context.Context, name, email, password string) (int64, error) {
	if password == "" {
		return 0, fmt.Errorf("%w: empty password", ErrValidation)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.insert(ctx, name, email, string(hashedPassword))
}

func (s *UserService) insert(ctx context.Context, name, email, passwordHash string) (int64, error) {
	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)")
	if err != nil {
		return 0, persistenceError("create user", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, name, email, passwordHash)
	if err != nil {
		return 0, persistenceError("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, persistenceError("create user", err)
	}

	s.record(ctx, "user.create", fmt.Sprintf("User %d (%s) created.", id, email), &id)
	return id, nil
}

// DeleteUser removes a user. Deleting an id that does not exist succeeds.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return persistenceError("delete user", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.record(ctx, "user.delete", fmt.Sprintf("User %d deleted.", id), nil)
	}
	return nil
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, password_hash FROM users WHERE email = ? ORDER BY id LIMIT 1", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, persistenceError("get user by email", err)
	}
	return user, nil
}

func (s *UserService) record(ctx context.Context, eventType, message string, userID *int64) {
	if s.events == nil {
		return
	}
	_ = s.events.CreateEvent(ctx, eventType, "info", message, userID)
}
