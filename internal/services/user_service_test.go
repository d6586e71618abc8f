package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/user-manager/internal/database"
	"github.com/isdelr/user-manager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserService_CreateThenList(t *testing.T) {
	ctx := context.Background()
	s := NewUserService(newTestDB(t), nil)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	id, err := s.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.User{{ID: 1, Name: "Alice", Email: "alice@example.com"}}, users)

	require.NoError(t, s.DeleteUser(ctx, 1))
	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserService_IdsAreFreshAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewUserService(newTestDB(t), nil)

	seen := map[int64]bool{}
	for _, name := range []string{"a", "b", "c", "d"} {
		id, err := s.CreateUser(ctx, name, name+"@example.com")
		require.NoError(t, err)
		assert.False(t, seen[id], "id %d reused", id)
		seen[id] = true
	}

	// Ids are never reused after a delete.
	require.NoError(t, s.DeleteUser(ctx, 4))
	id, err := s.CreateUser(ctx, "e", "e@example.com")
	require.NoError(t, err)
	assert.False(t, seen[id])

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	for i := 1; i < len(users); i++ {
		assert.Less(t, users[i-1].ID, users[i].ID)
	}
}

func TestUserService_DeleteRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := NewUserService(newTestDB(t), nil)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.CreateUser(ctx, name, name+"@example.com")
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteUser(ctx, 2))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, int64(2), u.ID)
	}
}

func TestUserService_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewUserService(newTestDB(t), nil)

	_, err := s.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	before, err := s.ListUsers(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, 999))
	require.NoError(t, s.DeleteUser(ctx, 999))

	after, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUserService_HostileInputIsStoredVerbatim(t *testing.T) {
	ctx := context.Background()
	s := NewUserService(newTestDB(t), nil)

	name := "Robert'); DROP TABLE users;--"
	_, err := s.CreateUser(ctx, name, "bobby@example.com")
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, name, users[0].Name)
}

func TestUserService_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	s := NewUserService(newTestDB(t), nil)

	_, err := s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	id, err := s.CreateUserWithPassword(ctx, "Alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	u, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

	_, err = s.CreateUserWithPassword(ctx, "Alice", "alice2@example.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_RecordsEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	events := NewEventService(db, nil)
	s := NewUserService(db, events)

	id, err := s.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, s.DeleteUser(ctx, id))
	require.NoError(t, s.DeleteUser(ctx, id))

	got, err := events.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user.delete", got[0].Type)
	assert.Equal(t, "user.create", got[1].Type)
	require.NotNil(t, got[1].UserID)
	assert.Equal(t, id, *got[1].UserID)
}

func newMockUserService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserService(db, nil), mock
}

func TestUserService_PersistenceErrors(t *testing.T) {
	ctx := context.Background()
	dbDown := errors.New("db down")

	t.Run("list", func(t *testing.T) {
		s, mock := newMockUserService(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email FROM users ORDER BY id")).WillReturnError(dbDown)

		_, err := s.ListUsers(ctx)
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "list users", perr.Op)
		assert.ErrorIs(t, err, dbDown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create", func(t *testing.T) {
		s, mock := newMockUserService(t)
		mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)")).
			ExpectExec().
			WithArgs("Alice", "alice@example.com", "").
			WillReturnError(dbDown)

		_, err := s.CreateUser(ctx, "Alice", "alice@example.com")
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "create user", perr.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create returns id", func(t *testing.T) {
		s, mock := newMockUserService(t)
		mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)")).
			ExpectExec().
			WithArgs("Alice", "alice@example.com", "").
			WillReturnResult(sqlmock.NewResult(42, 1))

		id, err := s.CreateUser(ctx, "Alice", "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		s, mock := newMockUserService(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).WithArgs(int64(7)).WillReturnError(dbDown)

		err := s.DeleteUser(ctx, 7)
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "delete user", perr.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get by email", func(t *testing.T) {
		s, mock := newMockUserService(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash FROM users WHERE email = ?")).
			WithArgs("alice@example.com").
			WillReturnError(dbDown)

		_, err := s.GetUserByEmail(ctx, "alice@example.com")
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.NotErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
