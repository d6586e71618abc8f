package services

import "errors"

var (
	// ErrValidation marks malformed or missing input rejected before any
	// database call.
	ErrValidation = errors.New("validation error")

	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// PersistenceError wraps any failure coming from the database layer.
// Handlers log it and answer with a generic server error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
