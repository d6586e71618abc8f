package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/isdelr/user-manager/internal/services"
)

const (
	maxFormBytes = 1 << 20
	maxFieldLen  = 255
)

// userForm is the typed body of POST /add.
type userForm struct {
	Name  string
	Email string
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: malformed form: %v", services.ErrValidation, err)
	}
	return nil
}

// parseUserForm reads and validates name and email from a parsed form.
func parseUserForm(r *http.Request) (userForm, error) {
	form := userForm{
		Name:  strings.TrimSpace(r.PostForm.Get("name")),
		Email: strings.TrimSpace(r.PostForm.Get("email")),
	}
	if form.Name == "" || len(form.Name) > maxFieldLen {
		return form, fmt.Errorf("%w: name must be 1-%d bytes", services.ErrValidation, maxFieldLen)
	}
	if form.Email == "" || len(form.Email) > maxFieldLen {
		return form, fmt.Errorf("%w: email must be 1-%d bytes", services.ErrValidation, maxFieldLen)
	}
	addr, err := mail.ParseAddress(form.Email)
	if err != nil || addr.Address != form.Email {
		return form, fmt.Errorf("%w: email is not a valid address", services.ErrValidation)
	}
	return form, nil
}

// parseUserID validates a user id taken from the query string or form.
func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user id %q", services.ErrValidation, raw)
	}
	return id, nil
}
