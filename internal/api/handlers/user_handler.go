package handlers

import (
	"net/http"

	"github.com/isdelr/user-manager/internal/auth"
	"github.com/isdelr/user-manager/internal/models"
	"github.com/isdelr/user-manager/internal/services"
	"github.com/isdelr/user-manager/internal/view"
	"github.com/rs/zerolog/log"
)

// SessionChecker tells whether a request's session is logged in.
type SessionChecker interface {
	IsAuthenticated(session *models.Session) bool
}

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
	gate    SessionChecker
	render  view.Renderer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, gate SessionChecker, render view.Renderer) *UserHandler {
	return &UserHandler{service: service, gate: gate, render: render}
}

// List renders the user table, or the login prompt for anonymous visitors.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := view.Page{Title: "User Management System"}
	if !h.gate.IsAuthenticated(auth.FromContext(r.Context())) {
		h.render.Render(w, http.StatusOK, view.PageIndex, page)
		return
	}

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		serverError(w, r, h.render, err, "Failed to list users")
		return
	}

	page.Authenticated = true
	page.Users = users
	h.render.Render(w, http.StatusOK, view.PageIndex, page)
}

// AddForm renders the empty add user form.
func (h *UserHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, view.PageAdd, view.Page{Title: "Add User"})
}

// Add creates a user from the submitted form and redirects to the list.
func (h *UserHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		badRequest(w, r, h.render, err)
		return
	}

	form, err := parseUserForm(r)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected add user form")
		h.render.Render(w, http.StatusBadRequest, view.PageAdd, view.Page{
			Title: "Add User",
			Error: "Please enter a name and a valid email address.",
			Form:  r.PostForm,
		})
		return
	}

	// The new id is not needed by the caller.
	if _, err := h.service.CreateUser(r.Context(), form.Name, form.Email); err != nil {
		serverError(w, r, h.render, err, "Failed to create user")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes the user named by the id parameter and redirects to the
// list. Unknown ids redirect the same way.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if r.Method == http.MethodPost {
		if err := parseForm(w, r); err != nil {
			badRequest(w, r, h.render, err)
			return
		}
		raw = r.PostForm.Get("id")
	}

	id, err := parseUserID(raw)
	if err != nil {
		badRequest(w, r, h.render, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		serverError(w, r, h.render, err, "Failed to delete user")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
