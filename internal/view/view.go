// Package view renders the HTML pages. Templates are embedded in the binary
// and escape every value contextually.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/isdelr/user-manager/internal/models"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageIndex = "index"
	PageAdd   = "add"
	PageLogin = "login"
	PageError = "error"
)

// Page is everything a template may show.
type Page struct {
	Title         string
	Users         []models.User
	Authenticated bool
	Error         string
	Form          url.Values
}

// Renderer writes a named page with the given status.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page Page)
}

// Templates is the html/template backed Renderer.
type Templates struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageIndex, PageAdd, PageLogin, PageError} {
		tmpl, err := template.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := t.pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("Unknown page")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
