package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/user-manager/internal/view"
	"github.com/rs/zerolog/log"
)

const (
	badRequestMessage  = "Bad request."
	serverErrorMessage = "Something went wrong. Please try again later."
)

// badRequest answers a validation failure without revealing details.
func badRequest(w http.ResponseWriter, r *http.Request, render view.Renderer, err error) {
	log.Debug().Err(err).Str("path", r.URL.Path).Msg("Bad request")
	render.Render(w, http.StatusBadRequest, view.PageError, view.Page{Title: "Bad Request", Error: badRequestMessage})
}

// serverError logs err and answers with a generic page; database details
// never reach the response.
func serverError(w http.ResponseWriter, r *http.Request, render view.Renderer, err error, msg string) {
	log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Msg(msg)
	render.Render(w, http.StatusInternalServerError, view.PageError, view.Page{Title: "Error", Error: serverErrorMessage})
}
