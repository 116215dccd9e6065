package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hubpessoal/hub/internal/common"
)

const (
	msgUnauthorized = "not authorized"
	msgNotFound     = "not found"
	msgInternal     = "something went wrong, try again"
	msgBadRequest   = "invalid request body"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeOK(w http.ResponseWriter) {
	writeData(w, http.StatusOK, nil)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// fail maps err onto one of the four responses a client can see. Only
// unexpected errors are logged; their text never leaves the server.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, msgBadRequest)
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	default:
		a.log.Error(r.Context(), "request failed", "route", routeName(r), "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return common.NewValidationError(msgBadRequest)
}

// pathID returns the {id} route variable and whether it is a uuid. Handlers
// treat a malformed id as an id that matches nothing.
func pathID(r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	return id, uuid.Validate(id) == nil
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return ""
}
