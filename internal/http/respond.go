package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/marqueehq/marquee/internal/repository"
	"github.com/marqueehq/marquee/internal/service/auth"
	"github.com/marqueehq/marquee/internal/validator"
)

// envelope wraps response payloads under a named key.
type envelope map[string]any

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg any) {
	writeJSON(w, status, envelope{"error": msg})
}

// mapError translates the typed error taxonomy into status codes.
// Validation, not-found and conflict are client errors; authentication
// failures split between 401 and 403; everything else is logged in full
// and surfaced only as an opaque server failure.
func (r *Router) mapError(w http.ResponseWriter, req *http.Request, err error) {
	var vErrs validator.Errors
	switch {
	case errors.As(err, &vErrs):
		writeError(w, http.StatusUnprocessableEntity, vErrs)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "the requested resource could not be found")
	case errors.Is(err, repository.ErrEditConflict):
		writeError(w, http.StatusConflict, "unable to update the record due to an edit conflict, please try again")
	case errors.Is(err, auth.ErrAuthenticationRequired),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInactiveAccount),
		errors.Is(err, auth.ErrPermissionRequired):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		r.logger.Error("unexpected error", "method", req.Method, "path", req.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
	}
}

// readJSON decodes a request body, rejecting oversized and malformed
// payloads with a client error.
func readJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	const maxBytes = 1 << 20
	req.Body = http.MaxBytesReader(w, req.Body, maxBytes)

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("body must only contain a single JSON value")
	}
	return nil
}
