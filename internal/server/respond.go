package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/lifecycle"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/rs/zerolog"
)

// validationError marks a malformed or inconsistent request payload.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalidf(msg string) error { return &validationError{msg: msg} }

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalidf("invalid JSON payload: " + err.Error())
	}
	return nil
}

// writeError maps engine and store errors onto the HTTP error taxonomy.
// Guard failures arrive here before any mutation was attempted; 500s carry
// the raw reason string, which is acceptable for an internal surface.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var invalidTransition *lifecycle.InvalidTransitionError
	var incomplete *lifecycle.IncompleteSubmissionError
	var invalid *validationError

	switch {
	case errors.Is(err, auth.ErrForbidden):
		status = http.StatusForbidden
	case isNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &invalidTransition),
		errors.As(err, &incomplete),
		errors.As(err, &invalid),
		errors.Is(err, lifecycle.ErrNoteRequired),
		errors.Is(err, lifecycle.ErrReleaseLocked),
		errors.Is(err, store.ErrArtistReferenced),
		errors.Is(err, store.ErrLabelHasLiveReleases),
		errors.Is(err, store.ErrUserAlreadyExists):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// pathID parses the {id} path segment of the matched route.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, invalidf("invalid id: " + r.PathValue("id"))
	}
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrUserNotFound) ||
		errors.Is(err, store.ErrLabelNotFound) ||
		errors.Is(err, store.ErrArtistNotFound) ||
		errors.Is(err, store.ErrReleaseNotFound) ||
		errors.Is(err, store.ErrNoteNotFound) ||
		errors.Is(err, store.ErrNoticeNotFound)
}
