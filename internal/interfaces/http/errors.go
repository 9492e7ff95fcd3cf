package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

var (
	errMissingToken    = errors.New("missing or invalid token")
	errInvalidBody     = errors.New("invalid request body")
	errTooManyRequests = errors.New("too many requests, please slow down")
	errInternal        = errors.New("internal error")
)

var errorStatuses = []struct {
	status int
	errs   []error
}{
	{
		http.StatusBadRequest,
		[]error{
			domain.ErrInvalidItem,
			domain.ErrInvalidAmount,
			domain.ErrInvalidLegAmount,
			domain.ErrInvalidUsername,
			domain.ErrInvalidEmail,
			domain.ErrInvalidPassword,
			domain.ErrInvalidMessage,
			domain.ErrInvalidRating,
			domain.ErrSelfRecipient,
			user.ErrInvalidQuery,
			errInvalidBody,
		},
	},
	{
		http.StatusUnauthorized,
		[]error{
			errMissingToken,
			user.ErrInvalidToken,
			domain.ErrInvalidCredentials,
		},
	},
	{
		http.StatusForbidden,
		[]error{
			domain.ErrNotInitiator,
			domain.ErrNotRecipient,
			domain.ErrNotParticipant,
			domain.ErrSelfAccept,
		},
	},
	{
		http.StatusNotFound,
		[]error{
			domain.ErrExchangeNotFound,
			domain.ErrUserNotFound,
			domain.ErrInventoryItemNotFound,
		},
	},
	{
		http.StatusConflict,
		[]error{
			domain.ErrIllegalTransition,
			domain.ErrExchangeExpired,
			domain.ErrAlreadyRated,
			domain.ErrUserAlreadyExists,
		},
	},
	{
		http.StatusTooManyRequests,
		[]error{errTooManyRequests},
	},
}

// statusForError maps the given error to an HTTP status code. Unknown
// errors are internal.
func statusForError(err error) int {
	for _, s := range errorStatuses {
		for _, e := range s.errs {
			if errors.Is(err, e) {
				return s.status
			}
		}
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Warn("request failed")
		err = errInternal
	}
	writeJSON(w, status, errorResponse{err.Error()})
}

// writeJSON encodes the body before writing any header, so that an
// unencodable body results in an internal error instead of an empty reply.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		log.WithError(err).Error("failed to encode response")
		status = http.StatusInternalServerError
		buf, _ = json.Marshal(errorResponse{errInternal.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(buf, '\n')); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, body interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return errInvalidBody
	}
	return nil
}
