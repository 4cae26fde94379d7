package http

import (
	"errors"
	"net/http"

	"lifeledger/internal/core"
	"lifeledger/internal/log"
)

// writeError maps a domain error to its HTTP response. notFound is the message
// used for core.ErrNotFound. Unclassified errors are logged and answered with
// a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequestError(validationMessage(verr)).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(notFound).Write(w)
	case errors.Is(err, core.ErrConflict):
		ConflictError("Duplicate entry").Write(w)
	case errors.Is(err, core.ErrReference):
		BadRequestError("Referenced record not found").Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError().Write(w)
	}
}

// validationMessage capitalizes the cause so messages read like the rest of the API.
func validationMessage(err *core.ValidationError) string {
	msg := err.Err.Error()
	if msg == "" {
		return "Invalid request"
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		msg = string(c-'a'+'A') + msg[1:]
	}
	return msg
}
