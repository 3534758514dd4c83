package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/quecomemoshoy/pkg/httputil"
	"github.com/utafrali/quecomemoshoy/pkg/validator"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// decodeJSON decodes and validates a request body, writing the 400 response
// itself when either step fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return false
	}
	httputil.WriteMessage(w, r, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
	return false
}

// writeError maps validation failures to field errors and everything else
// through the standard error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteError(w, r, err, logger)
}

func writeData(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, httputil.Response{Data: data})
}
