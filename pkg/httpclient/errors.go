package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

// UpstreamError describes a non-2xx response from a remote API.
type UpstreamError struct {
	Service string
	Status  int
	Code    string
	Message string
}

// Error returns the upstream message so it can be shown to an operator as-is.
func (e *UpstreamError) Error() string {
	return e.Message
}

// Unwrap maps the HTTP status onto the application's sentinel errors.
func (e *UpstreamError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Status == http.StatusConflict:
		return apperrors.ErrAlreadyExists
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidInput
	case e.Status == http.StatusServiceUnavailable:
		return apperrors.ErrServiceUnavail
	default:
		return nil
	}
}

// errorBody covers the error shapes seen from upstream APIs: this service's
// own envelope ({"error":{"code","message"}}) and the flat form used by the
// hosted storage API ({"statusCode":"404","error":"Bucket not found","message":"..."}).
type errorBody struct {
	Error      json.RawMessage `json:"error"`
	Message    string          `json:"message"`
	StatusCode json.RawMessage `json:"statusCode"`
}

// ParseResponseError reads a non-2xx response body into an *UpstreamError.
// The body is consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	ue := &UpstreamError{Service: service, Status: resp.StatusCode}

	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		var flat string
		switch {
		case len(body.Error) > 0 && json.Unmarshal(body.Error, &nested) == nil && nested.Message != "":
			ue.Code, ue.Message = nested.Code, nested.Message
		case len(body.Error) > 0 && json.Unmarshal(body.Error, &flat) == nil:
			ue.Code = flat
			ue.Message = body.Message
			if ue.Message == "" {
				ue.Message = flat
			}
		case body.Message != "":
			ue.Message = body.Message
		}
	}

	if ue.Message == "" {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		ue.Message = fmt.Sprintf("%s returned status %d: %s", service, resp.StatusCode, text)
	}
	return ue
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
