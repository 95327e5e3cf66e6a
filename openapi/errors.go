package openapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotMapping is returned when a parameter or response list holds an
	// element that is not a mapping.
	ErrNotMapping = errors.New("definitions must be a list of mappings")

	// ErrUnresolvedHandler is returned when a route verb cannot be resolved
	// to a handler, for example a method view registered for a verb it does
	// not serve.
	ErrUnresolvedHandler = errors.New("route handler cannot be resolved")

	// ErrMissingEndpoint is returned when a spec is configured without an
	// endpoint name.
	ErrMissingEndpoint = errors.New("spec endpoint name is required")

	// ErrUnknownEndpoint is returned when a spec is requested by a name that
	// is not configured.
	ErrUnknownEndpoint = errors.New("unknown spec endpoint")

	// ErrSchemaNotFound is returned by schema lookups for unknown ids.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrNoSchema is returned when validation cannot determine which schema
	// to validate against.
	ErrNoSchema = errors.New("no data or schema to validate")
)

// ConfigError reports a configuration or assembly failure. The spec
// endpoint answers these with 500 Internal Server Error.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("openapi: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status reported for the error.
func (e *ConfigError) StatusCode() int {
	return http.StatusInternalServerError
}

// ValidationError carries a failed validation together with the payload and
// the schema it was checked against.
type ValidationError struct {
	Err    error
	Data   any
	Schema map[string]any

	// RequestID identifies the rejected request, when known.
	RequestID string
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StatusCode returns 400 Bad Request.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// HTTPError is an error with an explicit HTTP status. Validation error
// handlers return it to answer with a status other than 400.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

// StatusCode returns the configured status.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// StatusCode returns the HTTP status for err. Errors that do not report a
// status map to 500, validation failures to 400.
func StatusCode(err error) int {
	var coder interface{ StatusCode() int }
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeError writes err as a plain text HTTP error response.
func writeError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && !errors.Is(err, ErrNoSchema) {
		msg = http.StatusText(code)
	}

	var verr *ValidationError
	if errors.As(err, &verr) && verr.RequestID != "" {
		msg += "\nrequest_id: " + verr.RequestID
	}
	http.Error(w, msg, code)
}
