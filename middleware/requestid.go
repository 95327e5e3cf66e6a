package middleware

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// RequestIDHeader is the default header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds incoming IDs that are reused.
const maxRequestIDLen = 128

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by RequestID, or an
// empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDFromRequest returns the ID of r: the one in its context, else a
// well-formed X-Request-ID header sent by the client.
func RequestIDFromRequest(r *http.Request) string {
	if id := RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get(RequestIDHeader); ValidRequestID(id) {
		return id
	}
	return ""
}

// ValidRequestID reports whether id is safe to reuse in headers and logs:
// printable ASCII without spaces, at most 128 bytes.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	// HeaderName defaults to RequestIDHeader.
	HeaderName string

	// Generate returns a new ID. Defaults to a time-ordered UUID.
	Generate func() string

	// TrustIncoming reuses a well-formed ID sent by the client.
	TrustIncoming bool

	// Logger, when set, is stored in the request context with the ID
	// attached, for logr.FromContext in downstream handlers.
	Logger logr.Logger
}

// RequestID tags every request with an ID. The ID is echoed in the
// response header and stored in the request context, where validation
// failures, document builds and Recovery pick it up.
func RequestID(cfg RequestIDConfig) func(http.Handler) http.Handler {
	header := cfg.HeaderName
	if header == "" {
		header = RequestIDHeader
	}

	generate := cfg.Generate
	if generate == nil {
		generate = newRequestID
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.TrustIncoming {
				if in := r.Header.Get(header); ValidRequestID(in) {
					id = in
				}
			}
			if id == "" {
				id = generate()
			}

			w.Header().Set(header, id)

			ctx := WithRequestID(r.Context(), id)
			if cfg.Logger.GetSink() != nil {
				ctx = logr.NewContext(ctx, cfg.Logger.WithValues("request_id", id))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// newRequestID returns a UUIDv7, falling back to a random UUID when the
// clock source fails.
//
// See: https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
