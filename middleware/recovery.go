package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
)

// RecoveryConfig configures the Recovery middleware.
type RecoveryConfig struct {
	// Logger receives recovered panics. The zero value discards them.
	Logger logr.Logger
}

// Recovery turns panics in downstream handlers into 500 Internal Server
// Error responses and logs them with the request ID, when present.
func Recovery(cfg RecoveryConfig) func(http.Handler) http.Handler {
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}

					log.Error(fmt.Errorf("panic: %v", rv), "recovered from panic",
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
					)

					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
