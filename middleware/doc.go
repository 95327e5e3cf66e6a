// Package middleware provides the HTTP middleware used around the
// documentation endpoints and the demo application.
//
// Every middleware has the func(http.Handler) http.Handler shape and plugs
// into chi routers with Use:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID(middleware.RequestIDConfig{}))
//	r.Use(middleware.Recovery(middleware.RecoveryConfig{Logger: log}))
//	r.Use(middleware.StaticHeaders(map[string]string{
//	    "Access-Control-Allow-Origin": "*",
//	}))
package middleware
