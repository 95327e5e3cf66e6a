// Package mux is a small path router for services that document their
// routes with specforge.
//
// Routes are path templates with "{name}" placeholders, optionally
// constrained by a regular expression or a named macro:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/pets/{id:uuid}", getPet).Methods(http.MethodGet).Name("pet")
//	api := r.PathPrefix("/api/v1").Subrouter()
//	api.HandleFunc("/users/{page:int}", listUsers).Methods(http.MethodGet)
//
// Walk enumerates the registered routes with their templates, names and
// methods, which is what openapi.MuxRoutes reads to assemble a document.
// Inside a handler, Vars returns the placeholder values and CurrentRoute
// the matched route.
//
// Macros:
//
//	uuid     - RFC 4122 UUID
//	int      - unsigned integer
//	float    - decimal number
//	slug     - URL-safe slug
//	alpha    - letters
//	alphanum - letters and digits
//	date     - YYYY-MM-DD
//	hex      - hexadecimal digits
//	domain   - RFC 1123 host name, at most 253 characters
package mux
