package demo

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrorBody is the payload of every error answered by the demo handlers.
type ErrorBody struct {
	Code    string `json:"code" openapi:"description=Machine-readable error code"`
	Message string `json:"message" openapi:"description=Human-readable description"`
}

// respondJSON encodes v as JSON and writes it with the given status code.
// An encoding failure answers 500 instead.
func respondJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

func respondError(w http.ResponseWriter, code int, errCode, message string) {
	respondJSON(w, code, ErrorBody{Code: errCode, Message: message})
}

// bindJSON decodes exactly one JSON value from the request body into v.
// Unknown fields are rejected.
func bindJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data after JSON value")
	}

	return nil
}
