// Package httputil provides JSON request and response helpers for the
// flowboard HTTP API.
//
// All API responses use a single envelope convention: success payloads are
// written verbatim, failures are wrapped as {"error": {"code", "message"}}
// with a machine-readable code from the errors package.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies. Flowcharts are small documents; a
// megabyte of JSON is already thousands of nodes.
const maxBodyBytes = 1 << 20

// ErrorBody is the inner error object of the failure envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope returned for all non-2xx responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status code.
// Encoding failures are silently dropped - headers are already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the failure envelope with the given status and code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// ReadJSON decodes a request body into v. It enforces a size limit and
// rejects unknown fields so typos fail loudly instead of vanishing.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}

	// A second document in the body is a client bug.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}
