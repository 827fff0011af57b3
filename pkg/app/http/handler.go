// Package http provides chi-compatible error-returning handler plumbing.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
)

// HandlerFunc is an http.HandlerFunc that reports failures as errors instead
// of writing them inline.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError adapts an error-returning handler to a standard
// http.HandlerFunc, translating ServiceError categories into status codes.
//
// Usage with chi:
//
//	r.Post("/generate", apphttp.HandleError(h.generate))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(w, err)
		}
	}
}

type errorResponse struct {
	ErrMsg     string `json:"error"`
	ErrMsgCode int    `json:"code"`
}

// WriteError renders an error as a JSON body with its mapped status code.
// Errors outside the ServiceError taxonomy render as a generic 500 so that
// internal details never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		w.WriteHeader(svcErr.StatusCode())
		_ = json.NewEncoder(w).Encode(&errorResponse{
			ErrMsg:     svcErr.Message,
			ErrMsgCode: svcErr.StatusCode(),
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(&errorResponse{
		ErrMsg:     "Unexpected Service Error",
		ErrMsgCode: http.StatusInternalServerError,
	})
}

// WriteJSON renders a successful JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
