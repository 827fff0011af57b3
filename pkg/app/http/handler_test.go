package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, int) {
	t.Helper()
	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	return got.Error, got.Code
}

func TestHandleError_Success(t *testing.T) {
	handler := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		WriteJSON(w, http.StatusCreated, map[string]string{"did": "did:cardano:mainnet:6pXhWqDu1"})
		return nil
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got["did"] != "did:cardano:mainnet:6pXhWqDu1" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestHandleError_ServiceError(t *testing.T) {
	handler := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.ConflictError(nil, "identity already enrolled")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
	msg, code := decodeError(t, rec)
	if msg != "identity already enrolled" || code != http.StatusConflict {
		t.Fatalf("unexpected error body: %q %d", msg, code)
	}
}

func TestHandleError_UnknownError(t *testing.T) {
	handler := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("pgdriver: connection reset by peer")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	msg, _ := decodeError(t, rec)
	if msg != "Unexpected Service Error" {
		t.Fatalf("internal error detail leaked to client: %q", msg)
	}
}

func TestWriteError_WrappedServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperrors.UnavailableError(errors.New("dial tcp: i/o timeout"), "identity registry unavailable"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	msg, code := decodeError(t, rec)
	if msg != "identity registry unavailable" || code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error body: %q %d", msg, code)
	}
}
