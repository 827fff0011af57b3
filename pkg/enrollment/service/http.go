package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
	apphttp "github.com/morphid/biodid-middleware/pkg/app/http"
	"github.com/morphid/biodid-middleware/pkg/enrollment"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for the enrollment service on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/generate", apphttp.HandleError(h.generate))
}

// generate handles enrollment requests
func (h *HTTP) generate(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req enrollment.GenerateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	// Try headers if the proof is not in the body
	if req.Signature == "" {
		req.Signature = r.Header.Get("X-Signature")
		req.Message = r.Header.Get("X-Message")
	}

	resp, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, resp)
	return nil
}
