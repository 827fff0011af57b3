package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
	apphttp "github.com/morphid/biodid-middleware/pkg/app/http"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers public bundle resolution on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Get("/bundles/{did}", apphttp.HandleError(h.resolve))
}

// RegisterManagementRoutes registers the mutating endpoints; callers wrap the
// router in token auth middleware before passing it in.
func RegisterManagementRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Get("/bundles", apphttp.HandleError(h.list))
	r.Post("/bundles/{did}/controllers", apphttp.HandleError(h.addController))
	r.Post("/bundles/{did}/revoke", apphttp.HandleError(h.revoke))
}

// addControllerRequest represents a controller append request
type addControllerRequest struct {
	Controller string `json:"controller"`
}

func (h *HTTP) resolve(w http.ResponseWriter, r *http.Request) error {
	b, err := h.service.Resolve(r.Context(), chi.URLParam(r, "did"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, b)
	return nil
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) error {
	bundles, err := h.service.List(r.Context())
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, bundles)
	return nil
}

func (h *HTTP) addController(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req addControllerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	b, err := h.service.AddController(r.Context(), chi.URLParam(r, "did"), req.Controller)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, b)
	return nil
}

func (h *HTTP) revoke(w http.ResponseWriter, r *http.Request) error {
	b, err := h.service.Revoke(r.Context(), chi.URLParam(r, "did"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, b)
	return nil
}
