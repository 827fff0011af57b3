// Package service exposes metadata bundle management: public DID resolution
// plus token-protected controller and revocation mutations.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/morphid/biodid-middleware/internal/metrics"
	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
	"github.com/morphid/biodid-middleware/pkg/bundle"
	"github.com/morphid/biodid-middleware/pkg/bundlestore"
	"github.com/morphid/biodid-middleware/pkg/did"
)

// Store is the narrow persistence interface for the bundle management
// service.
type Store interface {
	GetByDID(ctx context.Context, did string) (*bundle.MetadataBundle, error)
	Update(ctx context.Context, b *bundle.MetadataBundle) error
	List(ctx context.Context) ([]*bundle.MetadataBundle, error)
}

// Service defines the interface for bundle management business logic
type Service interface {
	Resolve(ctx context.Context, did string) (*bundle.MetadataBundle, error)
	List(ctx context.Context) ([]*bundle.MetadataBundle, error)
	AddController(ctx context.Context, did, controller string) (*bundle.MetadataBundle, error)
	Revoke(ctx context.Context, did string) (*bundle.MetadataBundle, error)
}

type bundleService struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new bundle management service
func NewService(store Store, logger *zap.Logger) Service {
	return &bundleService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (s *bundleService) Resolve(ctx context.Context, identifier string) (*bundle.MetadataBundle, error) {
	if _, err := did.Parse(identifier); err != nil {
		return nil, apperrors.BadRequestError(err, "malformed DID")
	}

	b, err := s.store.GetByDID(ctx, identifier)
	if err != nil {
		if errors.Is(err, bundlestore.ErrBundleNotFound) {
			return nil, apperrors.NotFoundError(err, "no bundle for DID")
		}
		s.logger.Error("failed to load bundle", zap.Error(err))
		return nil, apperrors.GeneralError(err)
	}
	return b, nil
}

// List returns every enrolled bundle in enrollment order. Operator surface,
// token-protected by the caller.
func (s *bundleService) List(ctx context.Context) ([]*bundle.MetadataBundle, error) {
	bundles, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list bundles", zap.Error(err))
		return nil, apperrors.GeneralError(err)
	}
	return bundles, nil
}

func (s *bundleService) AddController(ctx context.Context, identifier, controller string) (*bundle.MetadataBundle, error) {
	if controller == "" {
		return nil, apperrors.BadRequestError(bundle.ErrControllerRequired, "controller is required")
	}

	b, err := s.Resolve(ctx, identifier)
	if err != nil {
		metrics.BundleWrites.WithLabelValues("add_controller", "error").Inc()
		return nil, err
	}
	if b.Revocation.Revoked() {
		metrics.BundleWrites.WithLabelValues("add_controller", "conflict").Inc()
		return nil, apperrors.ConflictError(nil, "bundle is revoked")
	}

	// Adding an existing controller is a no-op, not an error.
	if b.AddController(controller) {
		if err := s.store.Update(ctx, b); err != nil {
			s.logger.Error("failed to update controllers", zap.Error(err))
			metrics.BundleWrites.WithLabelValues("add_controller", "error").Inc()
			return nil, apperrors.GeneralError(err)
		}
		s.logger.Info("controller added",
			zap.String("did", identifier),
			zap.Int("controllers", len(b.Controllers)),
		)
	}
	metrics.BundleWrites.WithLabelValues("add_controller", "ok").Inc()
	return b, nil
}

func (s *bundleService) Revoke(ctx context.Context, identifier string) (*bundle.MetadataBundle, error) {
	b, err := s.Resolve(ctx, identifier)
	if err != nil {
		metrics.BundleWrites.WithLabelValues("revoke", "error").Inc()
		return nil, err
	}

	if err := b.Revoke(s.now()); err != nil {
		metrics.BundleWrites.WithLabelValues("revoke", "conflict").Inc()
		return nil, apperrors.ConflictError(err, "bundle is already revoked")
	}
	if err := s.store.Update(ctx, b); err != nil {
		s.logger.Error("failed to persist revocation", zap.Error(err))
		metrics.BundleWrites.WithLabelValues("revoke", "error").Inc()
		return nil, apperrors.GeneralError(err)
	}

	s.logger.Info("bundle revoked", zap.String("did", identifier))
	metrics.BundleWrites.WithLabelValues("revoke", "ok").Inc()
	return b, nil
}
