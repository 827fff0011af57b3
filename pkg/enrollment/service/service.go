// Package service implements the enrollment business logic: extract a stable
// secret from fingerprint samples, derive the DID, guard against duplicate
// enrollment, and persist the metadata bundle. Raw samples and commitments
// live only for the duration of a request and are wiped on every exit path.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/morphid/biodid-middleware/internal/metrics"
	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
	"github.com/morphid/biodid-middleware/pkg/auth"
	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/bundle"
	"github.com/morphid/biodid-middleware/pkg/bundlestore"
	"github.com/morphid/biodid-middleware/pkg/did"
	"github.com/morphid/biodid-middleware/pkg/enrollment"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
	"github.com/morphid/biodid-middleware/pkg/registry"
)

// Store is the narrow persistence interface for the enrollment service.
// Defined here to keep the service decoupled from bundlestore implementation
// details.
type Store interface {
	Create(ctx context.Context, b *bundle.MetadataBundle) error
}

// HelperStore persists helper data referenced by bundles in external storage
// mode.
type HelperStore interface {
	Put(ctx context.Context, did string, helpers map[biometric.Finger]fuzzy.HelperDataEntry) (string, error)
	Delete(ctx context.Context, did string) error
}

// UniquenessGuard checks a candidate DID against the identity registry.
type UniquenessGuard interface {
	CheckUnique(ctx context.Context, did string) (*registry.CheckResult, error)
}

// Service defines the interface for the enrollment business logic
type Service interface {
	Generate(ctx context.Context, req *enrollment.GenerateRequest) (*enrollment.GenerateResponse, error)
}

// Options tunes optional service behavior.
type Options struct {
	// Network tags every issued DID.
	Network did.Network

	// RequireControllerProof demands an EIP-191 signature for EVM-address
	// controllers.
	RequireControllerProof bool
}

type enrollmentService struct {
	extractor   *fuzzy.Extractor
	guard       UniquenessGuard
	store       Store
	helperStore HelperStore
	opts        Options
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new enrollment service. helperStore may be nil when
// external helper storage is not configured.
func NewService(
	extractor *fuzzy.Extractor,
	guard UniquenessGuard,
	store Store,
	helperStore HelperStore,
	opts Options,
	logger *zap.Logger,
) Service {
	if opts.Network == "" {
		opts.Network = did.Mainnet
	}
	return &enrollmentService{
		extractor:   extractor,
		guard:       guard,
		store:       store,
		helperStore: helperStore,
		opts:        opts,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *enrollmentService) Generate(ctx context.Context, req *enrollment.GenerateRequest) (*enrollment.GenerateResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, apperrors.BadRequestError(err, "invalid enrollment request")
	}

	controller, err := s.resolveController(req)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	samples, err := req.Samples()
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, apperrors.BadRequestError(err, "invalid finger samples")
	}
	defer biometric.WipeSamples(samples)

	commitment, helpers, err := s.extractor.Generate(samples)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, apperrors.BadRequestError(err, "failed to derive identity key")
	}
	defer commitment.Wipe()

	identifier, err := did.Encode(commitment, s.opts.Network)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, apperrors.GeneralError(err)
	}

	check, err := s.guard.CheckUnique(ctx, identifier)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeRegistryUnavailable).Inc()
		return nil, apperrors.UnavailableError(err, "identity registry unavailable, enrollment cannot be finalized")
	}
	if !check.Unique {
		s.logger.Info("duplicate enrollment rejected", zap.String("did", identifier))
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return nil, apperrors.ConflictError(nil, "identity already enrolled")
	}

	byFinger := make(map[biometric.Finger]fuzzy.HelperDataEntry, len(helpers))
	for _, h := range helpers {
		byFinger[h.Finger] = h
	}

	storage, err := s.buildStorage(ctx, identifier, req.HelperStorage, byFinger)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	b, err := bundle.Build(identifier, storage, controller, s.now())
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, apperrors.GeneralError(err)
	}

	if err := s.store.Create(ctx, b); err != nil {
		s.discardExternalHelpers(ctx, identifier, storage)
		if errors.Is(err, bundlestore.ErrDuplicateDID) {
			metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil, apperrors.ConflictError(err, "identity already enrolled")
		}
		s.logger.Error("failed to persist bundle", zap.Error(err))
		metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, apperrors.GeneralError(err)
	}

	s.logger.Info("enrollment completed",
		zap.String("did", identifier),
		zap.Int("fingers", len(req.Fingers)),
		zap.String("helper_storage", string(storage.Mode())),
	)
	metrics.EnrollmentsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return &enrollment.GenerateResponse{DID: identifier, HelperData: byFinger, Metadata: b}, nil
}

// discardExternalHelpers removes helper data written ahead of a bundle
// create that did not go through, so no orphaned entry stays behind.
func (s *enrollmentService) discardExternalHelpers(ctx context.Context, identifier string, storage bundle.HelperStorage) {
	if storage.Mode() != bundle.StorageExternal || s.helperStore == nil {
		return
	}
	if err := s.helperStore.Delete(ctx, identifier); err != nil {
		s.logger.Warn("failed to remove orphaned helper data",
			zap.String("did", identifier),
			zap.Error(err),
		)
	}
}

// resolveController validates the controller proof when one is required and
// returns the canonical controller identifier.
func (s *enrollmentService) resolveController(req *enrollment.GenerateRequest) (string, error) {
	controller := auth.NormalizeController(req.Controller)

	if !auth.IsEVMController(controller) {
		return controller, nil
	}

	if req.Signature == "" || req.Message == "" {
		if s.opts.RequireControllerProof {
			return "", apperrors.UnAuthorizedError(nil, "controller signature and message required")
		}
		return controller, nil
	}

	recovered, err := auth.VerifyControllerProof(req.Message, req.Signature)
	if err != nil {
		return "", apperrors.UnAuthorizedError(err, "invalid controller signature")
	}
	if recovered != controller {
		return "", apperrors.UnAuthorizedError(nil, "signature does not match controller")
	}
	return controller, nil
}

// buildStorage places helper data inline or in the external store, per the
// requested mode. Inline is the default.
func (s *enrollmentService) buildStorage(ctx context.Context, identifier, mode string, byFinger map[biometric.Finger]fuzzy.HelperDataEntry) (bundle.HelperStorage, error) {
	if bundle.StorageMode(mode) == bundle.StorageExternal {
		if s.helperStore == nil {
			return bundle.HelperStorage{}, apperrors.BadRequestError(nil, "external helper storage is not configured")
		}
		uri, err := s.helperStore.Put(ctx, identifier, byFinger)
		if err != nil {
			s.logger.Error("failed to store helper data", zap.Error(err))
			return bundle.HelperStorage{}, apperrors.GeneralError(err)
		}
		storage, err := bundle.ExternalStorage(uri)
		if err != nil {
			return bundle.HelperStorage{}, apperrors.GeneralError(err)
		}
		return storage, nil
	}

	storage, err := bundle.InlineStorage(byFinger)
	if err != nil {
		return bundle.HelperStorage{}, apperrors.GeneralError(err)
	}
	return storage, nil
}
