// Package service exposes biometric verification over HTTP: fresh samples
// plus public helper data in, a match decision against an expected DID out.
// Samples are wiped on every exit path and never persisted.
package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/morphid/biodid-middleware/internal/metrics"
	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/enrollment"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
	"github.com/morphid/biodid-middleware/pkg/helperstore"
	"github.com/morphid/biodid-middleware/pkg/verifier"
)

// VerifyRequest represents a verification request. Helper data arrives either
// inline or as the URI issued at enrollment, never both.
type VerifyRequest struct {
	ExpectedDID string                     `json:"expectedDid" validate:"required"`
	Fingers     []enrollment.FingerPayload `json:"fingers" validate:"required,min=1,max=10,dive"`
	HelperData  []fuzzy.HelperDataEntry    `json:"helperData,omitempty"`
	HelperURI   string                     `json:"helperUri,omitempty"`
}

// VerifyResponse represents a verification response.
type VerifyResponse struct {
	Match            bool               `json:"match"`
	Reason           string             `json:"reason,omitempty"`
	MatchedFingers   []biometric.Finger `json:"matchedFingers"`
	UnmatchedFingers []biometric.Finger `json:"unmatchedFingers"`
}

// HelperStore resolves externally stored helper data by URI.
type HelperStore interface {
	Get(ctx context.Context, uri string) (map[biometric.Finger]fuzzy.HelperDataEntry, error)
}

// Service defines the interface for the verification business logic
type Service interface {
	Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error)
}

type verificationService struct {
	verifier    *verifier.Verifier
	helperStore HelperStore
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewService creates a new verification service. helperStore may be nil when
// external helper storage is not configured.
func NewService(v *verifier.Verifier, helperStore HelperStore, logger *zap.Logger) Service {
	return &verificationService{
		verifier:    v,
		helperStore: helperStore,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (s *verificationService) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeInvalid, "").Inc()
		return nil, apperrors.BadRequestError(err, "invalid verification request")
	}

	helpers, err := s.resolveHelpers(ctx, req)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeInvalid, "").Inc()
		return nil, err
	}

	wireReq := enrollment.GenerateRequest{Fingers: req.Fingers}
	samples, err := wireReq.Samples()
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeInvalid, "").Inc()
		return nil, apperrors.BadRequestError(err, "invalid finger samples")
	}
	defer biometric.WipeSamples(samples)

	result, err := s.verifier.Verify(samples, helpers, req.ExpectedDID)
	if err != nil {
		if errors.Is(err, verifier.ErrInvalidExpectedDID) {
			metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeInvalid, "").Inc()
			return nil, apperrors.BadRequestError(err, "expected DID is malformed")
		}
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeError, "").Inc()
		return nil, apperrors.GeneralError(err)
	}

	outcome := metrics.OutcomeSuccess
	if !result.Matched {
		outcome = metrics.OutcomeNoMatch
	}
	metrics.VerificationsTotal.WithLabelValues(outcome, string(result.Reason)).Inc()
	metrics.MatchedFingers.Observe(float64(len(result.MatchedFingers)))

	s.logger.Info("verification completed",
		zap.Bool("match", result.Matched),
		zap.Int("matched_fingers", len(result.MatchedFingers)),
		zap.String("reason", string(result.Reason)),
	)

	return &VerifyResponse{
		Match:            result.Matched,
		Reason:           string(result.Reason),
		MatchedFingers:   result.MatchedFingers,
		UnmatchedFingers: result.UnmatchedFingers,
	}, nil
}

// resolveHelpers loads helper entries from the request or the external store.
func (s *verificationService) resolveHelpers(ctx context.Context, req *VerifyRequest) ([]fuzzy.HelperDataEntry, error) {
	if len(req.HelperData) > 0 && req.HelperURI != "" {
		return nil, apperrors.BadRequestError(nil, "helper data and helper URI are mutually exclusive")
	}
	if len(req.HelperData) > 0 {
		return req.HelperData, nil
	}
	if req.HelperURI == "" {
		return nil, apperrors.BadRequestError(nil, "helper data or helper URI is required")
	}
	if s.helperStore == nil {
		return nil, apperrors.BadRequestError(nil, "external helper storage is not configured")
	}

	byFinger, err := s.helperStore.Get(ctx, req.HelperURI)
	if err != nil {
		if errors.Is(err, helperstore.ErrNotFound) || errors.Is(err, helperstore.ErrInvalidURI) {
			return nil, apperrors.BadRequestError(err, "helper data reference cannot be resolved")
		}
		s.logger.Error("failed to load helper data", zap.Error(err))
		return nil, apperrors.GeneralError(err)
	}

	helpers := make([]fuzzy.HelperDataEntry, 0, len(byFinger))
	for _, h := range byFinger {
		helpers = append(helpers, h)
	}
	return helpers, nil
}
