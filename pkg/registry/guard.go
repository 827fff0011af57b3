package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/morphid/biodid-middleware/internal/metrics"
)

const defaultLookupTimeout = 5 * time.Second

// CheckResult is the outcome of a uniqueness check. When Unique is false,
// Existing carries the record already bound to the DID.
type CheckResult struct {
	Unique   bool
	Existing *Record
}

// Guard performs the pre-enrollment duplicate check against the registry.
type Guard struct {
	registry Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewGuard creates a guard around the given registry capability. A
// non-positive timeout falls back to the default.
func NewGuard(reg Registry, timeout time.Duration, logger *zap.Logger) *Guard {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{registry: reg, timeout: timeout, logger: logger}
}

// CheckUnique queries the registry for an existing record bound to the DID.
// Registry failures, including timeouts, surface as ErrUnavailable so callers
// can retry with backoff; they are never reported as uniqueness.
func (g *Guard) CheckUnique(ctx context.Context, did string) (*CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	record, err := g.registry.Lookup(ctx, did)
	metrics.RegistryLookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrNotFound):
		return &CheckResult{Unique: true}, nil
	case err != nil:
		g.logger.Warn("registry lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	g.logger.Info("duplicate DID detected", zap.String("did", did))
	return &CheckResult{Unique: false, Existing: record}, nil
}
