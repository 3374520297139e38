package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ksred/klear-recon/internal/cache"
)

var (
	ErrAcquisition           = errors.New("snapshot acquisition failed")
	ErrProviderNotConfigured = errors.New("snapshot provider not configured")
)

// Service orchestrates a reconciliation run: it acquires both snapshots,
// runs the pure comparison pipeline and records the resulting artifact.
// All collaborators are injected; the service keeps no global state.
type Service struct {
	internal   InternalProvider
	custody    CustodyProvider
	documents  DocumentSource
	store      Store
	publisher  Publisher
	cache      *cache.Cache
	thresholds Thresholds
	now        func() time.Time
}

type Option func(*Service)

// WithPublisher announces every stored result through p
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCache serves GetResult from c before hitting the store
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithThresholds replaces DefaultThresholds as the base for overrides
func WithThresholds(t Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a reconciliation service. custody is the bank API
// provider and documents turns uploaded statements into providers; either
// may be nil when that entry point is not offered.
func NewService(internal InternalProvider, custody CustodyProvider, documents DocumentSource, store Store, opts ...Option) *Service {
	s := &Service{
		internal:   internal,
		custody:    custody,
		documents:  documents,
		store:      store,
		thresholds: DefaultThresholds,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReconcileSnapshots reconciles caller supplied snapshots without any
// acquisition step
func (s *Service) ReconcileSnapshots(ctx context.Context, fundID string, internal *InternalSnapshot, custody *CustodySnapshot, overrides Overrides) (*ReconciliationResult, error) {
	result, err := reconcileWith(fundID, internal, custody, s.thresholds.Merge(overrides), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileFromAPI reconciles the registry against positions pulled from
// the custodian bank API
func (s *Service) ReconcileFromAPI(ctx context.Context, fundID string, asOf time.Time, overrides Overrides) (*ReconciliationResult, error) {
	if s.custody == nil {
		return nil, fmt.Errorf("custody api: %w", ErrProviderNotConfigured)
	}
	return s.run(ctx, fundID, asOf, s.custody, overrides)
}

// ReconcileFromDocument reconciles the registry against a custody statement
// document passed through the extraction pipeline
func (s *Service) ReconcileFromDocument(ctx context.Context, fundID string, asOf time.Time, document []byte, filename string, overrides Overrides) (*ReconciliationResult, error) {
	if s.documents == nil {
		return nil, fmt.Errorf("custody document: %w", ErrProviderNotConfigured)
	}
	return s.run(ctx, fundID, asOf, s.documents.FromDocument(document, filename), overrides)
}

func (s *Service) run(ctx context.Context, fundID string, asOf time.Time, custodyProvider CustodyProvider, overrides Overrides) (*ReconciliationResult, error) {
	logger := log.With().
		Str("fund_id", fundID).
		Time("as_of", asOf).
		Str("service", "reconciliation").
		Logger()

	if s.internal == nil {
		return nil, fmt.Errorf("internal registry: %w", ErrProviderNotConfigured)
	}

	logger.Info().Msg("starting reconciliation")

	var (
		internal *InternalSnapshot
		custody  *CustodySnapshot
	)

	// Both reads are independent; the first failure cancels the other
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.internal.InternalSnapshot(gctx, fundID, asOf)
		if err != nil {
			return fmt.Errorf("%w: internal snapshot: %w", ErrAcquisition, err)
		}
		internal = snap
		return nil
	})
	g.Go(func() error {
		snap, err := custodyProvider.CustodySnapshot(gctx, fundID, asOf)
		if err != nil {
			return fmt.Errorf("%w: custody snapshot: %w", ErrAcquisition, err)
		}
		custody = snap
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to acquire snapshots")
		return nil, err
	}

	logger.Debug().
		Int("internal_holdings", len(internal.Holdings)).
		Int("custody_positions", len(custody.Positions)).
		Str("custody_source", string(custody.Source)).
		Msg("acquired snapshots")

	result, err := reconcileWith(fundID, internal, custody, s.thresholds.Merge(overrides), s.now())
	if err != nil {
		logger.Error().Err(err).Msg("reconciliation rejected snapshots")
		return nil, err
	}

	if err := s.record(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// record persists, caches and publishes a finished result. Persistence is
// mandatory for an audit artifact; publishing is best effort.
func (s *Service) record(ctx context.Context, result *ReconciliationResult) error {
	logger := log.With().
		Str("reconciliation_id", result.ID).
		Str("fund_id", result.FundID).
		Str("service", "reconciliation").
		Logger()

	if s.store != nil {
		if err := s.store.SaveResult(result); err != nil {
			logger.Error().Err(err).Msg("failed to store reconciliation result")
			return fmt.Errorf("failed to store reconciliation result: %w", err)
		}
	}

	s.cacheResult(result)

	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, result); err != nil {
			logger.Warn().Err(err).Msg("failed to publish reconciliation result")
		}
	}

	logger.Info().
		Str("overall_status", string(result.Summary.OverallStatus)).
		Int("positions", result.Summary.TotalPositions).
		Int("major_diffs", result.Summary.MajorDiffPositions).
		Int("minor_diffs", result.Summary.MinorDiffPositions).
		Str("cash_status", string(result.CashComparison.Status)).
		Float64("total_value_difference", result.Summary.TotalValueDifference).
		Msg("reconciliation completed")

	return nil
}

// GetResult retrieves a stored reconciliation result by ID. Each call returns
// its own copy, so callers may modify it without touching the cached result.
func (s *Service) GetResult(reconciliationID string) (*ReconciliationResult, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(cache.ResultKey(reconciliationID)); ok {
			if payload, ok := v.([]byte); ok {
				if result, err := decodeResult(payload); err == nil {
					return result, nil
				}
			}
		}
	}
	if s.store == nil {
		return nil, fmt.Errorf("result store: %w", ErrProviderNotConfigured)
	}

	result, err := s.store.GetResult(reconciliationID)
	if err != nil {
		return nil, err
	}
	s.cacheResult(result)
	return result, nil
}

// cacheResult keeps the encoded payload rather than the pointer handed to
// callers
func (s *Service) cacheResult(result *ReconciliationResult) {
	if s.cache == nil {
		return
	}
	payload, err := encodeResult(result)
	if err != nil {
		log.Warn().Err(err).Str("reconciliation_id", result.ID).Msg("failed to cache result")
		return
	}
	s.cache.Set(cache.ResultKey(result.ID), payload)
}

// ListResults retrieves the most recent runs for a fund
func (s *Service) ListResults(fundID string, limit int) ([]ReconciliationRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("result store: %w", ErrProviderNotConfigured)
	}
	return s.store.ListResults(fundID, limit)
}
