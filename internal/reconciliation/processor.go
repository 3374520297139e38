package reconciliation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// FundLister names the funds the scheduled processor reconciles
type FundLister interface {
	ActiveFundIDs(ctx context.Context) ([]string, error)
}

// Processor periodically reconciles every active fund against the bank API
type Processor struct {
	service  *Service
	funds    FundLister
	interval time.Duration
	now      func() time.Time
}

func NewProcessor(service *Service, funds FundLister, interval time.Duration) *Processor {
	return &Processor{
		service:  service,
		funds:    funds,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the reconciliation loop until ctx is cancelled
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "reconciliation_processor").Logger()
	logger.Info().Dur("interval", p.interval).Msg("starting reconciliation processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down reconciliation processor")
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to run scheduled reconciliations")
			}
		}
	}
}

// RunOnce reconciles each active fund for today's date. A failing fund is
// logged and skipped so the others still run. It returns the number of
// completed runs.
func (p *Processor) RunOnce(ctx context.Context) (int, error) {
	logger := log.With().Str("component", "reconciliation_processor").Logger()

	fundIDs, err := p.funds.ActiveFundIDs(ctx)
	if err != nil {
		return 0, err
	}

	asOf, _ := ParseAsOf("", p.now())
	logger.Info().Int("fund_count", len(fundIDs)).Time("as_of", asOf).Msg("processing scheduled reconciliations")

	completed := 0
	for _, fundID := range fundIDs {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}

		result, err := p.service.ReconcileFromAPI(ctx, fundID, asOf, Overrides{})
		if err != nil {
			logger.Error().
				Err(err).
				Str("fund_id", fundID).
				Msg("scheduled reconciliation could not run")
			continue
		}

		completed++
		if result.Summary.OverallStatus != OverallApproved {
			logger.Warn().
				Str("fund_id", fundID).
				Str("reconciliation_id", result.ID).
				Str("overall_status", string(result.Summary.OverallStatus)).
				Msg("reconciliation requires attention")
		}
	}

	return completed, nil
}
