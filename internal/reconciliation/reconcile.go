package reconciliation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ksred/klear-recon/pkg/id"
)

var (
	ErrMissingSnapshot   = errors.New("snapshot is missing")
	ErrDuplicateSecurity = errors.New("duplicate security identifier in snapshot")
	ErrCurrencyMismatch  = errors.New("snapshot currencies differ")
	ErrInvalidSource     = errors.New("unknown custody snapshot source")
)

// Reconcile compares two already materialised snapshots of the same fund.
// A non-nil error means the run could not happen; discrepancies of any
// severity are reported through the returned result.
func Reconcile(fundID string, internal *InternalSnapshot, custody *CustodySnapshot, overrides Overrides, now time.Time) (*ReconciliationResult, error) {
	thresholds := DefaultThresholds.Merge(overrides)
	return reconcileWith(fundID, internal, custody, thresholds, now)
}

func reconcileWith(fundID string, internal *InternalSnapshot, custody *CustodySnapshot, thresholds Thresholds, now time.Time) (*ReconciliationResult, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSnapshots(internal, custody); err != nil {
		return nil, err
	}

	currency := internal.Currency
	if currency == "" {
		currency = custody.Currency
	}

	positions := ComparePositions(internal.Holdings, custody.Positions, thresholds)
	cash := CompareCash(internal.CashBalance, custody.CashBalance, currency, thresholds)
	summary := Summarize(positions, cash, totalValue(internal.Holdings, internal.CashBalance), totalValue(custody.Positions, custody.CashBalance))
	flags := GenerateFlags(positions, cash, summary)

	internalSource := internal.Source
	if internalSource == "" {
		internalSource = "REGISTRY"
	}

	return &ReconciliationResult{
		ID:                 id.New(),
		FundID:             fundID,
		FundName:           internal.FundName,
		ReconciliationDate: internal.AsOfDate,
		GeneratedAt:        now.UTC(),
		Sources: Sources{
			Internal: SourceInfo{
				Source:      internalSource,
				Timestamp:   internal.Timestamp,
				RecordCount: len(internal.Holdings),
			},
			Custody: SourceInfo{
				Source:      string(custody.Source),
				Timestamp:   custody.Timestamp,
				RecordCount: len(custody.Positions),
			},
		},
		Summary:        summary,
		CashComparison: cash,
		Positions:      positions,
		Flags:          flags,
	}, nil
}

// ValidateSnapshots rejects inputs the comparators cannot reconcile
// faithfully or the result could not attribute: absent snapshots, mixed
// base currencies, an unknown custody source and repeated security
// identifiers within one side.
func ValidateSnapshots(internal *InternalSnapshot, custody *CustodySnapshot) error {
	if internal == nil {
		return fmt.Errorf("internal: %w", ErrMissingSnapshot)
	}
	if custody == nil {
		return fmt.Errorf("custody: %w", ErrMissingSnapshot)
	}
	if internal.Currency != "" && custody.Currency != "" &&
		!strings.EqualFold(internal.Currency, custody.Currency) {
		return fmt.Errorf("%w: internal %s, custody %s", ErrCurrencyMismatch, internal.Currency, custody.Currency)
	}
	if !custody.Source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, custody.Source)
	}
	if err := checkUnique("internal", internal.Holdings); err != nil {
		return err
	}
	return checkUnique("custody", custody.Positions)
}

func checkUnique(side string, positions []Position) error {
	seen := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.SecurityID]; ok {
			return fmt.Errorf("%s: %w: %s", side, ErrDuplicateSecurity, p.SecurityID)
		}
		seen[p.SecurityID] = struct{}{}
	}
	return nil
}

// totalValue is the NAV of a snapshot: sourced market values plus cash
func totalValue(positions []Position, cash float64) float64 {
	total := cash
	for _, p := range positions {
		total += p.MarketValue
	}
	return total
}
