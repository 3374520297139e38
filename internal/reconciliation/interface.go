package reconciliation

import (
	"context"
	"time"
)

// InternalProvider supplies the fund registry snapshot.
//
//go:generate mockgen -destination=mocks/mock_providers.go -package=mocks -source=interface.go
type InternalProvider interface {
	InternalSnapshot(ctx context.Context, fundID string, asOf time.Time) (*InternalSnapshot, error)
}

// CustodyProvider supplies the custodian view of a fund. Each acquisition
// path (bank API, extracted statement document) implements it.
type CustodyProvider interface {
	CustodySnapshot(ctx context.Context, fundID string, asOf time.Time) (*CustodySnapshot, error)
}

// DocumentSource builds a custody provider for a single uploaded statement
type DocumentSource interface {
	FromDocument(document []byte, filename string) CustodyProvider
}

// Store persists results as audit artifacts
type Store interface {
	SaveResult(result *ReconciliationResult) error
	GetResult(reconciliationID string) (*ReconciliationResult, error)
	ListResults(fundID string, limit int) ([]ReconciliationRecord, error)
}

// Publisher announces completed reconciliations to downstream consumers
type Publisher interface {
	PublishResult(ctx context.Context, result *ReconciliationResult) error
}
