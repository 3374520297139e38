package reconciliation

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// SaveResult stores the result verbatim as JSON plus its query columns
func (d *Database) SaveResult(result *ReconciliationResult) error {
	payload, err := encodeResult(result)
	if err != nil {
		return err
	}

	record := &ReconciliationRecord{
		ReconciliationID:   result.ID,
		FundID:             result.FundID,
		ReconciliationDate: result.ReconciliationDate,
		OverallStatus:      result.Summary.OverallStatus,
		CustodySource:      result.Sources.Custody.Source,
		Payload:            string(payload),
		GeneratedAt:        result.GeneratedAt,
	}
	return d.db.Create(record).Error
}

func (d *Database) GetRecord(reconciliationID string) (*ReconciliationRecord, error) {
	var record ReconciliationRecord
	if err := d.db.Where("reconciliation_id = ?", reconciliationID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetResult loads a stored result and decodes its payload
func (d *Database) GetResult(reconciliationID string) (*ReconciliationResult, error) {
	record, err := d.GetRecord(reconciliationID)
	if err != nil {
		return nil, err
	}

	return decodeResult([]byte(record.Payload))
}

// ListResults returns the newest records for a fund first
func (d *Database) ListResults(fundID string, limit int) ([]ReconciliationRecord, error) {
	var records []ReconciliationRecord
	query := d.db.Where("fund_id = ?", fundID).Order("generated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// encodeResult produces the payload form of a result, shared by the store
// and the result cache
func encodeResult(result *ReconciliationResult) ([]byte, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result %s: %w", result.ID, err)
	}
	return payload, nil
}

// decodeResult restores a result from its payload. Statuses are parsed so a
// payload written with an unknown status is rejected rather than served.
func decodeResult(payload []byte) (*ReconciliationResult, error) {
	var result ReconciliationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}

	for i := range result.Positions {
		row := &result.Positions[i]
		st, ok := ParseStatus(string(row.Status))
		if !ok {
			return nil, fmt.Errorf("stored result %s: position %s has unknown status %q", result.ID, row.SecurityID, row.Status)
		}
		row.Status = st
	}

	st, ok := ParseStatus(string(result.CashComparison.Status))
	if !ok {
		return nil, fmt.Errorf("stored result %s: unknown cash status %q", result.ID, result.CashComparison.Status)
	}
	result.CashComparison.Status = st

	if result.Summary.OverallStatus.rank() < 0 {
		return nil, fmt.Errorf("stored result %s: unknown overall status %q", result.ID, result.Summary.OverallStatus)
	}
	return &result, nil
}
