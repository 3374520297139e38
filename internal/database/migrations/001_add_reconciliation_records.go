package migrations

import (
	"github.com/ksred/klear-recon/internal/reconciliation"
	"gorm.io/gorm"
)

// AddReconciliationRecords creates the result store table and the indexes
// used by history queries
func AddReconciliationRecords(db *gorm.DB) error {
	if err := db.AutoMigrate(&reconciliation.ReconciliationRecord{}); err != nil {
		return err
	}

	indexes := []string{
		// History of a fund, newest first
		`CREATE INDEX IF NOT EXISTS idx_reconciliation_records_fund_generated
		 ON reconciliation_records(fund_id, generated_at)`,

		// Open items: runs that were not approved
		`CREATE INDEX IF NOT EXISTS idx_reconciliation_records_status
		 ON reconciliation_records(overall_status)`,

		`CREATE INDEX IF NOT EXISTS idx_reconciliation_records_date
		 ON reconciliation_records(reconciliation_date)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
