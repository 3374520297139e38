package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrFundNotFound     = fmt.Errorf("fund not found: %w", gorm.ErrRecordNotFound)
	ErrSnapshotNotFound = fmt.Errorf("registry snapshot not found: %w", gorm.ErrRecordNotFound)
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// WithContext scopes subsequent queries to ctx
func (d *Database) WithContext(ctx context.Context) *Database {
	return &Database{db: d.db.WithContext(ctx)}
}

func (d *Database) GetFund(fundID string) (*Fund, error) {
	var fund Fund
	if err := d.db.Where("fund_id = ?", fundID).First(&fund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFundNotFound, fundID)
		}
		return nil, err
	}
	return &fund, nil
}

// UpsertFund creates the fund or updates its descriptive fields
func (d *Database) UpsertFund(fund *Fund) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fund_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fund_name", "currency", "custody_account_id", "active", "updated_at"}),
	}).Create(fund).Error
}

func (d *Database) GetActiveFundIDs() ([]string, error) {
	var ids []string
	if err := d.db.Model(&Fund{}).
		Where("active = ?", true).
		Order("fund_id").
		Pluck("fund_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// LatestSnapshotDate finds the most recent recorded date on or before asOf
func (d *Database) LatestSnapshotDate(fundID string, asOf time.Time) (string, error) {
	var cash CashBalance
	if err := d.db.Where("fund_id = ? AND as_of_date <= ?", fundID, asOf.Format(time.DateOnly)).
		Order("as_of_date DESC").
		First(&cash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s on or before %s", ErrSnapshotNotFound, fundID, asOf.Format(time.DateOnly))
		}
		return "", err
	}
	return cash.AsOfDate, nil
}

func (d *Database) GetHoldings(fundID, asOfDate string) ([]Holding, error) {
	var holdings []Holding
	if err := d.db.Where("fund_id = ? AND as_of_date = ?", fundID, asOfDate).
		Order("id").
		Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

func (d *Database) GetCashBalance(fundID, asOfDate string) (*CashBalance, error) {
	var cash CashBalance
	if err := d.db.Where("fund_id = ? AND as_of_date = ?", fundID, asOfDate).First(&cash).Error; err != nil {
		return nil, err
	}
	return &cash, nil
}

// ReplaceSnapshot swaps the holdings and cash recorded for one date in a
// single transaction
func (d *Database) ReplaceSnapshot(fundID, asOfDate string, holdings []Holding, cash *CashBalance) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("fund_id = ? AND as_of_date = ?", fundID, asOfDate).
			Delete(&Holding{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().
			Where("fund_id = ? AND as_of_date = ?", fundID, asOfDate).
			Delete(&CashBalance{}).Error; err != nil {
			return err
		}
		if len(holdings) > 0 {
			if err := tx.Create(&holdings).Error; err != nil {
				return err
			}
		}
		return tx.Create(cash).Error
	})
}
