package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ksred/klear-recon/internal/database/migrations"
	"github.com/ksred/klear-recon/internal/registry"
)

// NewDatabase opens the sqlite database at path and migrates every schema.
// Use ":memory:" for an ephemeral database.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates all tables and indexes
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&registry.Fund{},
		&registry.Holding{},
		&registry.CashBalance{},
	)
	if err != nil {
		return err
	}

	if err := migrations.AddReconciliationRecords(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
