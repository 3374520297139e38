package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/klear-recon/internal/reconciliation"
	"github.com/ksred/klear-recon/pkg/response"
)

const sourceName = "REGISTRY"

var ErrInvalidSnapshot = errors.New("invalid registry snapshot")

var (
	_ reconciliation.InternalProvider = (*Service)(nil)
	_ reconciliation.FundLister       = (*Service)(nil)
)

// Service exposes the fund registry as the internal snapshot provider
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// InternalSnapshot assembles the registry view of a fund as of the latest
// recorded date on or before asOf
func (s *Service) InternalSnapshot(ctx context.Context, fundID string, asOf time.Time) (*reconciliation.InternalSnapshot, error) {
	logger := log.With().
		Str("fund_id", fundID).
		Str("service", "registry").
		Logger()

	db := s.db.WithContext(ctx)

	fund, err := db.GetFund(fundID)
	if err != nil {
		return nil, err
	}

	snapshotDate, err := db.LatestSnapshotDate(fundID, asOf)
	if err != nil {
		return nil, err
	}

	holdings, err := db.GetHoldings(fundID, snapshotDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holdings: %w", err)
	}

	cash, err := db.GetCashBalance(fundID, snapshotDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cash balance: %w", err)
	}

	date, err := time.Parse(time.DateOnly, snapshotDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot date %q: %w", snapshotDate, err)
	}

	positions := make([]reconciliation.Position, 0, len(holdings))
	for _, h := range holdings {
		positions = append(positions, reconciliation.Position{
			SecurityID:     h.SecurityID,
			InstrumentName: h.InstrumentName,
			Quantity:       h.Quantity,
			UnitPrice:      h.UnitPrice,
			MarketValue:    h.MarketValue,
			Currency:       h.Currency,
		})
	}

	logger.Debug().
		Str("snapshot_date", snapshotDate).
		Int("holdings", len(positions)).
		Float64("cash_balance", cash.Amount).
		Msg("loaded registry snapshot")

	return &reconciliation.InternalSnapshot{
		FundID:      fund.FundID,
		FundName:    fund.FundName,
		Currency:    fund.Currency,
		AsOfDate:    date,
		Holdings:    positions,
		CashBalance: cash.Amount,
		Source:      sourceName,
		Timestamp:   cash.RecordedAt,
	}, nil
}

// CustodyAccount returns the custodian account mapped to a fund
func (s *Service) CustodyAccount(ctx context.Context, fundID string) (string, error) {
	fund, err := s.db.WithContext(ctx).GetFund(fundID)
	if err != nil {
		return "", err
	}
	if fund.CustodyAccountID == "" {
		return "", fmt.Errorf("fund %s has no custody account", fundID)
	}
	return fund.CustodyAccountID, nil
}

func (s *Service) ActiveFundIDs(ctx context.Context) ([]string, error) {
	return s.db.WithContext(ctx).GetActiveFundIDs()
}

// UpsertFund registers or updates a fund
func (s *Service) UpsertFund(ctx context.Context, fund *Fund) error {
	fund.Currency = strings.ToUpper(fund.Currency)
	fund.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).UpsertFund(fund)
}

// SnapshotRequest is the registry content for one fund and date
type SnapshotRequest struct {
	AsOf        string                    `json:"as_of" binding:"required"`
	CashBalance float64                   `json:"cash_balance"`
	Holdings    []reconciliation.Position `json:"holdings"`
}

// RecordSnapshot replaces the holdings and cash recorded for a date
func (s *Service) RecordSnapshot(ctx context.Context, fundID string, req SnapshotRequest) error {
	db := s.db.WithContext(ctx)

	fund, err := db.GetFund(fundID)
	if err != nil {
		return err
	}

	date, err := time.Parse(time.DateOnly, req.AsOf)
	if err != nil {
		return fmt.Errorf("%w: as_of must be YYYY-MM-DD", ErrInvalidSnapshot)
	}
	asOfDate := date.Format(time.DateOnly)

	seen := make(map[string]bool, len(req.Holdings))
	holdings := make([]Holding, 0, len(req.Holdings))
	for _, p := range req.Holdings {
		if p.SecurityID == "" {
			return fmt.Errorf("%w: holding without security id", ErrInvalidSnapshot)
		}
		if seen[p.SecurityID] {
			return fmt.Errorf("%w: duplicate security %s", ErrInvalidSnapshot, p.SecurityID)
		}
		seen[p.SecurityID] = true

		currency := p.Currency
		if currency == "" {
			currency = fund.Currency
		}
		holdings = append(holdings, Holding{
			FundID:         fundID,
			AsOfDate:       asOfDate,
			SecurityID:     p.SecurityID,
			InstrumentName: p.InstrumentName,
			Quantity:       p.Quantity,
			UnitPrice:      p.UnitPrice,
			MarketValue:    p.MarketValue,
			Currency:       currency,
		})
	}

	cash := &CashBalance{
		FundID:     fundID,
		AsOfDate:   asOfDate,
		Currency:   fund.Currency,
		Amount:     req.CashBalance,
		RecordedAt: time.Now().UTC(),
	}

	if err := db.ReplaceSnapshot(fundID, asOfDate, holdings, cash); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	log.Info().
		Str("fund_id", fundID).
		Str("as_of", asOfDate).
		Int("holdings", len(holdings)).
		Str("service", "registry").
		Msg("recorded registry snapshot")

	return nil
}

// GinHandlers contains HTTP handlers for registry endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// UpsertFundHandler handles PUT requests registering a fund.
// URL parameter: fund_id
func (h *GinHandlers) UpsertFundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var fund Fund
		if err := c.ShouldBindJSON(&fund); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		fund.FundID = c.Param("fund_id")
		if fund.Currency == "" {
			response.BadRequest(c, "currency is required")
			return
		}

		err := h.service.UpsertFund(c.Request.Context(), &fund)
		response.Handle(c, fund, err)
	}
}

// RecordSnapshotHandler handles PUT requests replacing a dated snapshot.
// URL parameter: fund_id
func (h *GinHandlers) RecordSnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SnapshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.RecordSnapshot(c.Request.Context(), c.Param("fund_id"), req)
		if errors.Is(err, ErrInvalidSnapshot) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"message": "snapshot recorded"}, err)
	}
}

// GetSnapshotHandler handles GET requests for the registry snapshot.
// URL parameter: fund_id, query parameter: as_of
func (h *GinHandlers) GetSnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf, err := reconciliation.ParseAsOf(c.Query("as_of"), time.Now())
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		snapshot, err := h.service.InternalSnapshot(c.Request.Context(), c.Param("fund_id"), asOf)
		response.Handle(c, snapshot, err)
	}
}
