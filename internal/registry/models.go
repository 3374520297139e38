package registry

import (
	"time"

	"gorm.io/gorm"
)

// Fund is a fund administered in the internal registry
type Fund struct {
	gorm.Model       `json:"-"`
	FundID           string    `gorm:"uniqueIndex" json:"fund_id"`
	FundName         string    `json:"fund_name"`
	Currency         string    `json:"currency"`
	CustodyAccountID string    `json:"custody_account_id"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Holding is one security position recorded for a fund on a date.
// AsOfDate is stored as YYYY-MM-DD so date lookups compare lexically.
type Holding struct {
	gorm.Model     `json:"-"`
	FundID         string  `gorm:"index:idx_holdings_fund_date" json:"fund_id"`
	AsOfDate       string  `gorm:"index:idx_holdings_fund_date" json:"as_of_date"`
	SecurityID     string  `json:"security_id"`
	InstrumentName string  `json:"instrument_name"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	MarketValue    float64 `json:"market_value"`
	Currency       string  `json:"currency"`
}

// CashBalance is the fund's recorded cash in its base currency on a date
type CashBalance struct {
	gorm.Model `json:"-"`
	FundID     string    `gorm:"uniqueIndex:idx_cash_fund_date" json:"fund_id"`
	AsOfDate   string    `gorm:"uniqueIndex:idx_cash_fund_date" json:"as_of_date"`
	Currency   string    `json:"currency"`
	Amount     float64   `json:"amount"`
	RecordedAt time.Time `json:"recorded_at"`
}
