package reconciliation

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Status classifies a single position or cash comparison
type Status string

const (
	StatusMatch           Status = "MATCH"
	StatusMinorDiff       Status = "MINOR_DIFF"
	StatusMajorDiff       Status = "MAJOR_DIFF"
	StatusMissingInternal Status = "MISSING_INTERNAL"
	StatusMissingCustody  Status = "MISSING_CUSTODY"
)

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	switch s {
	case StatusMatch, StatusMinorDiff, StatusMajorDiff, StatusMissingInternal, StatusMissingCustody:
		return true
	default:
		return false
	}
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", false
	}
	return st, true
}

// OverallStatus is the single approval gate of a reconciliation run
type OverallStatus string

const (
	OverallApproved       OverallStatus = "APPROVED"
	OverallReviewRequired OverallStatus = "REVIEW_REQUIRED"
	OverallFailed         OverallStatus = "FAILED"
)

// rank orders overall statuses so escalation can be checked as a comparison
func (o OverallStatus) rank() int {
	switch o {
	case OverallApproved:
		return 0
	case OverallReviewRequired:
		return 1
	case OverallFailed:
		return 2
	default:
		return -1
	}
}

type FlagLevel string

const (
	FlagInfo    FlagLevel = "INFO"
	FlagWarning FlagLevel = "WARNING"
	FlagError   FlagLevel = "ERROR"
)

// CustodySource names the acquisition path of a custody snapshot
type CustodySource string

const (
	SourceAPI      CustodySource = "API"
	SourceDocument CustodySource = "DOCUMENT"
)

func (s CustodySource) Valid() bool {
	return s == SourceAPI || s == SourceDocument
}

// Position is a single security holding as reported by one snapshot.
// MarketValue is taken from the source and never recomputed.
type Position struct {
	SecurityID     string  `json:"securityId" yaml:"security_id"`
	InstrumentName string  `json:"instrumentName" yaml:"instrument_name"`
	Quantity       float64 `json:"quantity" yaml:"quantity"`
	UnitPrice      float64 `json:"unitPrice" yaml:"unit_price"`
	MarketValue    float64 `json:"marketValue" yaml:"market_value"`
	Currency       string  `json:"currency" yaml:"currency"`
}

// InternalSnapshot is the fund registry view of holdings and cash
type InternalSnapshot struct {
	FundID      string     `json:"fundId"`
	FundName    string     `json:"fundName"`
	Currency    string     `json:"currency"`
	AsOfDate    time.Time  `json:"asOfDate"`
	Holdings    []Position `json:"holdings"`
	CashBalance float64    `json:"cashBalance"`
	Source      string     `json:"source,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// CustodySnapshot is the custodian bank view of the same fund, already
// normalised from whichever acquisition path produced it
type CustodySnapshot struct {
	AccountID   string        `json:"accountId"`
	Currency    string        `json:"currency"`
	AsOfDate    time.Time     `json:"asOfDate"`
	Source      CustodySource `json:"source"`
	Positions   []Position    `json:"positions"`
	CashBalance float64       `json:"cashBalance"`
	Timestamp   time.Time     `json:"timestamp"`
}

// PositionSide holds the figures reported by one side of a comparison
type PositionSide struct {
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	MarketValue float64 `json:"marketValue"`
}

// PositionComparison is one row per distinct security identifier.
// A nil Internal or Custody side means the security is absent there.
type PositionComparison struct {
	SecurityID          string        `json:"securityId"`
	InstrumentName      string        `json:"instrumentName"`
	Currency            string        `json:"currency"`
	Internal            *PositionSide `json:"internal"`
	Custody             *PositionSide `json:"custody"`
	QuantityDiff        float64       `json:"quantityDiff"`
	QuantityDiffPercent float64       `json:"quantityDiffPercent"`
	PriceDiff           float64       `json:"priceDiff"`
	PriceDiffPercent    float64       `json:"priceDiffPercent"`
	ValueDiff           float64       `json:"valueDiff"`
	ValueDiffPercent    float64       `json:"valueDiffPercent"`
	Status              Status        `json:"status"`
	Flags               []string      `json:"flags"`
}

type CashComparison struct {
	Currency          string   `json:"currency"`
	InternalBalance   float64  `json:"internalBalance"`
	CustodyBalance    float64  `json:"custodyBalance"`
	Difference        float64  `json:"difference"`
	DifferencePercent float64  `json:"differencePercent"`
	Status            Status   `json:"status"`
	Flags             []string `json:"flags"`
}

type Summary struct {
	TotalPositions              int           `json:"totalPositions"`
	MatchedPositions            int           `json:"matchedPositions"`
	MinorDiffPositions          int           `json:"minorDiffPositions"`
	MajorDiffPositions          int           `json:"majorDiffPositions"`
	MissingInInternal           int           `json:"missingInInternal"`
	MissingInCustody            int           `json:"missingInCustody"`
	InternalTotalValue          float64       `json:"internalTotalValue"`
	CustodyTotalValue           float64       `json:"custodyTotalValue"`
	TotalValueDifference        float64       `json:"totalValueDifference"`
	TotalValueDifferencePercent float64       `json:"totalValueDifferencePercent"`
	OverallStatus               OverallStatus `json:"overallStatus"`
}

type Flag struct {
	Level   FlagLevel `json:"level"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// SourceInfo records where a snapshot came from for audit traceability
type SourceInfo struct {
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"recordCount"`
}

type Sources struct {
	Internal SourceInfo `json:"internal"`
	Custody  SourceInfo `json:"custody"`
}

// ReconciliationResult is the immutable audit artifact of one run. Positions
// are ordered by descending absolute value difference.
type ReconciliationResult struct {
	ID                 string               `json:"id"`
	FundID             string               `json:"fundId"`
	FundName           string               `json:"fundName"`
	ReconciliationDate time.Time            `json:"reconciliationDate"`
	GeneratedAt        time.Time            `json:"generatedAt"`
	Sources            Sources              `json:"sources"`
	Summary            Summary              `json:"summary"`
	CashComparison     CashComparison       `json:"cashComparison"`
	Positions          []PositionComparison `json:"positions"`
	Flags              []Flag               `json:"flags"`
}

// ReconciliationRecord persists a result verbatim alongside the columns
// needed to query it
type ReconciliationRecord struct {
	gorm.Model         `json:"-"`
	ReconciliationID   string        `gorm:"uniqueIndex" json:"reconciliation_id"`
	FundID             string        `gorm:"index" json:"fund_id"`
	ReconciliationDate time.Time     `json:"reconciliation_date"`
	OverallStatus      OverallStatus `json:"overall_status"`
	CustodySource      string        `json:"custody_source"`
	Payload            string        `json:"-"`
	GeneratedAt        time.Time     `json:"generated_at"`
}
