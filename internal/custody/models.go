package custody

import (
	"github.com/shopspring/decimal"
)

// tokenResponse is the bank OAuth client-credentials reply
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// positionsResponse is the bank custody positions payload
type positionsResponse struct {
	AccountID string         `json:"account_id"`
	Currency  string         `json:"currency"`
	AsOf      string         `json:"as_of"`
	Positions []bankPosition `json:"positions"`
}

type bankPosition struct {
	ISIN        string          `json:"isin"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	MarketValue decimal.Decimal `json:"market_value"`
	Currency    string          `json:"currency"`
}

type balancesResponse struct {
	AccountID string        `json:"account_id"`
	AsOf      string        `json:"as_of"`
	Balances  []bankBalance `json:"balances"`
}

type bankBalance struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// ExtractedStatement is the structured output of the document extraction
// pipeline. Figures are kept as the text read from the statement.
type ExtractedStatement struct {
	AccountID     string              `json:"account_id"`
	Currency      string              `json:"currency"`
	StatementDate string              `json:"statement_date"`
	CashBalance   string              `json:"cash_balance"`
	Positions     []ExtractedPosition `json:"positions"`
}

type ExtractedPosition struct {
	SecurityID  string `json:"security_id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	MarketValue string `json:"market_value"`
	Currency    string `json:"currency"`
}
