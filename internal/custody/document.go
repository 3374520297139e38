package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ksred/klear-recon/internal/reconciliation"
)

var ErrInvalidStatement = errors.New("invalid extracted statement")

// Extractor turns a scanned custody statement into structured text fields
type Extractor interface {
	Extract(ctx context.Context, document []byte, filename string) (*ExtractedStatement, error)
}

var (
	_ reconciliation.DocumentSource  = (*Documents)(nil)
	_ reconciliation.CustodyProvider = (*documentProvider)(nil)
)

// Documents adapts an extraction pipeline into custody providers
type Documents struct {
	extractor Extractor
}

func NewDocuments(extractor Extractor) *Documents {
	return &Documents{extractor: extractor}
}

// FromDocument returns a provider backed by one uploaded statement
func (d *Documents) FromDocument(document []byte, filename string) reconciliation.CustodyProvider {
	return &documentProvider{
		extractor: d.extractor,
		document:  document,
		filename:  filename,
	}
}

type documentProvider struct {
	extractor Extractor
	document  []byte
	filename  string
}

func (p *documentProvider) CustodySnapshot(ctx context.Context, fundID string, asOf time.Time) (*reconciliation.CustodySnapshot, error) {
	logger := log.With().
		Str("fund_id", fundID).
		Str("filename", p.filename).
		Str("service", "custody_document").
		Logger()

	if len(p.document) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidStatement)
	}

	stmt, err := p.extractor.Extract(ctx, p.document, p.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to extract statement: %w", err)
	}

	snapshot, err := NormalizeStatement(stmt, asOf)
	if err != nil {
		return nil, err
	}

	if !snapshot.AsOfDate.Equal(asOf) {
		logger.Warn().
			Time("statement_date", snapshot.AsOfDate).
			Time("as_of", asOf).
			Msg("statement date differs from requested date")
	}

	logger.Debug().Int("positions", len(snapshot.Positions)).Msg("normalised extracted statement")
	return snapshot, nil
}

// NormalizeStatement converts extracted text into a custody snapshot.
// Figures are read with the decimal mark the statement shows elsewhere, so
// "1,000" is a thousand on a statement that prints "1,250.00". Missing market
// values are derived from quantity and price; a missing cash balance or
// security identifier is an error.
func NormalizeStatement(stmt *ExtractedStatement, asOf time.Time) (*reconciliation.CustodySnapshot, error) {
	if stmt == nil {
		return nil, fmt.Errorf("%w: no statement", ErrInvalidStatement)
	}

	currency := strings.ToUpper(strings.TrimSpace(stmt.Currency))

	if strings.TrimSpace(stmt.CashBalance) == "" {
		return nil, fmt.Errorf("%w: cash balance missing", ErrInvalidStatement)
	}
	mark := statementMark(stmt)
	cash, err := parseAmount(stmt.CashBalance, mark)
	if err != nil {
		return nil, fmt.Errorf("%w: cash balance: %w", ErrInvalidStatement, err)
	}

	date := asOf
	if stmt.StatementDate != "" {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(stmt.StatementDate))
		if err != nil {
			return nil, fmt.Errorf("%w: statement date %q", ErrInvalidStatement, stmt.StatementDate)
		}
		date = d
	}

	positions := make([]reconciliation.Position, 0, len(stmt.Positions))
	for i, ep := range stmt.Positions {
		id := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ep.SecurityID), " ", ""))
		if id == "" {
			return nil, fmt.Errorf("%w: position %d has no security id", ErrInvalidStatement, i+1)
		}

		qty, err := parseAmount(ep.Quantity, mark)
		if err != nil {
			return nil, fmt.Errorf("%w: %s quantity: %w", ErrInvalidStatement, id, err)
		}
		price, err := parseAmount(ep.Price, mark)
		if err != nil {
			return nil, fmt.Errorf("%w: %s price: %w", ErrInvalidStatement, id, err)
		}

		value := qty.Mul(price)
		if strings.TrimSpace(ep.MarketValue) != "" {
			value, err = parseAmount(ep.MarketValue, mark)
			if err != nil {
				return nil, fmt.Errorf("%w: %s market value: %w", ErrInvalidStatement, id, err)
			}
		}

		posCurrency := strings.ToUpper(strings.TrimSpace(ep.Currency))
		if posCurrency == "" {
			posCurrency = currency
		}

		positions = append(positions, reconciliation.Position{
			SecurityID:     id,
			InstrumentName: strings.TrimSpace(ep.Name),
			Quantity:       qty.InexactFloat64(),
			UnitPrice:      price.InexactFloat64(),
			MarketValue:    value.InexactFloat64(),
			Currency:       posCurrency,
		})
	}

	return &reconciliation.CustodySnapshot{
		AccountID:   strings.TrimSpace(stmt.AccountID),
		Currency:    currency,
		AsOfDate:    date,
		Source:      reconciliation.SourceDocument,
		Positions:   positions,
		CashBalance: cash.InexactFloat64(),
		Timestamp:   time.Now().UTC(),
	}, nil
}

// decimalMark is the separator a statement prints before fractional digits
type decimalMark byte

const (
	markUnknown decimalMark = 0
	markComma   decimalMark = ','
	markPoint   decimalMark = '.'
)

func statementMark(stmt *ExtractedStatement) decimalMark {
	figures := []string{stmt.CashBalance}
	for _, ep := range stmt.Positions {
		figures = append(figures, ep.MarketValue, ep.Price, ep.Quantity)
	}
	return detectDecimalMark(figures...)
}

// ParseAmount reads a number as printed on a statement. It accepts space,
// apostrophe and mixed thousands separators ("1 000 000,50", "1,000,000.50",
// "1.000.000,50", "1'000.50"), accounting negatives "(1 234,00)" and trailing
// minus signs. Without statement context a lone comma or dot is the decimal
// mark, so "0,125" and "98,125" keep their fractions.
func ParseAmount(raw string) (decimal.Decimal, error) {
	return parseAmount(raw, markUnknown)
}

// parseAmount reads a lone separator as grouping only when the statement's
// decimal mark is the other separator and the figure could be a grouped
// integer: no space grouping, a non-zero integer part and three digits after.
func parseAmount(raw string, mark decimalMark) (decimal.Decimal, error) {
	s, negative, grouped, err := cleanAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = resolveSeparator(s, ',', grouped, mark == markPoint)
	case lastDot >= 0:
		s = resolveSeparator(s, '.', grouped, mark == markComma)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable amount %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// cleanAmount strips sign notation and space or apostrophe grouping.
// grouped reports whether any grouping characters were removed.
func cleanAmount(raw string) (s string, negative, grouped bool, err error) {
	s = strings.TrimSpace(raw)
	if s == "" {
		return "", false, false, errors.New("empty amount")
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'', '\u2019':
			grouped = true
			return -1
		}
		return r
	}, s)
	return s, negative, grouped, nil
}

func resolveSeparator(s string, sep byte, grouped, otherIsDecimal bool) string {
	if strings.Count(s, string(sep)) > 1 {
		return strings.ReplaceAll(s, string(sep), "")
	}
	i := strings.IndexByte(s, sep)
	if otherIsDecimal && !grouped && strings.TrimLeft(s[:i], "0") != "" && len(s)-i-1 == 3 {
		return s[:i] + s[i+1:]
	}
	return s[:i] + "." + s[i+1:]
}

// detectDecimalMark returns the first decimal mark any of the figures
// shows unambiguously.
func detectDecimalMark(figures ...string) decimalMark {
	for _, raw := range figures {
		if m := amountMark(raw); m != markUnknown {
			return m
		}
	}
	return markUnknown
}

func amountMark(raw string) decimalMark {
	s, _, grouped, err := cleanAmount(raw)
	if err != nil {
		return markUnknown
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return markComma
		}
		return markPoint
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return markPoint
		}
		if lone(s, lastComma, grouped) {
			return markComma
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return markComma
		}
		if lone(s, lastDot, grouped) {
			return markPoint
		}
	}
	return markUnknown
}

// lone reports whether the single separator at i can only be a decimal mark
func lone(s string, i int, grouped bool) bool {
	return grouped || strings.TrimLeft(s[:i], "0") == "" || len(s)-i-1 != 3
}

// HTTPExtractor calls the document extraction service over HTTP
type HTTPExtractor struct {
	endpoint string
	client   *http.Client
}

func NewHTTPExtractor(endpoint string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Extract uploads the document and decodes the structured statement
func (e *HTTPExtractor) Extract(ctx context.Context, document []byte, filename string) (*ExtractedStatement, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(document); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: extraction request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: extraction returned %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var stmt ExtractedStatement
	if err := json.NewDecoder(resp.Body).Decode(&stmt); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	return &stmt, nil
}
