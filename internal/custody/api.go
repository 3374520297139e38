package custody

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ksred/klear-recon/internal/reconciliation"
)

var (
	ErrUnauthorized   = errors.New("custody api rejected credentials")
	ErrUpstream       = errors.New("custody api request failed")
	ErrMissingBalance = errors.New("custody api returned no cash balance for account currency")
)

var _ reconciliation.CustodyProvider = (*APIClient)(nil)

// AccountResolver maps a fund to its custodian account
type AccountResolver interface {
	CustodyAccount(ctx context.Context, fundID string) (string, error)
}

type APIConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// RequestsPerSecond throttles calls to the bank; zero means unlimited
	RequestsPerSecond float64
	MaxRetries        int
	Timeout           time.Duration
}

// APIClient pulls custody positions and balances from the bank API
type APIClient struct {
	cfg      APIConfig
	accounts AccountResolver
	client   *http.Client
	limiter  *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewAPIClient(cfg APIConfig, accounts AccountResolver) *APIClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &APIClient{
		cfg:      cfg,
		accounts: accounts,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// CustodySnapshot fetches positions and cash for the fund's custody account
func (c *APIClient) CustodySnapshot(ctx context.Context, fundID string, asOf time.Time) (*reconciliation.CustodySnapshot, error) {
	logger := log.With().
		Str("fund_id", fundID).
		Str("service", "custody_api").
		Logger()

	accountID, err := c.accounts.CustodyAccount(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve custody account: %w", err)
	}

	date := asOf.Format(time.DateOnly)
	query := url.Values{"date": {date}}

	var positions positionsResponse
	if err := c.get(ctx, "/v1/accounts/"+url.PathEscape(accountID)+"/positions", query, &positions); err != nil {
		return nil, fmt.Errorf("failed to fetch custody positions: %w", err)
	}

	var balances balancesResponse
	if err := c.get(ctx, "/v1/accounts/"+url.PathEscape(accountID)+"/balances", query, &balances); err != nil {
		return nil, fmt.Errorf("failed to fetch custody balances: %w", err)
	}

	currency := strings.ToUpper(positions.Currency)
	cash, ok := findBalance(balances.Balances, currency)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrMissingBalance, accountID, currency)
	}

	snapshotDate := asOf
	if positions.AsOf != "" {
		if d, err := time.Parse(time.DateOnly, positions.AsOf); err == nil {
			snapshotDate = d
		}
	}

	out := make([]reconciliation.Position, 0, len(positions.Positions))
	for _, p := range positions.Positions {
		posCurrency := p.Currency
		if posCurrency == "" {
			posCurrency = currency
		}
		out = append(out, reconciliation.Position{
			SecurityID:     strings.TrimSpace(p.ISIN),
			InstrumentName: p.Name,
			Quantity:       p.Quantity.InexactFloat64(),
			UnitPrice:      p.Price.InexactFloat64(),
			MarketValue:    p.MarketValue.InexactFloat64(),
			Currency:       strings.ToUpper(posCurrency),
		})
	}

	logger.Debug().
		Str("account_id", accountID).
		Int("positions", len(out)).
		Msg("fetched custody snapshot from bank api")

	return &reconciliation.CustodySnapshot{
		AccountID:   accountID,
		Currency:    currency,
		AsOfDate:    snapshotDate,
		Source:      reconciliation.SourceAPI,
		Positions:   out,
		CashBalance: cash,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func findBalance(balances []bankBalance, currency string) (float64, bool) {
	for _, b := range balances {
		if strings.EqualFold(b.Currency, currency) {
			return b.Amount.InexactFloat64(), true
		}
	}
	return 0, false
}

// get performs an authenticated GET, retrying server errors up to MaxRetries
func (c *APIClient) get(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 200 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		retry, err := c.doGet(ctx, path, query, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Str("path", path).Msg("retrying custody api request")
	}
	return lastErr
}

func (c *APIClient) doGet(ctx context.Context, path string, query url.Values, out any) (retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.invalidateToken()
		return false, ErrUnauthorized
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return false, nil
}

// accessToken returns a cached bearer token, fetching a new one when the
// cached token is within a minute of expiry
func (c *APIClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Add(time.Minute).Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned %d", ErrUpstream, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUpstream)
	}

	c.token = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *APIClient) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiry = time.Time{}
}
