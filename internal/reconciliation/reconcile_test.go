package reconciliation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAsOf = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

func internalSnapshot(cash float64, holdings ...Position) *InternalSnapshot {
	return &InternalSnapshot{
		FundID:      "FUND1",
		FundName:    "Nordic Equity",
		Currency:    "SEK",
		AsOfDate:    testAsOf,
		Holdings:    holdings,
		CashBalance: cash,
		Timestamp:   testAsOf.Add(18 * time.Hour),
	}
}

func custodySnapshot(cash float64, positions ...Position) *CustodySnapshot {
	return &CustodySnapshot{
		AccountID:   "ACC-1",
		Currency:    "SEK",
		AsOfDate:    testAsOf,
		Source:      SourceAPI,
		Positions:   positions,
		CashBalance: cash,
		Timestamp:   testAsOf.Add(20 * time.Hour),
	}
}

func TestReconcile_MatchingSnapshots(t *testing.T) {
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))

	result, err := Reconcile("FUND1",
		internalSnapshot(0, pos("SE0001", 1000, 100)),
		custodySnapshot(0, pos("SE0001", 1000, 100)),
		Overrides{}, now)
	require.NoError(t, err)

	require.Len(t, result.Positions, 1)
	assert.Equal(t, StatusMatch, result.Positions[0].Status)
	assert.Empty(t, result.Positions[0].Flags)
	assert.Equal(t, OverallApproved, result.Summary.OverallStatus)

	assert.True(t, strings.HasPrefix(result.ID, "REC_"))
	assert.Equal(t, "FUND1", result.FundID)
	assert.Equal(t, "Nordic Equity", result.FundName)
	assert.Equal(t, testAsOf, result.ReconciliationDate)
	assert.Equal(t, now.UTC(), result.GeneratedAt)
	assert.Equal(t, "REGISTRY", result.Sources.Internal.Source)
	assert.Equal(t, "API", result.Sources.Custody.Source)
	assert.Equal(t, 1, result.Sources.Internal.RecordCount)
	assert.Equal(t, 1, result.Sources.Custody.RecordCount)

	require.Len(t, result.Flags, 1)
	assert.Equal(t, FlagInfo, result.Flags[0].Level)
}

func TestReconcile_MissingInCustodyEscalates(t *testing.T) {
	result, err := Reconcile("FUND1",
		internalSnapshot(0, pos("SE0001", 1000, 100)),
		custodySnapshot(0),
		Overrides{}, time.Now())
	require.NoError(t, err)

	require.Len(t, result.Positions, 1)
	assert.Equal(t, StatusMajorDiff, result.Positions[0].Status)
	assert.NotEqual(t, OverallApproved, result.Summary.OverallStatus)
	assert.Equal(t, 1, result.Summary.MissingInCustody)
}

func TestReconcile_CashBreak(t *testing.T) {
	result, err := Reconcile("FUND1",
		internalSnapshot(1_000_000),
		custodySnapshot(950_000),
		Overrides{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, StatusMajorDiff, result.CashComparison.Status)
	assert.Equal(t, "SEK", result.CashComparison.Currency)

	var errorFlags []Flag
	for _, f := range result.Flags {
		if f.Level == FlagError && strings.HasPrefix(f.Message, "Cash difference") {
			errorFlags = append(errorFlags, f)
		}
	}
	require.Len(t, errorFlags, 1)
	assert.Contains(t, errorFlags[0].Message, "50000.00 SEK")
}

func TestReconcile_TotalsIncludeCash(t *testing.T) {
	result, err := Reconcile("FUND1",
		internalSnapshot(5000, pos("A", 10, 100), pos("B", 20, 50)),
		custodySnapshot(4000, pos("A", 10, 100)),
		Overrides{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 7000.0, result.Summary.InternalTotalValue)
	assert.Equal(t, 5000.0, result.Summary.CustodyTotalValue)
	assert.Equal(t, 2000.0, result.Summary.TotalValueDifference)
}

func TestReconcile_Overrides(t *testing.T) {
	loose := 20.0
	result, err := Reconcile("FUND1",
		internalSnapshot(0, pos("SE0001", 1100, 100)),
		custodySnapshot(0, pos("SE0001", 1000, 100)),
		Overrides{PositionQuantityPercent: &loose}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, StatusMatch, result.Positions[0].Status)
}

func TestReconcile_Errors(t *testing.T) {
	negative := -1.0

	tests := []struct {
		name      string
		internal  *InternalSnapshot
		custody   *CustodySnapshot
		overrides Overrides
		wantErr   error
	}{
		{
			name:    "missing internal",
			custody: custodySnapshot(0),
			wantErr: ErrMissingSnapshot,
		},
		{
			name:     "missing custody",
			internal: internalSnapshot(0),
			wantErr:  ErrMissingSnapshot,
		},
		{
			name:     "currency mismatch",
			internal: internalSnapshot(0),
			custody:  &CustodySnapshot{Currency: "EUR"},
			wantErr:  ErrCurrencyMismatch,
		},
		{
			name:     "missing custody source",
			internal: internalSnapshot(0),
			custody:  &CustodySnapshot{Currency: "SEK"},
			wantErr:  ErrInvalidSource,
		},
		{
			name:     "unknown custody source",
			internal: internalSnapshot(0),
			custody:  &CustodySnapshot{Currency: "SEK", Source: "EMAIL"},
			wantErr:  ErrInvalidSource,
		},
		{
			name:     "lower case custody source",
			internal: internalSnapshot(0),
			custody:  &CustodySnapshot{Currency: "SEK", Source: "api"},
			wantErr:  ErrInvalidSource,
		},
		{
			name:     "duplicate internal security",
			internal: internalSnapshot(0, pos("A", 1, 1), pos("A", 2, 1)),
			custody:  custodySnapshot(0),
			wantErr:  ErrDuplicateSecurity,
		},
		{
			name:     "duplicate custody security",
			internal: internalSnapshot(0),
			custody:  custodySnapshot(0, pos("B", 1, 1), pos("B", 1, 1)),
			wantErr:  ErrDuplicateSecurity,
		},
		{
			name:      "negative threshold",
			internal:  internalSnapshot(0),
			custody:   custodySnapshot(0),
			overrides: Overrides{CashDifferenceAbsolute: &negative},
			wantErr:   ErrInvalidThresholds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Reconcile("FUND1", tt.internal, tt.custody, tt.overrides, time.Now())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

func TestReconcile_CurrencyCaseInsensitive(t *testing.T) {
	custody := custodySnapshot(0)
	custody.Currency = "sek"

	_, err := Reconcile("FUND1", internalSnapshot(0), custody, Overrides{}, time.Now())
	assert.NoError(t, err)
}
