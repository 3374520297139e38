package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(id string, qty, price float64) Position {
	return Position{
		SecurityID:     id,
		InstrumentName: "Instrument " + id,
		Quantity:       qty,
		UnitPrice:      price,
		MarketValue:    qty * price,
		Currency:       "SEK",
	}
}

func TestComparePositions_Classification(t *testing.T) {
	tests := []struct {
		name       string
		internal   []Position
		custody    []Position
		wantStatus Status
		wantFlags  []string
	}{
		{
			name:       "identical holdings match",
			internal:   []Position{pos("SE0001", 1000, 100)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMatch,
			wantFlags:  []string{},
		},
		{
			name:       "quantity within tolerance",
			internal:   []Position{pos("SE0001", 1000.5, 100)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMatch,
			wantFlags:  []string{},
		},
		{
			name:       "small quantity break is minor",
			internal:   []Position{pos("SE0001", 1010, 100)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMinorDiff,
			wantFlags:  []string{"Quantity mismatch: 10.0000 (1.00%)"},
		},
		{
			name:       "large quantity break is major",
			internal:   []Position{pos("SE0001", 1100, 100)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMajorDiff,
			wantFlags:  []string{"Quantity mismatch: 100.0000 (10.00%)"},
		},
		{
			name:       "price break is minor",
			internal:   []Position{pos("SE0001", 1000, 102)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMinorDiff,
			wantFlags:  []string{"Price mismatch: 2.0000 (2.00%)"},
		},
		{
			name:       "major quantity is not downgraded by minor price",
			internal:   []Position{pos("SE0001", 1100, 102)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMajorDiff,
			wantFlags: []string{
				"Quantity mismatch: 100.0000 (10.00%)",
				"Price mismatch: 2.0000 (2.00%)",
			},
		},
		{
			name:       "major price escalates minor quantity",
			internal:   []Position{pos("SE0001", 1010, 110)},
			custody:    []Position{pos("SE0001", 1000, 100)},
			wantStatus: StatusMajorDiff,
			wantFlags: []string{
				"Quantity mismatch: 10.0000 (1.00%)",
				"Price mismatch: 10.0000 (10.00%)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComparePositions(tt.internal, tt.custody, DefaultThresholds)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantStatus, got[0].Status)
			assert.Equal(t, tt.wantFlags, got[0].Flags)
			assert.NotNil(t, got[0].Internal)
			assert.NotNil(t, got[0].Custody)
		})
	}
}

func TestComparePositions_MissingInCustody(t *testing.T) {
	t.Run("above minimum value is major", func(t *testing.T) {
		got := ComparePositions([]Position{pos("SE0001", 1000, 100)}, nil, DefaultThresholds)
		require.Len(t, got, 1)

		c := got[0]
		assert.Equal(t, StatusMajorDiff, c.Status)
		assert.Nil(t, c.Custody)
		require.NotNil(t, c.Internal)
		assert.Equal(t, 100000.0, c.ValueDiff)
		assert.Equal(t, 100.0, c.ValueDiffPercent)
		assert.Equal(t, []string{"Missing in custody"}, c.Flags)
	})

	t.Run("below minimum value is minor", func(t *testing.T) {
		got := ComparePositions([]Position{pos("SE0001", 10, 100)}, nil, DefaultThresholds)
		require.Len(t, got, 1)
		assert.Equal(t, StatusMinorDiff, got[0].Status)
	})

	t.Run("exactly at minimum value is major", func(t *testing.T) {
		got := ComparePositions([]Position{pos("SE0001", 500, 100)}, nil, DefaultThresholds)
		require.Len(t, got, 1)
		assert.Equal(t, StatusMajorDiff, got[0].Status)
	})
}

func TestComparePositions_MissingInInternal(t *testing.T) {
	t.Run("below minimum value", func(t *testing.T) {
		got := ComparePositions(nil, []Position{pos("SE0002", 10, 100)}, DefaultThresholds)
		require.Len(t, got, 1)

		c := got[0]
		assert.Equal(t, StatusMissingInternal, c.Status)
		assert.Nil(t, c.Internal)
		assert.Equal(t, -1000.0, c.ValueDiff)
		assert.Equal(t, -100.0, c.ValueDiffPercent)
		assert.Equal(t, []string{"Missing in internal registry"}, c.Flags)
	})

	t.Run("above minimum value is major", func(t *testing.T) {
		got := ComparePositions(nil, []Position{pos("SE0002", 1000, 100)}, DefaultThresholds)
		require.Len(t, got, 1)
		assert.Equal(t, StatusMajorDiff, got[0].Status)
	})
}

func TestComparePositions_OneRowPerSecurity(t *testing.T) {
	internal := []Position{pos("A", 10, 1), pos("B", 20, 1), pos("C", 30, 1)}
	custody := []Position{pos("B", 20, 1), pos("D", 40, 1), pos("A", 10, 1)}

	got := ComparePositions(internal, custody, DefaultThresholds)
	require.Len(t, got, 4)

	seen := map[string]int{}
	for _, c := range got {
		seen[c.SecurityID]++
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1, "D": 1}, seen)
}

func TestComparePositions_Ordering(t *testing.T) {
	internal := []Position{
		pos("SMALL", 1000, 100),
		pos("MATCH1", 10, 10),
		pos("BIG", 1000, 100),
		pos("MATCH2", 10, 10),
	}
	custody := []Position{
		pos("ONLYCUSTODY", 5, 10),
		pos("SMALL", 999, 100),
		pos("MATCH2", 10, 10),
		pos("BIG", 900, 100),
		pos("MATCH1", 10, 10),
	}

	got := ComparePositions(internal, custody, DefaultThresholds)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.SecurityID
	}
	// BIG 10000, SMALL 100, ONLYCUSTODY -50, then equal zero rows in internal order
	assert.Equal(t, []string{"BIG", "SMALL", "ONLYCUSTODY", "MATCH1", "MATCH2"}, ids)
}

func TestComparePositions_ZeroDenominators(t *testing.T) {
	internal := []Position{{SecurityID: "Z", Quantity: 5, UnitPrice: 2, MarketValue: 10}}
	custody := []Position{{SecurityID: "Z", Quantity: 0, UnitPrice: 0, MarketValue: 0}}

	got := ComparePositions(internal, custody, DefaultThresholds)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, 0.0, c.QuantityDiffPercent)
	assert.Equal(t, 0.0, c.PriceDiffPercent)
	assert.Equal(t, 0.0, c.ValueDiffPercent)
	assert.Equal(t, 10.0, c.ValueDiff)
	assert.Equal(t, StatusMatch, c.Status)
}

func TestComparePositions_Empty(t *testing.T) {
	got := ComparePositions(nil, nil, DefaultThresholds)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestComparePositions_Deterministic(t *testing.T) {
	internal := []Position{pos("A", 10, 1), pos("B", 20, 1), pos("C", 30, 1)}
	custody := []Position{pos("C", 31, 1), pos("A", 11, 1), pos("E", 1, 1)}

	first := ComparePositions(internal, custody, DefaultThresholds)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ComparePositions(internal, custody, DefaultThresholds))
	}
}

func TestComparePositions_RepeatedIdentifierRejectedUpstream(t *testing.T) {
	internal := []Position{pos("DUP", 10, 100), pos("DUP", 5, 100)}
	custody := []Position{pos("DUP", 15, 100)}

	// without validation the repeated holding is compared twice
	rows := ComparePositions(internal, custody, DefaultThresholds)
	assert.Len(t, rows, 2)

	err := ValidateSnapshots(
		&InternalSnapshot{Currency: "SEK", Holdings: internal},
		&CustodySnapshot{Currency: "SEK", Source: SourceAPI, Positions: custody},
	)
	assert.ErrorIs(t, err, ErrDuplicateSecurity)
}
