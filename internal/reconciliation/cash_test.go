package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareCash(t *testing.T) {
	tests := []struct {
		name        string
		internal    float64
		custody     float64
		thresholds  Thresholds
		wantStatus  Status
		wantFlagged bool
	}{
		{
			name:       "equal balances",
			internal:   1_000_000,
			custody:    1_000_000,
			thresholds: DefaultThresholds,
			wantStatus: StatusMatch,
		},
		{
			name:       "within both tolerances",
			internal:   1_000_500,
			custody:    1_000_000,
			thresholds: DefaultThresholds,
			wantStatus: StatusMatch,
		},
		{
			name:        "percent breach above one percent is major",
			internal:    1_000_000,
			custody:     950_000,
			thresholds:  DefaultThresholds,
			wantStatus:  StatusMajorDiff,
			wantFlagged: true,
		},
		{
			name:        "percent breach below one percent is minor",
			internal:    1_005_000,
			custody:     1_000_000,
			thresholds:  DefaultThresholds,
			wantStatus:  StatusMinorDiff,
			wantFlagged: true,
		},
		{
			// 20,000 on 100,000,000 is 0.02%: only the absolute tolerance fires
			name:        "absolute breach alone grades by percent",
			internal:    100_020_000,
			custody:     100_000_000,
			thresholds:  DefaultThresholds,
			wantStatus:  StatusMinorDiff,
			wantFlagged: true,
		},
		{
			name:        "zero custody balance uses absolute tolerance",
			internal:    50_000,
			custody:     0,
			thresholds:  DefaultThresholds,
			wantStatus:  StatusMinorDiff,
			wantFlagged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareCash(tt.internal, tt.custody, "SEK", tt.thresholds)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.internal-tt.custody, got.Difference)
			if tt.wantFlagged {
				assert.Len(t, got.Flags, 1)
			} else {
				assert.Empty(t, got.Flags)
				assert.NotNil(t, got.Flags)
			}
		})
	}
}

func TestCompareCash_LargeCashShortfall(t *testing.T) {
	got := CompareCash(1_000_000, 950_000, "SEK", DefaultThresholds)

	assert.Equal(t, StatusMajorDiff, got.Status)
	assert.Equal(t, 50000.0, got.Difference)
	assert.InDelta(t, 5.263, got.DifferencePercent, 0.001)
	require.Len(t, got.Flags, 1)
	assert.Equal(t, "Cash difference: 50000.00 SEK (5.26%)", got.Flags[0])
}

func TestCompareCash_ZeroCustodyPercent(t *testing.T) {
	got := CompareCash(100, 0, "EUR", DefaultThresholds)
	assert.Equal(t, 0.0, got.DifferencePercent)
	assert.Equal(t, StatusMatch, got.Status)
}
