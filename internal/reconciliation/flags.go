package reconciliation

import (
	"fmt"
	"math"
	"strings"
)

// flagTotalValuePercent is the NAV difference reported as an error flag
const flagTotalValuePercent = 1.0

// GenerateFlags narrates a summarised run as a leveled list of findings.
// It never changes a status and depends only on its arguments, so identical
// inputs always produce identical output in the same order.
func GenerateFlags(positions []PositionComparison, cash CashComparison, summary Summary) []Flag {
	flags := make([]Flag, 0, 6)

	if summary.OverallStatus == OverallApproved {
		flags = append(flags, Flag{
			Level: FlagInfo,
			Message: fmt.Sprintf("Reconciliation approved: %d of %d positions match",
				summary.MatchedPositions, summary.TotalPositions),
			Details: map[string]int{
				"matched": summary.MatchedPositions,
				"total":   summary.TotalPositions,
			},
		})
	}

	if f, ok := cashFlag(cash); ok {
		flags = append(flags, f)
	}

	var majorNames, majorIDs []string
	for _, p := range positions {
		if p.Status == StatusMajorDiff {
			majorNames = append(majorNames, displayName(p))
			majorIDs = append(majorIDs, p.SecurityID)
		}
	}
	if len(majorNames) > 0 {
		flags = append(flags, Flag{
			Level:   FlagError,
			Message: fmt.Sprintf("Major differences in %d positions: %s", len(majorNames), strings.Join(majorNames, ", ")),
			Details: majorIDs,
		})
	}

	if summary.MissingInCustody > 0 {
		flags = append(flags, Flag{
			Level:   FlagWarning,
			Message: fmt.Sprintf("%d positions missing in custody", summary.MissingInCustody),
		})
	}
	if summary.MissingInInternal > 0 {
		flags = append(flags, Flag{
			Level:   FlagWarning,
			Message: fmt.Sprintf("%d positions missing in internal registry", summary.MissingInInternal),
		})
	}

	if math.Abs(summary.TotalValueDifferencePercent) > flagTotalValuePercent {
		flags = append(flags, Flag{
			Level: FlagError,
			Message: fmt.Sprintf("Total value difference %s (%.2f%%) exceeds %.0f%%",
				formatAmount(summary.TotalValueDifference), summary.TotalValueDifferencePercent, flagTotalValuePercent),
		})
	}

	return flags
}

func cashFlag(cash CashComparison) (Flag, bool) {
	var level FlagLevel
	switch cash.Status {
	case StatusMatch:
		return Flag{}, false
	case StatusMajorDiff:
		level = FlagError
	case StatusMinorDiff, StatusMissingInternal, StatusMissingCustody:
		level = FlagWarning
	default:
		level = FlagWarning
	}
	return Flag{
		Level: level,
		Message: fmt.Sprintf("Cash difference: %s %s (%.2f%%)",
			formatAmount(cash.Difference), cash.Currency, cash.DifferencePercent),
	}, true
}

func displayName(p PositionComparison) string {
	if p.InstrumentName != "" {
		return p.InstrumentName
	}
	return p.SecurityID
}
