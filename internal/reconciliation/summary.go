package reconciliation

import "math"

const (
	// failMajorRatio is the share of MAJOR_DIFF positions above which the run fails
	failMajorRatio = 0.10
	// failTotalValuePercent is the NAV difference above which the run fails
	failTotalValuePercent = 5.0
)

// Summarize reduces all comparisons into fund level totals and one overall
// status. Escalation is monotonic: a tier, once reached, is never left.
func Summarize(positions []PositionComparison, cash CashComparison, internalTotalValue, custodyTotalValue float64) Summary {
	s := Summary{
		TotalPositions:     len(positions),
		InternalTotalValue: internalTotalValue,
		CustodyTotalValue:  custodyTotalValue,
	}

	for _, p := range positions {
		switch p.Status {
		case StatusMatch:
			s.MatchedPositions++
		case StatusMinorDiff:
			s.MinorDiffPositions++
		case StatusMajorDiff:
			s.MajorDiffPositions++
		case StatusMissingInternal, StatusMissingCustody:
			// counted by side below
		}

		if p.Internal == nil {
			s.MissingInInternal++
		}
		if p.Custody == nil {
			s.MissingInCustody++
		}
	}

	s.TotalValueDifference = internalTotalValue - custodyTotalValue
	s.TotalValueDifferencePercent = percentOf(s.TotalValueDifference, custodyTotalValue)

	s.OverallStatus = OverallApproved

	if s.MajorDiffPositions > 0 || cash.Status == StatusMajorDiff {
		s.OverallStatus = escalate(s.OverallStatus, OverallReviewRequired)
	}

	if float64(s.MajorDiffPositions) > failMajorRatio*float64(s.TotalPositions) ||
		math.Abs(s.TotalValueDifferencePercent) > failTotalValuePercent {
		s.OverallStatus = escalate(s.OverallStatus, OverallFailed)
	}

	return s
}

// escalate returns the more severe of the two statuses
func escalate(current, next OverallStatus) OverallStatus {
	if next.rank() > current.rank() {
		return next
	}
	return current
}
