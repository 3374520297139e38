package reconciliation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// cashMajorDiffPercent is the relative cash difference above which a flagged
// cash break is major. Severity looks at the percent figure only, even when
// the break was triggered by the absolute tolerance.
const cashMajorDiffPercent = 1.0

// CompareCash compares the two cash balances held in one currency. Either
// tolerance on its own is enough to flag the difference.
func CompareCash(internalBalance, custodyBalance float64, currency string, t Thresholds) CashComparison {
	c := CashComparison{
		Currency:        currency,
		InternalBalance: internalBalance,
		CustodyBalance:  custodyBalance,
		Difference:      internalBalance - custodyBalance,
		Status:          StatusMatch,
		Flags:           []string{},
	}
	c.DifferencePercent = percentOf(c.Difference, custodyBalance)

	breached := math.Abs(c.DifferencePercent) > t.CashDifferencePercent ||
		math.Abs(c.Difference) > t.CashDifferenceAbsolute
	if !breached {
		return c
	}

	c.Status = StatusMinorDiff
	if math.Abs(c.DifferencePercent) > cashMajorDiffPercent {
		c.Status = StatusMajorDiff
	}
	c.Flags = append(c.Flags, fmt.Sprintf("Cash difference: %s %s (%.2f%%)",
		formatAmount(c.Difference), currency, c.DifferencePercent))

	return c
}

// formatAmount renders a signed money amount with two decimals
func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
