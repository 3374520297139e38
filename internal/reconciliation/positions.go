package reconciliation

import (
	"fmt"
	"math"
	"sort"
)

// majorDiffPercent is the relative difference above which a breach is major
const majorDiffPercent = 5.0

// ComparePositions matches holdings from both snapshots by security
// identifier and classifies each pairing. Every identifier seen on either
// side yields exactly one row, provided neither side repeats an identifier;
// callers outside Reconcile must run ValidateSnapshots first. Rows are
// ordered by descending absolute value difference; ties keep internal order
// followed by custody-only rows in custody order.
func ComparePositions(internal, custody []Position, t Thresholds) []PositionComparison {
	custodyByID := make(map[string]Position, len(custody))
	for _, p := range custody {
		custodyByID[p.SecurityID] = p
	}

	processed := make(map[string]bool, len(internal)+len(custody))
	comparisons := make([]PositionComparison, 0, len(internal)+len(custody))

	for _, in := range internal {
		if cu, ok := custodyByID[in.SecurityID]; ok {
			comparisons = append(comparisons, compareMatched(in, cu, t))
		} else {
			comparisons = append(comparisons, missingInCustody(in, t))
		}
		processed[in.SecurityID] = true
	}

	for _, cu := range custody {
		if processed[cu.SecurityID] {
			continue
		}
		comparisons = append(comparisons, missingInInternal(cu, t))
		processed[cu.SecurityID] = true
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return math.Abs(comparisons[i].ValueDiff) > math.Abs(comparisons[j].ValueDiff)
	})

	return comparisons
}

func compareMatched(in, cu Position, t Thresholds) PositionComparison {
	c := PositionComparison{
		SecurityID:     in.SecurityID,
		InstrumentName: in.InstrumentName,
		Currency:       in.Currency,
		Internal:       sideOf(in),
		Custody:        sideOf(cu),
		QuantityDiff:   in.Quantity - cu.Quantity,
		PriceDiff:      in.UnitPrice - cu.UnitPrice,
		ValueDiff:      in.MarketValue - cu.MarketValue,
		Status:         StatusMatch,
		Flags:          []string{},
	}
	c.QuantityDiffPercent = percentOf(c.QuantityDiff, cu.Quantity)
	c.PriceDiffPercent = percentOf(c.PriceDiff, cu.UnitPrice)
	c.ValueDiffPercent = percentOf(c.ValueDiff, cu.MarketValue)

	if math.Abs(c.QuantityDiffPercent) > t.PositionQuantityPercent {
		c.Flags = append(c.Flags, fmt.Sprintf("Quantity mismatch: %.4f (%.2f%%)", c.QuantityDiff, c.QuantityDiffPercent))
		c.Status = severity(c.QuantityDiffPercent)
	}

	if math.Abs(c.PriceDiffPercent) > t.PositionPricePercent {
		c.Flags = append(c.Flags, fmt.Sprintf("Price mismatch: %.4f (%.2f%%)", c.PriceDiff, c.PriceDiffPercent))
		if c.Status != StatusMajorDiff {
			c.Status = severity(c.PriceDiffPercent)
		}
	}

	return c
}

func missingInCustody(in Position, t Thresholds) PositionComparison {
	status := StatusMinorDiff
	if in.MarketValue >= t.MinMissingPositionValue {
		status = StatusMajorDiff
	}
	return PositionComparison{
		SecurityID:          in.SecurityID,
		InstrumentName:      in.InstrumentName,
		Currency:            in.Currency,
		Internal:            sideOf(in),
		QuantityDiff:        in.Quantity,
		QuantityDiffPercent: 100,
		PriceDiff:           in.UnitPrice,
		PriceDiffPercent:    100,
		ValueDiff:           in.MarketValue,
		ValueDiffPercent:    100,
		Status:              status,
		Flags:               []string{"Missing in custody"},
	}
}

func missingInInternal(cu Position, t Thresholds) PositionComparison {
	status := StatusMissingInternal
	if cu.MarketValue >= t.MinMissingPositionValue {
		status = StatusMajorDiff
	}
	return PositionComparison{
		SecurityID:          cu.SecurityID,
		InstrumentName:      cu.InstrumentName,
		Currency:            cu.Currency,
		Custody:             sideOf(cu),
		QuantityDiff:        -cu.Quantity,
		QuantityDiffPercent: -100,
		PriceDiff:           -cu.UnitPrice,
		PriceDiffPercent:    -100,
		ValueDiff:           -cu.MarketValue,
		ValueDiffPercent:    -100,
		Status:              status,
		Flags:               []string{"Missing in internal registry"},
	}
}

func sideOf(p Position) *PositionSide {
	return &PositionSide{
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice,
		MarketValue: p.MarketValue,
	}
}

// severity grades a breached tolerance by its relative size
func severity(diffPercent float64) Status {
	if math.Abs(diffPercent) > majorDiffPercent {
		return StatusMajorDiff
	}
	return StatusMinorDiff
}

// percentOf returns diff relative to base in percent, or 0 when base is 0
func percentOf(diff, base float64) float64 {
	if base == 0 {
		return 0
	}
	return diff / base * 100
}
