package reconciliation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidThresholds = errors.New("invalid thresholds")

// Thresholds are the tolerances applied to a single reconciliation run.
// Percent values are expressed in percent, not fractions (0.1 means 0.1%).
type Thresholds struct {
	CashDifferencePercent   float64 `json:"cashDifferencePercent" yaml:"cash_difference_percent"`
	CashDifferenceAbsolute  float64 `json:"cashDifferenceAbsolute" yaml:"cash_difference_absolute"`
	PositionQuantityPercent float64 `json:"positionQuantityPercent" yaml:"position_quantity_percent"`
	PositionPricePercent    float64 `json:"positionPricePercent" yaml:"position_price_percent"`
	MinMissingPositionValue float64 `json:"minMissingPositionValue" yaml:"min_missing_position_value"`
}

// DefaultThresholds are used for any field a caller does not override
var DefaultThresholds = Thresholds{
	CashDifferencePercent:   0.1,
	CashDifferenceAbsolute:  10000,
	PositionQuantityPercent: 0.1,
	PositionPricePercent:    0.5,
	MinMissingPositionValue: 50000,
}

// Overrides carries caller supplied thresholds. Nil fields keep the base value.
type Overrides struct {
	CashDifferencePercent   *float64 `json:"cashDifferencePercent,omitempty" yaml:"cash_difference_percent,omitempty"`
	CashDifferenceAbsolute  *float64 `json:"cashDifferenceAbsolute,omitempty" yaml:"cash_difference_absolute,omitempty"`
	PositionQuantityPercent *float64 `json:"positionQuantityPercent,omitempty" yaml:"position_quantity_percent,omitempty"`
	PositionPricePercent    *float64 `json:"positionPricePercent,omitempty" yaml:"position_price_percent,omitempty"`
	MinMissingPositionValue *float64 `json:"minMissingPositionValue,omitempty" yaml:"min_missing_position_value,omitempty"`
}

// Merge applies overrides field by field on top of t
func (t Thresholds) Merge(o Overrides) Thresholds {
	merged := t
	if o.CashDifferencePercent != nil {
		merged.CashDifferencePercent = *o.CashDifferencePercent
	}
	if o.CashDifferenceAbsolute != nil {
		merged.CashDifferenceAbsolute = *o.CashDifferenceAbsolute
	}
	if o.PositionQuantityPercent != nil {
		merged.PositionQuantityPercent = *o.PositionQuantityPercent
	}
	if o.PositionPricePercent != nil {
		merged.PositionPricePercent = *o.PositionPricePercent
	}
	if o.MinMissingPositionValue != nil {
		merged.MinMissingPositionValue = *o.MinMissingPositionValue
	}
	return merged
}

// Validate rejects negative tolerances
func (t Thresholds) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"cash_difference_percent", t.CashDifferencePercent},
		{"cash_difference_absolute", t.CashDifferenceAbsolute},
		{"position_quantity_percent", t.PositionQuantityPercent},
		{"position_price_percent", t.PositionPricePercent},
		{"min_missing_position_value", t.MinMissingPositionValue},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidThresholds, f.name, f.value)
		}
	}
	return nil
}

// LoadOverridesFromFile reads threshold overrides from a YAML file
func LoadOverridesFromFile(path string) (Overrides, error) {
	var o Overrides
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("read thresholds file: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("parse thresholds file: %w", err)
	}
	return o, nil
}

// SaveToFile writes the thresholds as YAML
func (t Thresholds) SaveToFile(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write thresholds file: %w", err)
	}
	return nil
}
