package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AdjustmentType selects how an adjustment value is applied.
type AdjustmentType string

const (
	AdjustmentPercentage AdjustmentType = "percentage"
	AdjustmentFixed      AdjustmentType = "fixed"
)

// ParseAdjustmentType accepts "percentage"/"percent"/"%" and "fixed"/"amount".
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	switch s {
	case "percentage", "percent", "pct", "%":
		return AdjustmentPercentage, nil
	case "fixed", "amount":
		return AdjustmentFixed, nil
	}
	return "", fmt.Errorf("unknown adjustment type %q", s)
}

// AdjustmentState tracks where an adjustment is in its lifecycle.
type AdjustmentState string

const (
	StateDraft    AdjustmentState = "draft"
	StateActive   AdjustmentState = "active"
	StateInactive AdjustmentState = "inactive"
	StateRemoved  AdjustmentState = "removed"
)

// AppliedAdjustment is a percentage or fixed change written into the grid
// for one account over a month window.
type AppliedAdjustment struct {
	ID               string          `json:"id" yaml:"id"`
	AccountCode      string          `json:"account_code" yaml:"account_code"`
	Name             string          `json:"name" yaml:"name"`
	Description      string          `json:"description,omitempty" yaml:"description,omitempty"`
	Type             AdjustmentType  `json:"adjustment_type" yaml:"adjustment_type"`
	Value            decimal.Decimal `json:"adjustment_value" yaml:"adjustment_value"`
	StartMonth       Month           `json:"start_month" yaml:"start_month"`
	EndMonth         Month           `json:"end_month" yaml:"end_month"`
	Year             int             `json:"year,omitempty" yaml:"year,omitempty"`
	IsActive         bool            `json:"is_active" yaml:"is_active"`
	State            AdjustmentState `json:"state,omitempty" yaml:"state,omitempty"`
	SourceScenarioID string          `json:"source_scenario_id,omitempty" yaml:"source_scenario_id,omitempty"`
	Audit            `json:",inline" yaml:",inline"`
}

// Window returns the adjustment's month window.
func (a AppliedAdjustment) Window() MonthWindow {
	return MonthWindow{Start: a.StartMonth, End: a.EndMonth}
}

// FromScenario reports whether the adjustment was derived from a scenario.
func (a AppliedAdjustment) FromScenario() bool {
	return a.SourceScenarioID != ""
}

// Covers reports whether the adjustment targets period. A zero Year matches
// every year; otherwise a wrapping window spills into Year+1.
func (a AppliedAdjustment) Covers(period MonthYear) bool {
	w := a.Window()
	if !w.Contains(period.Month) {
		return false
	}
	if a.Year == 0 {
		return true
	}
	if !w.Wraps() {
		return period.Year == a.Year
	}
	start := w.normalized().Start
	if period.Month.Index() >= start.Index() {
		return period.Year == a.Year
	}
	return period.Year == a.Year+1
}
