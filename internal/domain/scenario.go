package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Audit carries who/when metadata shared by scenarios and adjustments.
type Audit struct {
	CreatedBy string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Scenario is a named bundle of drivers plus a base revenue and horizon.
// Drivers are evaluated in slice order; they are additive so the order does
// not change totals.
type Scenario struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	BaseRevenue decimal.Decimal `json:"base_revenue" yaml:"base_revenue"`
	StartMonth  Month           `json:"start_month,omitempty" yaml:"start_month,omitempty"`
	EndMonth    Month           `json:"end_month,omitempty" yaml:"end_month,omitempty"`
	StartYear   int             `json:"start_year" yaml:"start_year"`
	EndYear     int             `json:"end_year,omitempty" yaml:"end_year,omitempty"`
	Drivers     []Driver        `json:"drivers" yaml:"drivers"`
	IsActive    bool            `json:"is_active" yaml:"is_active"`
	Audit       `json:",inline" yaml:",inline"`
}

// DeepCopy returns a scenario that shares no mutable state with s.
func (s *Scenario) DeepCopy() *Scenario {
	if s == nil {
		return nil
	}
	out := *s
	if s.Drivers != nil {
		out.Drivers = make([]Driver, len(s.Drivers))
		for i, d := range s.Drivers {
			out.Drivers[i] = d.Clone()
		}
	}
	return &out
}

// Window returns the scenario's own month window.
func (s *Scenario) Window() MonthWindow {
	return MonthWindow{Start: s.StartMonth, End: s.EndMonth}
}

// FindDriver returns the index of the driver with id, or -1.
func (s *Scenario) FindDriver(id string) int {
	for i := range s.Drivers {
		if s.Drivers[i].ID == id {
			return i
		}
	}
	return -1
}

// SortedDrivers returns the drivers ordered by SortOrder, keeping insertion
// order for ties.
func (s *Scenario) SortedDrivers() []Driver {
	out := append([]Driver(nil), s.Drivers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// DriverImpact is one driver's signed contribution to a month.
type DriverImpact struct {
	DriverID   string          `json:"driver_id"`
	DriverName string          `json:"driver_name"`
	DriverType DriverType      `json:"driver_type"`
	Impact     decimal.Decimal `json:"impact"`
}

// MonthlyImpact is the aggregated scenario effect for one calendar month.
type MonthlyImpact struct {
	Month           Month           `json:"month"`
	Year            int             `json:"year"`
	TotalImpact     decimal.Decimal `json:"total_impact"`
	FinalRevenue    decimal.Decimal `json:"final_revenue"`
	DriverBreakdown []DriverImpact  `json:"driver_breakdown"`
}

// Period returns the impact's grid column.
func (mi MonthlyImpact) Period() MonthYear {
	return MonthYear{Year: mi.Year, Month: mi.Month}
}

// ScenarioSummary condenses a scenario's 12-month impact curve.
type ScenarioSummary struct {
	ScenarioID        string          `json:"scenario_id"`
	ScenarioName      string          `json:"scenario_name"`
	AnnualBaseRevenue decimal.Decimal `json:"annual_base_revenue"`
	TotalImpact       decimal.Decimal `json:"total_impact"`
	AverageImpact     decimal.Decimal `json:"average_monthly_impact"`
	GrowthPercent     decimal.Decimal `json:"growth_percent"`
	PeakMonth         Month           `json:"peak_month"`
	PeakImpact        decimal.Decimal `json:"peak_impact"`
	DriverTotals      []DriverImpact  `json:"driver_totals"`
	Impacts           []MonthlyImpact `json:"impacts"`
}
