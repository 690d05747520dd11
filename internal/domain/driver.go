package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DriverType identifies one of the eight driver formulas.
type DriverType string

const (
	DriverVolumePrice     DriverType = "volume_price"
	DriverCAC             DriverType = "cac"
	DriverRetention       DriverType = "retention"
	DriverFunnel          DriverType = "funnel"
	DriverSeasonality     DriverType = "seasonality"
	DriverContract        DriverType = "contract"
	DriverRepProductivity DriverType = "rep_productivity"
	DriverDiscounting     DriverType = "discounting"
)

// AllDriverTypes lists every supported driver type in display order.
func AllDriverTypes() []DriverType {
	return []DriverType{
		DriverVolumePrice,
		DriverCAC,
		DriverRetention,
		DriverFunnel,
		DriverSeasonality,
		DriverContract,
		DriverRepProductivity,
		DriverDiscounting,
	}
}

// Known reports whether t is one of the supported driver types.
func (t DriverType) Known() bool {
	for _, known := range AllDriverTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// DriverParameters is the closed set of driver payloads. Only the eight
// parameter records in this package implement it.
type DriverParameters interface {
	DriverType() DriverType
	isDriverParameters()
}

// VolumePriceParams splits growth into unit volume and unit price.
type VolumePriceParams struct {
	BaseUnits           decimal.Decimal `json:"base_units" yaml:"base_units"`
	BasePrice           decimal.Decimal `json:"base_price" yaml:"base_price"`
	VolumeGrowthPercent decimal.Decimal `json:"volume_growth_percent" yaml:"volume_growth_percent"`
	PriceGrowthPercent  decimal.Decimal `json:"price_growth_percent" yaml:"price_growth_percent"`
}

// CACParams models paid acquisition with a payback ramp.
type CACParams struct {
	MarketingSpendMonthly     decimal.Decimal `json:"marketing_spend_monthly" yaml:"marketing_spend_monthly"`
	CustomersAcquired         decimal.Decimal `json:"customers_acquired" yaml:"customers_acquired"`
	AverageRevenuePerCustomer decimal.Decimal `json:"average_revenue_per_customer" yaml:"average_revenue_per_customer"`
	CACPaybackMonths          int             `json:"cac_payback_months" yaml:"cac_payback_months"`
}

// RetentionParams models an annual churn-rate improvement.
type RetentionParams struct {
	CurrentChurnRatePercent decimal.Decimal `json:"current_churn_rate_percent" yaml:"current_churn_rate_percent"`
	TargetChurnRatePercent  decimal.Decimal `json:"target_churn_rate_percent" yaml:"target_churn_rate_percent"`
	AverageCustomerCount    decimal.Decimal `json:"average_customer_count" yaml:"average_customer_count"`
	CurrentMRR              decimal.Decimal `json:"current_mrr" yaml:"current_mrr"`
}

// FunnelStage is one conversion step of a sales funnel.
type FunnelStage struct {
	Name                  string          `json:"name" yaml:"name"`
	ConversionRatePercent decimal.Decimal `json:"conversion_rate_percent" yaml:"conversion_rate_percent"`
}

// FunnelParams chains monthly leads through conversion stages.
type FunnelParams struct {
	LeadsPerMonth    decimal.Decimal `json:"leads_per_month" yaml:"leads_per_month"`
	Stages           []FunnelStage   `json:"stages" yaml:"stages"`
	AverageDealSize  decimal.Decimal `json:"average_deal_size" yaml:"average_deal_size"`
	SalesCycleMonths int             `json:"sales_cycle_months" yaml:"sales_cycle_months"`
}

// SeasonalityParams scales a baseline by a per-month multiplier. A missing
// month is neutral (1.0).
type SeasonalityParams struct {
	BaselineRevenue decimal.Decimal           `json:"baseline_revenue" yaml:"baseline_revenue"`
	Multipliers     map[Month]decimal.Decimal `json:"monthly_multipliers" yaml:"monthly_multipliers"`
}

// Multiplier returns the multiplier for m, defaulting to 1.
func (p SeasonalityParams) Multiplier(m Month) decimal.Decimal {
	if v, ok := p.Multipliers[m]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}

// ContractParams models renewal and expansion bumps on new ARR.
type ContractParams struct {
	NewARR                      decimal.Decimal `json:"new_arr" yaml:"new_arr"`
	AverageContractLengthMonths int             `json:"average_contract_length_months" yaml:"average_contract_length_months"`
	RenewalRatePercent          decimal.Decimal `json:"renewal_rate_percent" yaml:"renewal_rate_percent"`
	ExpansionRevenuePercent     decimal.Decimal `json:"expansion_revenue_percent" yaml:"expansion_revenue_percent"`
}

// RepProductivityParams ramps newly hired reps into effective headcount.
type RepProductivityParams struct {
	CurrentReps           int             `json:"current_reps" yaml:"current_reps"`
	NewHires              int             `json:"new_hires" yaml:"new_hires"`
	RampTimeMonths        int             `json:"ramp_time_months" yaml:"ramp_time_months"`
	QuotaPerRep           decimal.Decimal `json:"quota_per_rep" yaml:"quota_per_rep"`
	AttainmentRatePercent decimal.Decimal `json:"attainment_rate_percent" yaml:"attainment_rate_percent"`
}

// DiscountingParams trades price for volume on part of the revenue base.
type DiscountingParams struct {
	DiscountPercent        decimal.Decimal `json:"discount_percent" yaml:"discount_percent"`
	AffectedRevenuePercent decimal.Decimal `json:"affected_revenue_percent" yaml:"affected_revenue_percent"`
	VolumeLiftPercent      decimal.Decimal `json:"volume_lift_percent" yaml:"volume_lift_percent"`
	GrossMarginPercent     decimal.Decimal `json:"gross_margin_percent,omitempty" yaml:"gross_margin_percent,omitempty"`
}

func (VolumePriceParams) DriverType() DriverType     { return DriverVolumePrice }
func (CACParams) DriverType() DriverType             { return DriverCAC }
func (RetentionParams) DriverType() DriverType       { return DriverRetention }
func (FunnelParams) DriverType() DriverType          { return DriverFunnel }
func (SeasonalityParams) DriverType() DriverType     { return DriverSeasonality }
func (ContractParams) DriverType() DriverType        { return DriverContract }
func (RepProductivityParams) DriverType() DriverType { return DriverRepProductivity }
func (DiscountingParams) DriverType() DriverType     { return DriverDiscounting }

func (VolumePriceParams) isDriverParameters()     {}
func (CACParams) isDriverParameters()             {}
func (RetentionParams) isDriverParameters()       {}
func (FunnelParams) isDriverParameters()          {}
func (SeasonalityParams) isDriverParameters()     {}
func (ContractParams) isDriverParameters()        {}
func (RepProductivityParams) isDriverParameters() {}
func (DiscountingParams) isDriverParameters()     {}

// NewParameters returns the zero payload for t.
func NewParameters(t DriverType) (DriverParameters, error) {
	switch t {
	case DriverVolumePrice:
		return VolumePriceParams{}, nil
	case DriverCAC:
		return CACParams{}, nil
	case DriverRetention:
		return RetentionParams{}, nil
	case DriverFunnel:
		return FunnelParams{}, nil
	case DriverSeasonality:
		return SeasonalityParams{}, nil
	case DriverContract:
		return ContractParams{}, nil
	case DriverRepProductivity:
		return RepProductivityParams{}, nil
	case DriverDiscounting:
		return DiscountingParams{}, nil
	}
	return nil, &MissingDriverTemplateError{DriverType: string(t)}
}

// Driver is a typed, parameterised rule producing a monthly revenue delta.
type Driver struct {
	ID         string           `json:"id" yaml:"id"`
	ScenarioID string           `json:"scenario_id,omitempty" yaml:"scenario_id,omitempty"`
	Name       string           `json:"driver_name" yaml:"driver_name"`
	Type       DriverType       `json:"driver_type" yaml:"driver_type"`
	IsActive   bool             `json:"is_active" yaml:"is_active"`
	StartMonth Month            `json:"start_month,omitempty" yaml:"start_month,omitempty"`
	EndMonth   Month            `json:"end_month,omitempty" yaml:"end_month,omitempty"`
	SortOrder  int              `json:"sort_order" yaml:"sort_order"`
	CreatedAt  time.Time        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Parameters DriverParameters `json:"parameters" yaml:"parameters"`
}

// NewDriver builds an active, full-year driver around params.
func NewDriver(id, name string, params DriverParameters) Driver {
	return Driver{
		ID:         id,
		Name:       name,
		Type:       params.DriverType(),
		IsActive:   true,
		StartMonth: January,
		EndMonth:   December,
		Parameters: params,
	}
}

// Window returns the driver's month window.
func (d Driver) Window() MonthWindow {
	return MonthWindow{Start: d.StartMonth, End: d.EndMonth}
}

// AppliesIn reports whether the driver contributes in month m.
func (d Driver) AppliesIn(m Month) bool {
	return d.IsActive && d.Window().Contains(m)
}

// Clone returns a copy that shares no slices or maps with d.
func (d Driver) Clone() Driver {
	out := d
	out.Parameters = cloneParameters(d.Parameters)
	return out
}

func cloneParameters(params DriverParameters) DriverParameters {
	switch p := params.(type) {
	case FunnelParams:
		p.Stages = append([]FunnelStage(nil), p.Stages...)
		return p
	case SeasonalityParams:
		if p.Multipliers != nil {
			m := make(map[Month]decimal.Decimal, len(p.Multipliers))
			for k, v := range p.Multipliers {
				m[k] = v
			}
			p.Multipliers = m
		}
		return p
	}
	return params
}
