package calculation

import (
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// DRIVER FORMULA CONVENTIONS:
//
// 1. monthIndex is the zero-based calendar position (Jan = 0) inside the
//    12-month scenario horizon.
// 2. Percent parameters are entered as percent numbers (12 = 12%).
// 3. Every calculator returns the delta against a flat, no-growth baseline.
// 4. A parameter that would divide by zero yields a zero delta together with
//    an *domain.InvalidParameterError; callers decide whether to surface it.

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(domain.MonthsPerYear)
	one           = decimal.NewFromInt(1)
)

func percent(v decimal.Decimal) decimal.Decimal {
	return v.Div(hundred)
}

func ramp(monthIndex, months int) decimal.Decimal {
	return decimal.NewFromInt(int64(monthIndex)).Div(decimal.NewFromInt(int64(months)))
}

func invalid(t domain.DriverType, param, reason string) error {
	return &domain.InvalidParameterError{DriverType: t, Parameter: param, Reason: reason}
}

// VolumePriceImpact ramps unit volume and unit price linearly towards their
// annual growth targets.
func VolumePriceImpact(p domain.VolumePriceParams, monthIndex int) (decimal.Decimal, error) {
	progress := ramp(monthIndex, domain.MonthsPerYear)

	volumeMultiplier := one.Add(percent(p.VolumeGrowthPercent).Mul(progress))
	priceMultiplier := one.Add(percent(p.PriceGrowthPercent).Mul(progress))

	newRevenue := p.BaseUnits.Mul(volumeMultiplier).Mul(p.BasePrice.Mul(priceMultiplier))
	baseRevenue := p.BaseUnits.Mul(p.BasePrice)

	return newRevenue.Sub(baseRevenue), nil
}

// CACImpact recognises acquired-customer revenue on a linear payback ramp.
func CACImpact(p domain.CACParams, monthIndex int) (decimal.Decimal, error) {
	if p.CACPaybackMonths <= 0 {
		return decimal.Zero, invalid(domain.DriverCAC, "cac_payback_months", "must be greater than zero")
	}

	fullMonthlyRevenue := p.CustomersAcquired.Mul(p.AverageRevenuePerCustomer)
	if monthIndex >= p.CACPaybackMonths {
		return fullMonthlyRevenue, nil
	}
	return fullMonthlyRevenue.Mul(ramp(monthIndex, p.CACPaybackMonths)), nil
}

// CACMetrics describes acquisition efficiency for one month.
type CACMetrics struct {
	CostPerCustomer    decimal.Decimal `json:"cost_per_customer"`
	FullMonthlyRevenue decimal.Decimal `json:"full_monthly_revenue"`
	PaybackProgress    decimal.Decimal `json:"payback_progress"`
}

// CalculateCACMetrics reports CAC per customer and payback progress. Zero
// customers or zero payback months give zero for the affected figure.
func CalculateCACMetrics(p domain.CACParams, monthIndex int) CACMetrics {
	m := CACMetrics{
		FullMonthlyRevenue: p.CustomersAcquired.Mul(p.AverageRevenuePerCustomer),
	}
	if p.CustomersAcquired.IsPositive() {
		m.CostPerCustomer = p.MarketingSpendMonthly.Div(p.CustomersAcquired)
	}
	if p.CACPaybackMonths > 0 {
		m.PaybackProgress = decimal.Min(one, ramp(monthIndex, p.CACPaybackMonths))
	}
	return m
}

// RetentionImpact spreads the annual churn improvement evenly over twelve
// months and values the retained customers at current revenue per customer.
func RetentionImpact(p domain.RetentionParams, monthIndex int) (decimal.Decimal, error) {
	if !p.AverageCustomerCount.IsPositive() {
		return decimal.Zero, invalid(domain.DriverRetention, "average_customer_count", "must be greater than zero")
	}

	annualImprovement := percent(p.CurrentChurnRatePercent.Sub(p.TargetChurnRatePercent))
	monthlyImprovement := annualImprovement.Div(monthsPerYear)

	retained := p.AverageCustomerCount.Mul(monthlyImprovement).Mul(decimal.NewFromInt(int64(monthIndex)))
	revenuePerCustomer := p.CurrentMRR.Div(p.AverageCustomerCount)

	return retained.Mul(revenuePerCustomer), nil
}

// FunnelDealsWon chains monthly leads through every stage conversion rate.
func FunnelDealsWon(p domain.FunnelParams) decimal.Decimal {
	deals := p.LeadsPerMonth
	for _, stage := range p.Stages {
		deals = deals.Mul(percent(stage.ConversionRatePercent))
	}
	return deals
}

// FunnelMetrics lists the volume surviving each stage.
type FunnelMetrics struct {
	StageVolumes []decimal.Decimal `json:"stage_volumes"`
	DealsWon     decimal.Decimal   `json:"deals_won"`
	FullRevenue  decimal.Decimal   `json:"full_monthly_revenue"`
}

// CalculateFunnelMetrics reports per-stage volumes and deals won.
func CalculateFunnelMetrics(p domain.FunnelParams) FunnelMetrics {
	volumes := make([]decimal.Decimal, 0, len(p.Stages))
	volume := p.LeadsPerMonth
	for _, stage := range p.Stages {
		volume = volume.Mul(percent(stage.ConversionRatePercent))
		volumes = append(volumes, volume)
	}
	return FunnelMetrics{
		StageVolumes: volumes,
		DealsWon:     volume,
		FullRevenue:  volume.Mul(p.AverageDealSize),
	}
}

// FunnelImpact recognises won-deal revenue on a ramp until the sales cycle
// has elapsed.
func FunnelImpact(p domain.FunnelParams, monthIndex int) (decimal.Decimal, error) {
	if p.SalesCycleMonths <= 0 {
		return decimal.Zero, invalid(domain.DriverFunnel, "sales_cycle_months", "must be greater than zero")
	}

	revenue := FunnelDealsWon(p).Mul(p.AverageDealSize)
	if monthIndex >= p.SalesCycleMonths {
		return revenue, nil
	}
	return revenue.Mul(ramp(monthIndex, p.SalesCycleMonths)), nil
}

// SeasonalityImpact scales the baseline by the month's multiplier minus one.
// A zero baseline yields zero.
func SeasonalityImpact(p domain.SeasonalityParams, month domain.Month) (decimal.Decimal, error) {
	return p.BaselineRevenue.Mul(p.Multiplier(month).Sub(one)), nil
}

// ContractImpact adds renewal and expansion bumps on contract anniversaries.
// The recurring newARR/12 component is not part of the delta.
func ContractImpact(p domain.ContractParams, monthIndex int) (decimal.Decimal, error) {
	if p.AverageContractLengthMonths <= 0 {
		return decimal.Zero, invalid(domain.DriverContract, "average_contract_length_months", "must be greater than zero")
	}
	if monthIndex == 0 || monthIndex%p.AverageContractLengthMonths != 0 {
		return decimal.Zero, nil
	}

	monthlyARR := p.NewARR.Div(monthsPerYear)
	renewal := monthlyARR.Mul(percent(p.RenewalRatePercent))
	expansion := renewal.Mul(percent(p.ExpansionRevenuePercent))

	return renewal.Add(expansion), nil
}

// RampedHires returns how many new hires count as productive in a month.
// Hires contribute nothing until the ramp delay has passed.
func RampedHires(p domain.RepProductivityParams, monthIndex int) int {
	elapsed := monthIndex - p.RampTimeMonths
	if elapsed < 0 {
		elapsed = 0
	}
	ramped := elapsed * p.NewHires
	if ramped > p.NewHires {
		ramped = p.NewHires
	}
	return ramped
}

// RepProductivityImpact values the effective headcount above current reps at
// quota times attainment.
func RepProductivityImpact(p domain.RepProductivityParams, monthIndex int) (decimal.Decimal, error) {
	effectiveReps := p.CurrentReps + RampedHires(p, monthIndex)
	additional := decimal.NewFromInt(int64(effectiveReps - p.CurrentReps))

	return additional.Mul(p.QuotaPerRep).Mul(percent(p.AttainmentRatePercent)), nil
}

// DiscountingBreakdown itemises a discount programme.
type DiscountingBreakdown struct {
	AffectedRevenue decimal.Decimal `json:"affected_revenue"`
	VolumeIncrease  decimal.Decimal `json:"volume_increase"`
	DiscountCost    decimal.Decimal `json:"discount_cost"`
	RevenueImpact   decimal.Decimal `json:"revenue_impact"`
	MarginImpact    decimal.Decimal `json:"margin_impact"`
}

// CalculateDiscounting returns the full breakdown. The margin impact is the
// extra volume at gross margin less the discount cost; it never feeds back
// into the revenue delta.
func CalculateDiscounting(p domain.DiscountingParams, baseRevenue decimal.Decimal) DiscountingBreakdown {
	affected := baseRevenue.Mul(percent(p.AffectedRevenuePercent))
	volumeIncrease := affected.Mul(percent(p.VolumeLiftPercent))
	discountCost := affected.Add(volumeIncrease).Mul(percent(p.DiscountPercent))

	return DiscountingBreakdown{
		AffectedRevenue: affected,
		VolumeIncrease:  volumeIncrease,
		DiscountCost:    discountCost,
		RevenueImpact:   volumeIncrease.Sub(discountCost),
		MarginImpact:    volumeIncrease.Mul(percent(p.GrossMarginPercent)).Sub(discountCost),
	}
}

// DiscountingImpact returns the revenue delta of a discount programme.
func DiscountingImpact(p domain.DiscountingParams, baseRevenue decimal.Decimal) (decimal.Decimal, error) {
	return CalculateDiscounting(p, baseRevenue).RevenueImpact, nil
}
