package calculation

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidateScenario returns every problem that would make the scenario's
// drivers undefined or meaningless. An empty slice means the scenario is
// ready to calculate.
func ValidateScenario(s *domain.Scenario) []string {
	if s == nil {
		return []string{"scenario is required"}
	}

	var msgs []string
	if s.Name == "" {
		msgs = append(msgs, "scenario name is required")
	}
	if s.BaseRevenue.IsNegative() {
		msgs = append(msgs, "base revenue cannot be negative")
	}
	if s.StartYear <= 0 {
		msgs = append(msgs, "start year is required")
	}
	if s.EndYear != 0 && s.EndYear < s.StartYear {
		msgs = append(msgs, fmt.Sprintf("end year %d is before start year %d", s.EndYear, s.StartYear))
	}
	msgs = append(msgs, validateMonths("scenario", s.StartMonth, s.EndMonth)...)

	seen := make(map[string]bool, len(s.Drivers))
	for i, d := range s.Drivers {
		label := driverLabel(i, d)
		if d.ID != "" {
			if seen[d.ID] {
				msgs = append(msgs, fmt.Sprintf("%s: duplicate driver id", label))
			}
			seen[d.ID] = true
		}
		for _, m := range ValidateDriver(d) {
			msgs = append(msgs, label+": "+m)
		}
	}
	return msgs
}

func driverLabel(i int, d domain.Driver) string {
	if d.Name != "" {
		return fmt.Sprintf("driver %d (%s)", i+1, d.Name)
	}
	return fmt.Sprintf("driver %d", i+1)
}

func validateMonths(owner string, start, end domain.Month) []string {
	var msgs []string
	if start != 0 && !start.Valid() {
		msgs = append(msgs, fmt.Sprintf("%s start month %d is not a calendar month", owner, int(start)))
	}
	if end != 0 && !end.Valid() {
		msgs = append(msgs, fmt.Sprintf("%s end month %d is not a calendar month", owner, int(end)))
	}
	return msgs
}

// ValidateDriver checks a single driver's common fields and payload.
func ValidateDriver(d domain.Driver) []string {
	var msgs []string
	if d.Name == "" {
		msgs = append(msgs, "name is required")
	}
	msgs = append(msgs, validateMonths("driver", d.StartMonth, d.EndMonth)...)

	if d.Parameters == nil {
		if !d.Type.Known() {
			return append(msgs, fmt.Sprintf("unknown driver type %q", d.Type))
		}
		return append(msgs, "parameters are required")
	}
	if d.Type != "" && d.Type != d.Parameters.DriverType() {
		msgs = append(msgs, fmt.Sprintf("driver type %s does not match %s parameters", d.Type, d.Parameters.DriverType()))
	}

	switch p := d.Parameters.(type) {
	case domain.VolumePriceParams:
		msgs = append(msgs, nonNegative("base units", p.BaseUnits)...)
		msgs = append(msgs, nonNegative("base price", p.BasePrice)...)
	case domain.CACParams:
		msgs = append(msgs, nonNegative("marketing spend", p.MarketingSpendMonthly)...)
		msgs = append(msgs, nonNegative("customers acquired", p.CustomersAcquired)...)
		msgs = append(msgs, nonNegative("average revenue per customer", p.AverageRevenuePerCustomer)...)
		if p.CACPaybackMonths <= 0 {
			msgs = append(msgs, "CAC payback months must be greater than zero")
		}
	case domain.RetentionParams:
		msgs = append(msgs, percentRange("current churn rate", p.CurrentChurnRatePercent)...)
		msgs = append(msgs, percentRange("target churn rate", p.TargetChurnRatePercent)...)
		if !p.AverageCustomerCount.IsPositive() {
			msgs = append(msgs, "average customer count must be greater than zero")
		}
		msgs = append(msgs, nonNegative("current MRR", p.CurrentMRR)...)
	case domain.FunnelParams:
		msgs = append(msgs, nonNegative("leads per month", p.LeadsPerMonth)...)
		if len(p.Stages) == 0 {
			msgs = append(msgs, "funnel needs at least one stage")
		}
		for i, stage := range p.Stages {
			name := stage.Name
			if name == "" {
				name = fmt.Sprintf("stage %d", i+1)
			}
			msgs = append(msgs, percentRange(name+" conversion rate", stage.ConversionRatePercent)...)
		}
		msgs = append(msgs, nonNegative("average deal size", p.AverageDealSize)...)
		if p.SalesCycleMonths <= 0 {
			msgs = append(msgs, "sales cycle months must be greater than zero")
		}
	case domain.SeasonalityParams:
		msgs = append(msgs, nonNegative("baseline revenue", p.BaselineRevenue)...)
		for _, m := range domain.AllMonths() {
			if v, ok := p.Multipliers[m]; ok && v.IsNegative() {
				msgs = append(msgs, fmt.Sprintf("%s multiplier cannot be negative", m))
			}
		}
		for m := range p.Multipliers {
			if !m.Valid() {
				msgs = append(msgs, fmt.Sprintf("multiplier for month %d is not a calendar month", int(m)))
			}
		}
	case domain.ContractParams:
		msgs = append(msgs, nonNegative("new ARR", p.NewARR)...)
		if p.AverageContractLengthMonths <= 0 {
			msgs = append(msgs, "average contract length months must be greater than zero")
		}
		msgs = append(msgs, nonNegative("renewal rate", p.RenewalRatePercent)...)
	case domain.RepProductivityParams:
		if p.CurrentReps < 0 {
			msgs = append(msgs, "current reps cannot be negative")
		}
		if p.NewHires < 0 {
			msgs = append(msgs, "new hires cannot be negative")
		}
		if p.RampTimeMonths < 0 {
			msgs = append(msgs, "ramp time months cannot be negative")
		}
		msgs = append(msgs, nonNegative("quota per rep", p.QuotaPerRep)...)
		msgs = append(msgs, nonNegative("attainment rate", p.AttainmentRatePercent)...)
	case domain.DiscountingParams:
		msgs = append(msgs, percentRange("discount", p.DiscountPercent)...)
		msgs = append(msgs, percentRange("affected revenue", p.AffectedRevenuePercent)...)
		msgs = append(msgs, nonNegative("volume lift", p.VolumeLiftPercent)...)
	}
	return msgs
}

func nonNegative(field string, v decimal.Decimal) []string {
	if v.IsNegative() {
		return []string{field + " cannot be negative"}
	}
	return nil
}

func percentRange(field string, v decimal.Decimal) []string {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return []string{field + " must be between 0 and 100 percent"}
	}
	return nil
}
