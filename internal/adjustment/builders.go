package adjustment

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Target names the account and window an adjustment should land on.
type Target struct {
	AccountCode string
	StartMonth  domain.Month
	EndMonth    domain.Month
	Year        int
}

// FromScenario turns a scenario's impact curve into a linked draft
// adjustment. With a positive base revenue the annual impact becomes a
// percentage of annual base; otherwise the average monthly impact is used
// as a fixed amount.
func FromScenario(scenario *domain.Scenario, impacts []domain.MonthlyImpact, target Target) (domain.AppliedAdjustment, error) {
	if scenario == nil {
		return domain.AppliedAdjustment{}, fmt.Errorf("scenario cannot be nil")
	}
	if len(impacts) == 0 {
		return domain.AppliedAdjustment{}, fmt.Errorf("scenario %s has no impacts", scenario.Name)
	}

	total := decimal.Zero
	for _, mi := range impacts {
		total = total.Add(mi.TotalImpact)
	}

	adj := domain.AppliedAdjustment{
		AccountCode:      target.AccountCode,
		Name:             scenario.Name,
		Description:      scenario.Description,
		StartMonth:       target.StartMonth,
		EndMonth:         target.EndMonth,
		Year:             target.Year,
		SourceScenarioID: scenario.ID,
	}
	if adj.Year == 0 {
		adj.Year = scenario.StartYear
	}

	annualBase := scenario.BaseRevenue.Mul(decimal.NewFromInt(domain.MonthsPerYear))
	if annualBase.IsPositive() {
		adj.Type = domain.AdjustmentPercentage
		adj.Value = total.Div(annualBase).Mul(hundred).Round(4)
	} else {
		adj.Type = domain.AdjustmentFixed
		adj.Value = total.Div(decimal.NewFromInt(int64(len(impacts)))).Round(2)
	}
	if adj.Description == "" {
		adj.Description = fmt.Sprintf("Derived from scenario %s (annual impact %s)", scenario.Name, total.StringFixed(2))
	}
	return adj, nil
}

// QuickAdjustment builds a flat ad-hoc draft adjustment.
func QuickAdjustment(name string, adjType domain.AdjustmentType, value decimal.Decimal, target Target) domain.AppliedAdjustment {
	return domain.AppliedAdjustment{
		AccountCode: target.AccountCode,
		Name:        name,
		Type:        adjType,
		Value:       value,
		StartMonth:  target.StartMonth,
		EndMonth:    target.EndMonth,
		Year:        target.Year,
	}
}

// FromPayroll adds an employee's monthly loaded cost (gross plus employer
// FICA) to a payroll GL account as a fixed draft adjustment.
func FromPayroll(pc *calculation.PayrollCalculator, emp domain.Employee, target Target) (domain.AppliedAdjustment, error) {
	if pc == nil {
		pc = calculation.NewPayrollCalculator2025()
	}
	cost, err := pc.MonthlyLoadedCost(emp)
	if err != nil {
		return domain.AppliedAdjustment{}, fmt.Errorf("payroll cost for %s: %w", emp.ID, err)
	}

	if target.AccountCode == "" {
		target.AccountCode = emp.AccountCode
	}
	name := emp.Name
	if name == "" {
		name = emp.ID
	}

	adj := QuickAdjustment("Payroll: "+name, domain.AdjustmentFixed, cost, target)
	adj.Description = fmt.Sprintf("Monthly loaded payroll cost for %s", name)
	return adj, nil
}
