package calculation

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// PAYROLL TABLE ASSUMPTIONS:
//
// 1. Federal withholding annualises the period's gross, subtracts a single
//    filer standard deduction and runs the 2025 brackets. No W-4 detail.
// 2. Social Security stops at the wage base using year-to-date wages.
// 3. Additional Medicare applies to wages above the single threshold.
// 4. State withholding is a flat per-state rate; unknown states use the
//    default rate.

// TaxBracket represents a federal tax bracket
type TaxBracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// PayrollCalculator is the table-driven payroll tax lookup.
type PayrollCalculator struct {
	Year                        int
	StandardDeduction           decimal.Decimal
	Brackets                    []TaxBracket
	SSWageBase                  decimal.Decimal
	SSRate                      decimal.Decimal
	MedicareRate                decimal.Decimal
	AdditionalMedicareRate      decimal.Decimal
	AdditionalMedicareThreshold decimal.Decimal
	StateRates                  map[string]decimal.Decimal
	DefaultStateRate            decimal.Decimal
}

// NewPayrollCalculator2025 creates a payroll calculator with 2025 tables.
func NewPayrollCalculator2025() *PayrollCalculator {
	return &PayrollCalculator{
		Year:              2025,
		StandardDeduction: decimal.NewFromInt(15000),
		Brackets: []TaxBracket{
			{decimal.Zero, decimal.NewFromInt(11925), decimal.NewFromFloat(0.10)},
			{decimal.NewFromInt(11925), decimal.NewFromInt(48475), decimal.NewFromFloat(0.12)},
			{decimal.NewFromInt(48475), decimal.NewFromInt(103350), decimal.NewFromFloat(0.22)},
			{decimal.NewFromInt(103350), decimal.NewFromInt(197300), decimal.NewFromFloat(0.24)},
			{decimal.NewFromInt(197300), decimal.NewFromInt(250525), decimal.NewFromFloat(0.32)},
			{decimal.NewFromInt(250525), decimal.NewFromInt(626350), decimal.NewFromFloat(0.35)},
			{decimal.NewFromInt(626350), decimal.NewFromInt(999999999), decimal.NewFromFloat(0.37)},
		},
		SSWageBase:                  decimal.NewFromInt(176100),
		SSRate:                      decimal.NewFromFloat(0.062),
		MedicareRate:                decimal.NewFromFloat(0.0145),
		AdditionalMedicareRate:      decimal.NewFromFloat(0.009),
		AdditionalMedicareThreshold: decimal.NewFromInt(200000),
		StateRates: map[string]decimal.Decimal{
			"PA": decimal.NewFromFloat(0.0307),
			"TX": decimal.Zero,
			"FL": decimal.Zero,
			"IL": decimal.NewFromFloat(0.0495),
			"NC": decimal.NewFromFloat(0.0425),
		},
		DefaultStateRate: decimal.NewFromFloat(0.04),
	}
}

// GrossPay returns one period's gross pay.
func (pc *PayrollCalculator) GrossPay(emp domain.Employee, period domain.PayPeriod) (decimal.Decimal, error) {
	periods, err := period.PeriodsPerYear()
	if err != nil {
		return decimal.Zero, err
	}

	switch emp.PayType {
	case domain.PaySalaried, "":
		return emp.AnnualSalary.Div(decimal.NewFromInt(int64(periods))), nil
	case domain.PayHourly:
		return emp.HourlyRate.Mul(emp.HoursPerPeriod), nil
	}
	return decimal.Zero, fmt.Errorf("unknown pay type %q for employee %s", emp.PayType, emp.ID)
}

// CalculateFederalTax calculates annual federal income tax on taxable wages.
func (pc *PayrollCalculator) CalculateFederalTax(annualWages decimal.Decimal) decimal.Decimal {
	taxableIncome := annualWages.Sub(pc.StandardDeduction)
	if taxableIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var totalTax decimal.Decimal
	for _, bracket := range pc.Brackets {
		if taxableIncome.LessThanOrEqual(bracket.Min) {
			break
		}
		incomeInBracket := decimal.Min(taxableIncome, bracket.Max).Sub(bracket.Min)
		if incomeInBracket.GreaterThan(decimal.Zero) {
			totalTax = totalTax.Add(incomeInBracket.Mul(bracket.Rate))
		}
	}
	return totalTax
}

// ficaOnPeriod splits one period's FICA given wages already paid this year.
func (pc *PayrollCalculator) ficaOnPeriod(gross, ytd decimal.Decimal) (ss, medicare, additional decimal.Decimal) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, decimal.Zero
	}

	remainingBase := decimal.Max(decimal.Zero, pc.SSWageBase.Sub(ytd))
	ss = decimal.Min(gross, remainingBase).Mul(pc.SSRate)
	medicare = gross.Mul(pc.MedicareRate)

	excessBefore := decimal.Max(decimal.Zero, ytd.Sub(pc.AdditionalMedicareThreshold))
	excessAfter := decimal.Max(decimal.Zero, ytd.Add(gross).Sub(pc.AdditionalMedicareThreshold))
	additional = excessAfter.Sub(excessBefore).Mul(pc.AdditionalMedicareRate)
	return ss, medicare, additional
}

// StateRate returns the flat withholding rate for a state code.
func (pc *PayrollCalculator) StateRate(state string) decimal.Decimal {
	if rate, ok := pc.StateRates[strings.ToUpper(state)]; ok {
		return rate
	}
	return pc.DefaultStateRate
}

// CalculatePayroll returns gross, taxes and net pay for one pay period.
// Without taxes, net pay equals gross pay.
func (pc *PayrollCalculator) CalculatePayroll(emp domain.Employee, period domain.PayPeriod, withTaxes bool) (domain.PayrollResult, error) {
	gross, err := pc.GrossPay(emp, period)
	if err != nil {
		return domain.PayrollResult{}, err
	}
	gross = gross.Round(2)

	result := domain.PayrollResult{
		EmployeeID: emp.ID,
		PayPeriod:  period,
		GrossPay:   gross,
		NetPay:     gross,
	}
	if !withTaxes {
		return result, nil
	}

	periods, _ := period.PeriodsPerYear()
	periodCount := decimal.NewFromInt(int64(periods))

	ss, medicare, additional := pc.ficaOnPeriod(gross, emp.YTDWages)
	result.Taxes = domain.PayrollTaxes{
		Federal:            pc.CalculateFederalTax(gross.Mul(periodCount)).Div(periodCount).Round(2),
		State:              gross.Mul(pc.StateRate(emp.State)).Round(2),
		SocialSecurity:     ss.Round(2),
		Medicare:           medicare.Round(2),
		AdditionalMedicare: additional.Round(2),
	}
	result.TotalTaxes = result.Taxes.Total()
	result.NetPay = gross.Sub(result.TotalTaxes)
	result.EmployerFICA = result.Taxes.SocialSecurity.Add(result.Taxes.Medicare)
	return result, nil
}

// MonthlyLoadedCost is monthly gross pay plus the employer FICA match, the
// amount a payroll GL account carries for the employee.
func (pc *PayrollCalculator) MonthlyLoadedCost(emp domain.Employee) (decimal.Decimal, error) {
	res, err := pc.CalculatePayroll(emp, domain.PayMonthly, true)
	if err != nil {
		return decimal.Zero, err
	}
	return res.GrossPay.Add(res.EmployerFICA), nil
}
