package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PayType distinguishes salaried from hourly employees.
type PayType string

const (
	PaySalaried PayType = "salaried"
	PayHourly   PayType = "hourly"
)

// PayPeriod is a payroll frequency.
type PayPeriod string

const (
	PayWeekly      PayPeriod = "weekly"
	PayBiweekly    PayPeriod = "biweekly"
	PaySemimonthly PayPeriod = "semimonthly"
	PayMonthly     PayPeriod = "monthly"
)

// PeriodsPerYear returns how many pay periods fall in a year.
func (p PayPeriod) PeriodsPerYear() (int, error) {
	switch p {
	case PayWeekly:
		return 52, nil
	case PayBiweekly:
		return 26, nil
	case PaySemimonthly:
		return 24, nil
	case PayMonthly:
		return 12, nil
	}
	return 0, fmt.Errorf("unknown pay period %q", p)
}

// Employee carries the inputs of the payroll lookup.
type Employee struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	AccountCode    string          `json:"account_code,omitempty" yaml:"account_code,omitempty"`
	PayType        PayType         `json:"pay_type" yaml:"pay_type"`
	AnnualSalary   decimal.Decimal `json:"annual_salary,omitempty" yaml:"annual_salary,omitempty"`
	HourlyRate     decimal.Decimal `json:"hourly_rate,omitempty" yaml:"hourly_rate,omitempty"`
	HoursPerPeriod decimal.Decimal `json:"hours_per_period,omitempty" yaml:"hours_per_period,omitempty"`
	YTDWages       decimal.Decimal `json:"ytd_wages,omitempty" yaml:"ytd_wages,omitempty"`
	State          string          `json:"state,omitempty" yaml:"state,omitempty"`
}

// PayrollTaxes itemises withheld taxes for one pay period.
type PayrollTaxes struct {
	Federal            decimal.Decimal `json:"federal"`
	State              decimal.Decimal `json:"state"`
	SocialSecurity     decimal.Decimal `json:"social_security"`
	Medicare           decimal.Decimal `json:"medicare"`
	AdditionalMedicare decimal.Decimal `json:"additional_medicare"`
}

// Total sums every withheld tax.
func (t PayrollTaxes) Total() decimal.Decimal {
	return t.Federal.Add(t.State).Add(t.SocialSecurity).Add(t.Medicare).Add(t.AdditionalMedicare)
}

// PayrollResult is gross pay, taxes and net pay for one pay period.
type PayrollResult struct {
	EmployeeID   string          `json:"employee_id"`
	PayPeriod    PayPeriod       `json:"pay_period"`
	GrossPay     decimal.Decimal `json:"gross_pay"`
	Taxes        PayrollTaxes    `json:"taxes"`
	TotalTaxes   decimal.Decimal `json:"total_taxes"`
	NetPay       decimal.Decimal `json:"net_pay"`
	EmployerFICA decimal.Decimal `json:"employer_fica"`
}
