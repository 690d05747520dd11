package domain

import "github.com/shopspring/decimal"

// AccountForecast seeds one GL account's forecast for a year. Monthly is
// the flat amount for every month; Months overrides individual months.
type AccountForecast struct {
	Code    string                    `yaml:"code" json:"code"`
	Name    string                    `yaml:"name,omitempty" json:"name,omitempty"`
	Year    int                       `yaml:"year,omitempty" json:"year,omitempty"`
	Monthly decimal.Decimal           `yaml:"monthly" json:"monthly"`
	Months  map[Month]decimal.Decimal `yaml:"months,omitempty" json:"months,omitempty"`
}

// Amount returns the seeded forecast for m.
func (a AccountForecast) Amount(m Month) decimal.Decimal {
	if v, ok := a.Months[m]; ok {
		return v
	}
	return a.Monthly
}

// ActualEntry records a booked amount that locks a grid cell.
type ActualEntry struct {
	AccountCode string          `yaml:"account_code" json:"account_code"`
	Year        int             `yaml:"year,omitempty" json:"year,omitempty"`
	Month       Month           `yaml:"month" json:"month"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
}

// Workspace is the complete input document: the forecast grid seed, the
// scenarios to evaluate against it and the adjustments to apply.
type Workspace struct {
	Name           string              `yaml:"name" json:"name"`
	Year           int                 `yaml:"year" json:"year"`
	AdjustmentMode string              `yaml:"adjustment_mode,omitempty" json:"adjustment_mode,omitempty"`
	Accounts       []AccountForecast   `yaml:"accounts" json:"accounts"`
	Actuals        []ActualEntry       `yaml:"actuals,omitempty" json:"actuals,omitempty"`
	Scenarios      []Scenario          `yaml:"scenarios" json:"scenarios"`
	Adjustments    []AppliedAdjustment `yaml:"adjustments,omitempty" json:"adjustments,omitempty"`
	Employees      []Employee          `yaml:"employees,omitempty" json:"employees,omitempty"`
}

// FindScenario looks a scenario up by ID, then by name.
func (w *Workspace) FindScenario(key string) (*Scenario, bool) {
	for i := range w.Scenarios {
		if w.Scenarios[i].ID == key {
			return &w.Scenarios[i], true
		}
	}
	for i := range w.Scenarios {
		if w.Scenarios[i].Name == key {
			return &w.Scenarios[i], true
		}
	}
	return nil, false
}

// FindEmployee looks an employee up by ID.
func (w *Workspace) FindEmployee(id string) (*Employee, bool) {
	for i := range w.Employees {
		if w.Employees[i].ID == id {
			return &w.Employees[i], true
		}
	}
	return nil, false
}

// HasAccount reports whether code is seeded in the workspace.
func (w *Workspace) HasAccount(code string) bool {
	for _, a := range w.Accounts {
		if a.Code == code {
			return true
		}
	}
	return false
}
