package domain

import "github.com/shopspring/decimal"

// CellKey addresses one forecast grid cell.
type CellKey struct {
	AccountCode string    `json:"account_code" yaml:"account_code"`
	Period      MonthYear `json:"period" yaml:"period"`
}

func (k CellKey) String() string {
	return k.AccountCode + "@" + k.Period.String()
}

// ForecastCell holds the forecast for one GL account and month. Once an
// actual amount is recorded the cell is locked and its forecast is frozen.
type ForecastCell struct {
	AccountCode string           `json:"account_code" yaml:"account_code"`
	Period      MonthYear        `json:"period" yaml:"period"`
	Forecast    decimal.Decimal  `json:"forecast" yaml:"forecast"`
	Actual      *decimal.Decimal `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// Key returns the cell's grid address.
func (c ForecastCell) Key() CellKey {
	return CellKey{AccountCode: c.AccountCode, Period: c.Period}
}

// Locked reports whether an actual has been recorded.
func (c ForecastCell) Locked() bool {
	return c.Actual != nil
}

// Variance is actual minus forecast; zero while the cell is unlocked.
func (c ForecastCell) Variance() decimal.Decimal {
	if c.Actual == nil {
		return decimal.Zero
	}
	return c.Actual.Sub(c.Forecast)
}
