package forecast

import (
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Predicate selects grid cells.
type Predicate func(domain.ForecastCell) bool

// Transform maps a forecast amount to its new value.
type Transform func(decimal.Decimal) decimal.Decimal

// ForAccount matches one account code.
func ForAccount(code string) Predicate {
	return func(c domain.ForecastCell) bool {
		return c.AccountCode == code
	}
}

// InWindow matches months inside w in any year.
func InWindow(w domain.MonthWindow) Predicate {
	return func(c domain.ForecastCell) bool {
		return w.Contains(c.Period.Month)
	}
}

// InYear matches one calendar year.
func InYear(year int) Predicate {
	return func(c domain.ForecastCell) bool {
		return c.Period.Year == year
	}
}

// InPeriod matches a single month-year.
func InPeriod(period domain.MonthYear) Predicate {
	return func(c domain.ForecastCell) bool {
		return c.Period == period
	}
}

// Covered matches the cells an adjustment targets.
func Covered(adj domain.AppliedAdjustment) Predicate {
	return func(c domain.ForecastCell) bool {
		return c.AccountCode == adj.AccountCode && adj.Covers(c.Period)
	}
}

// All matches when every predicate does.
func All(preds ...Predicate) Predicate {
	return func(c domain.ForecastCell) bool {
		for _, p := range preds {
			if p != nil && !p(c) {
				return false
			}
		}
		return true
	}
}

// Scale multiplies by (1 + percent/100).
func Scale(percent decimal.Decimal) Transform {
	factor := decimal.NewFromInt(1).Add(percent.Div(hundred))
	return func(v decimal.Decimal) decimal.Decimal {
		return v.Mul(factor)
	}
}

// Unscale divides by (1 + percent/100). A factor of zero leaves v as is.
func Unscale(percent decimal.Decimal) Transform {
	factor := decimal.NewFromInt(1).Add(percent.Div(hundred))
	return func(v decimal.Decimal) decimal.Decimal {
		if factor.IsZero() {
			return v
		}
		return v.Div(factor)
	}
}

// Shift adds delta.
func Shift(delta decimal.Decimal) Transform {
	return func(v decimal.Decimal) decimal.Decimal {
		return v.Add(delta)
	}
}

// Unshift subtracts delta.
func Unshift(delta decimal.Decimal) Transform {
	return func(v decimal.Decimal) decimal.Decimal {
		return v.Sub(delta)
	}
}

// Set overwrites with amount.
func Set(amount decimal.Decimal) Transform {
	return func(decimal.Decimal) decimal.Decimal {
		return amount
	}
}
