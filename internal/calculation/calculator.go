package calculation

import (
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// DriverContext carries scenario-level values some drivers read.
type DriverContext struct {
	BaseRevenue decimal.Decimal
}

// CalculateDriverImpact evaluates one driver for one month. Inactive and
// out-of-window drivers return zero. An *domain.InvalidParameterError comes
// back with a zero delta; a driver without a known payload returns
// *domain.MissingDriverTemplateError.
func CalculateDriverImpact(d domain.Driver, ctx DriverContext, month domain.Month, monthIndex int) (decimal.Decimal, error) {
	if d.Parameters == nil {
		return decimal.Zero, &domain.MissingDriverTemplateError{DriverType: string(d.Type)}
	}
	if !d.AppliesIn(month) {
		return decimal.Zero, nil
	}

	switch p := d.Parameters.(type) {
	case domain.VolumePriceParams:
		return VolumePriceImpact(p, monthIndex)
	case domain.CACParams:
		return CACImpact(p, monthIndex)
	case domain.RetentionParams:
		return RetentionImpact(p, monthIndex)
	case domain.FunnelParams:
		return FunnelImpact(p, monthIndex)
	case domain.SeasonalityParams:
		return SeasonalityImpact(p, month)
	case domain.ContractParams:
		return ContractImpact(p, monthIndex)
	case domain.RepProductivityParams:
		return RepProductivityImpact(p, monthIndex)
	case domain.DiscountingParams:
		return DiscountingImpact(p, ctx.BaseRevenue)
	}
	return decimal.Zero, &domain.MissingDriverTemplateError{DriverType: string(d.Parameters.DriverType())}
}
