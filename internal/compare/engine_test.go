package compare

import (
	"testing"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func createTestWorkspace() *domain.Workspace {
	return &domain.Workspace{
		Name: "Plan",
		Year: 2025,
		Scenarios: []domain.Scenario{
			{
				ID:          "base",
				Name:        "Base",
				BaseRevenue: d("100000"),
				StartYear:   2025,
			},
			{
				ID:          "holiday",
				Name:        "Holiday",
				BaseRevenue: d("100000"),
				StartYear:   2025,
				Drivers: []domain.Driver{
					domain.NewDriver("season", "Holiday peak", domain.SeasonalityParams{
						BaselineRevenue: d("100000"),
						Multipliers: map[domain.Month]decimal.Decimal{domain.December: d("1.3")},
					}),
				},
			},
			{
				ID:          "promo",
				Name:        "Deep discount",
				BaseRevenue: d("100000"),
				StartYear:   2025,
				Drivers: []domain.Driver{
					domain.NewDriver("disc", "Discount", domain.DiscountingParams{
						DiscountPercent:        d("50"),
						AffectedRevenuePercent: d("100"),
						VolumeLiftPercent:      d("0"),
					}),
				},
			},
		},
	}
}

func TestCompareEngine_Compare_Templates(t *testing.T) {
	ce := NewCompareEngine(nil)

	set, err := ce.Compare(createTestWorkspace(), CompareOptions{
		BaseScenarioName: "Base",
		Templates:        []string{"holiday_season", "price_increase"},
	})
	require.NoError(t, err)

	require.NotNil(t, set.BaseResult)
	assert.Equal(t, "Base", set.BaseScenarioName)
	assert.True(t, set.BaseResult.AnnualImpact.IsZero())
	assert.Equal(t, "1200000", set.BaseResult.ProjectedRevenue.String())

	require.Len(t, set.AlternativeResults, 2)
	holiday := set.AlternativeResults[0]
	assert.Equal(t, "Base + holiday_season", holiday.ScenarioName)
	assert.Equal(t, "35000", holiday.AnnualImpact.String())
	assert.Equal(t, "35000", holiday.ImpactDiffFromBase.String())
	assert.Equal(t, domain.December, holiday.PeakMonth)
	assert.Equal(t, 1, holiday.ActiveDrivers)
	assert.NotEmpty(t, holiday.Description)

	price := set.AlternativeResults[1]
	assert.Equal(t, "27500", price.AnnualImpact.Round(0).String())

	require.NotEmpty(t, set.Recommendations)
	assert.Contains(t, set.Recommendations[0], "Highest Impact: Base + holiday_season adds $35000")
}

func TestCompareEngine_Compare_Errors(t *testing.T) {
	ce := NewCompareEngine(nil)
	ws := createTestWorkspace()

	_, err := ce.Compare(ws, CompareOptions{BaseScenarioName: "Nope"})
	assert.ErrorContains(t, err, "base scenario Nope not found")

	_, err = ce.Compare(ws, CompareOptions{BaseScenarioName: "Base", Templates: []string{"moonshot"}})
	assert.ErrorContains(t, err, "template moonshot not found")

	_, err = ce.Compare(ws, CompareOptions{BaseScenarioName: "Holiday", Templates: []string{"holiday_season", "holiday_season"}})
	assert.NoError(t, err, "Each template applies to a fresh copy of the base")
}

func TestCompareEngine_CompareScenarios(t *testing.T) {
	ce := NewCompareEngine(nil)

	set, err := ce.CompareScenarios(createTestWorkspace(), "base", []string{"Holiday", "promo"})
	require.NoError(t, err)
	require.Len(t, set.AlternativeResults, 2)

	holiday := set.AlternativeResults[0]
	assert.Equal(t, "30000", holiday.AnnualImpact.String())
	assert.Equal(t, "2.5", holiday.ImpactPctFromBase.String())

	promo := set.AlternativeResults[1]
	assert.True(t, promo.ImpactDiffFromBase.IsNegative())

	assert.Contains(t, set.Recommendations, "Highest Peak: Holiday reaches $30000 in December")
	assert.Contains(t, set.Recommendations, "Downside: Deep discount reduces annual revenue by $600000")

	_, err = ce.CompareScenarios(createTestWorkspace(), "base", []string{"ghost"})
	assert.ErrorContains(t, err, "alternative scenario ghost not found")
}

func TestMetricsCalculator_CalculateComparison(t *testing.T) {
	calc := NewMetricsCalculator()

	base := ComparisonResult{ScenarioName: "Base", AnnualImpact: d("1000"), ProjectedRevenue: d("10000"), GrowthPercent: d("1")}
	alt := ComparisonResult{ScenarioName: "Alt", AnnualImpact: d("1500"), GrowthPercent: d("1.5")}

	got := calc.CalculateComparison(alt, base)
	assert.Equal(t, "500", got.ImpactDiffFromBase.String())
	assert.Equal(t, "5", got.ImpactPctFromBase.String())
	assert.Equal(t, "0.5", got.GrowthDiffFromBase.String())

	zeroBase := calc.CalculateComparison(alt, ComparisonResult{})
	assert.True(t, zeroBase.ImpactPctFromBase.IsZero(), "No percentage against a zero base")
}

func TestGenerateRecommendations_NoAlternatives(t *testing.T) {
	set := &ComparisonSet{BaseResult: &ComparisonResult{ScenarioName: "Base"}}
	assert.Empty(t, GenerateRecommendations(set))
	assert.Empty(t, GenerateRecommendations(&ComparisonSet{}))
}

func TestComparisonSet_Summaries(t *testing.T) {
	set, err := NewCompareEngine(nil).CompareScenarios(createTestWorkspace(), "Base", []string{"Holiday"})
	require.NoError(t, err)

	summaries := set.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, "Base", summaries[0].ScenarioName)
	assert.Equal(t, "Holiday", summaries[1].ScenarioName)
}
