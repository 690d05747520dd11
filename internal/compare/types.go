package compare

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// ComparisonResult represents a single scenario comparison with calculated metrics
type ComparisonResult struct {
	ScenarioName string                  `json:"scenarioName"`
	Description  string                  `json:"description,omitempty"`
	Summary      *domain.ScenarioSummary `json:"summary,omitempty"`

	// Key Metrics
	AnnualBaseRevenue    decimal.Decimal `json:"annualBaseRevenue"`
	AnnualImpact         decimal.Decimal `json:"annualImpact"`
	ProjectedRevenue     decimal.Decimal `json:"projectedRevenue"`
	AverageMonthlyImpact decimal.Decimal `json:"averageMonthlyImpact"`
	GrowthPercent        decimal.Decimal `json:"growthPercent"`
	PeakMonth            domain.Month    `json:"peakMonth"`
	PeakImpact           decimal.Decimal `json:"peakImpact"`
	ActiveDrivers        int             `json:"activeDrivers"`

	// Comparison to Base
	ImpactDiffFromBase decimal.Decimal `json:"impactDiffFromBase"`
	ImpactPctFromBase  decimal.Decimal `json:"impactPctFromBase"`
	GrowthDiffFromBase decimal.Decimal `json:"growthDiffFromBase"`
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	WorkspacePath      string             `json:"workspacePath,omitempty"`
}

// Summaries returns the base and alternative summaries in display order.
func (cs *ComparisonSet) Summaries() []domain.ScenarioSummary {
	out := make([]domain.ScenarioSummary, 0, len(cs.AlternativeResults)+1)
	if cs.BaseResult != nil && cs.BaseResult.Summary != nil {
		out = append(out, *cs.BaseResult.Summary)
	}
	for _, result := range cs.AlternativeResults {
		if result.Summary != nil {
			out = append(out, *result.Summary)
		}
	}
	return out
}

// MetricsCalculator extracts key metrics from scenario summaries
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes all comparison metrics for a scenario summary
func (mc *MetricsCalculator) CalculateMetrics(scenario *domain.Scenario, summary *domain.ScenarioSummary) ComparisonResult {
	result := ComparisonResult{
		ScenarioName:         summary.ScenarioName,
		Summary:              summary,
		AnnualBaseRevenue:    summary.AnnualBaseRevenue,
		AnnualImpact:         summary.TotalImpact,
		ProjectedRevenue:     summary.AnnualBaseRevenue.Add(summary.TotalImpact),
		AverageMonthlyImpact: summary.AverageImpact,
		GrowthPercent:        summary.GrowthPercent,
		PeakMonth:            summary.PeakMonth,
		PeakImpact:           summary.PeakImpact,
	}
	if scenario != nil {
		result.Description = scenario.Description
		for _, d := range scenario.Drivers {
			if d.IsActive {
				result.ActiveDrivers++
			}
		}
	}
	return result
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.ImpactDiffFromBase = scenario.AnnualImpact.Sub(base.AnnualImpact)

	if !base.ProjectedRevenue.IsZero() {
		scenario.ImpactPctFromBase = scenario.ImpactDiffFromBase.
			Div(base.ProjectedRevenue.Abs()).
			Mul(decimal.NewFromInt(100))
	}

	scenario.GrowthDiffFromBase = scenario.GrowthPercent.Sub(base.GrowthPercent)
	return scenario
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}
	base := compSet.BaseResult

	// Find best scenario by annual impact
	best := -1
	for i, alt := range compSet.AlternativeResults {
		if alt.AnnualImpact.GreaterThan(base.AnnualImpact) &&
			(best < 0 || alt.AnnualImpact.GreaterThan(compSet.AlternativeResults[best].AnnualImpact)) {
			best = i
		}
	}
	if best >= 0 {
		alt := compSet.AlternativeResults[best]
		recommendations = append(recommendations,
			"Highest Impact: "+alt.ScenarioName+" adds $"+alt.ImpactDiffFromBase.StringFixed(0)+
				" more annual revenue than the base scenario")
	}

	// Find the highest single month
	peak := -1
	for i, alt := range compSet.AlternativeResults {
		if alt.PeakImpact.GreaterThan(base.PeakImpact) &&
			(peak < 0 || alt.PeakImpact.GreaterThan(compSet.AlternativeResults[peak].PeakImpact)) {
			peak = i
		}
	}
	if peak >= 0 {
		alt := compSet.AlternativeResults[peak]
		recommendations = append(recommendations,
			fmt.Sprintf("Highest Peak: %s reaches $%s in %s",
				alt.ScenarioName, alt.PeakImpact.StringFixed(0), alt.PeakMonth.FullName()))
	}

	// Flag alternatives that lose revenue against the base
	for _, alt := range compSet.AlternativeResults {
		if alt.ImpactDiffFromBase.IsNegative() {
			recommendations = append(recommendations,
				"Downside: "+alt.ScenarioName+" reduces annual revenue by $"+
					alt.ImpactDiffFromBase.Abs().StringFixed(0))
		}
	}

	return recommendations
}
