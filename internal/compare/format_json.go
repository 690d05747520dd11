package compare

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
	// Monthly adds each scenario's 12-month impact curve and driver totals.
	Monthly bool
}

type jsonReport struct {
	Workspace       string         `json:"workspace,omitempty"`
	BaseScenario    string         `json:"base_scenario"`
	Scenarios       []jsonScenario `json:"scenarios"`
	Recommendations []string       `json:"recommendations"`
}

type jsonScenario struct {
	Name                 string                `json:"name"`
	Role                 string                `json:"role"`
	Description          string                `json:"description,omitempty"`
	AnnualBaseRevenue    decimal.Decimal       `json:"annual_base_revenue"`
	AnnualImpact         decimal.Decimal       `json:"annual_impact"`
	ProjectedRevenue     decimal.Decimal       `json:"projected_revenue"`
	AverageMonthlyImpact decimal.Decimal       `json:"average_monthly_impact"`
	GrowthPercent        decimal.Decimal       `json:"growth_percent"`
	PeakMonth            domain.Month          `json:"peak_month"`
	PeakImpact           decimal.Decimal       `json:"peak_impact"`
	ActiveDrivers        int                   `json:"active_drivers"`
	VersusBase           *jsonDelta            `json:"versus_base,omitempty"`
	Monthly              []jsonMonth           `json:"monthly,omitempty"`
	DriverTotals         []domain.DriverImpact `json:"driver_totals,omitempty"`
}

type jsonDelta struct {
	ImpactDiff    decimal.Decimal `json:"impact_diff"`
	ImpactPercent decimal.Decimal `json:"impact_percent"`
	GrowthDiff    decimal.Decimal `json:"growth_diff"`
}

type jsonMonth struct {
	Period string          `json:"period"`
	Impact decimal.Decimal `json:"impact"`
}

// Format generates JSON output for comparison results. The base scenario is
// listed first; only alternatives carry a versus_base block.
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	report := jsonReport{
		Workspace:       compSet.WorkspacePath,
		BaseScenario:    compSet.BaseScenarioName,
		Scenarios:       make([]jsonScenario, 0, len(compSet.AlternativeResults)+1),
		Recommendations: compSet.Recommendations,
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}
	if compSet.BaseResult != nil {
		report.Scenarios = append(report.Scenarios, jf.scenario(compSet.BaseResult, "base"))
	}
	for i := range compSet.AlternativeResults {
		report.Scenarios = append(report.Scenarios, jf.scenario(&compSet.AlternativeResults[i], "alternative"))
	}

	var data []byte
	var err error
	if jf.Pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (jf *JSONFormatter) scenario(result *ComparisonResult, role string) jsonScenario {
	out := jsonScenario{
		Name:                 result.ScenarioName,
		Role:                 role,
		Description:          result.Description,
		AnnualBaseRevenue:    result.AnnualBaseRevenue,
		AnnualImpact:         result.AnnualImpact,
		ProjectedRevenue:     result.ProjectedRevenue,
		AverageMonthlyImpact: result.AverageMonthlyImpact,
		GrowthPercent:        result.GrowthPercent,
		PeakMonth:            result.PeakMonth,
		PeakImpact:           result.PeakImpact,
		ActiveDrivers:        result.ActiveDrivers,
	}
	if role != "base" {
		out.VersusBase = &jsonDelta{
			ImpactDiff:    result.ImpactDiffFromBase,
			ImpactPercent: result.ImpactPctFromBase,
			GrowthDiff:    result.GrowthDiffFromBase,
		}
	}
	if jf.Monthly && result.Summary != nil {
		for _, mi := range result.Summary.Impacts {
			out.Monthly = append(out.Monthly, jsonMonth{Period: mi.Period().String(), Impact: mi.TotalImpact})
		}
		out.DriverTotals = result.Summary.DriverTotals
	}
	return out
}
