package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Annual Base Revenue",
		"Annual Impact",
		"Projected Revenue",
		"Average Monthly Impact",
		"Growth %",
		"Peak Month",
		"Peak Impact",
		"Active Drivers",
		"Impact Diff from Base",
		"Impact % Change",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for i := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&compSet.AlternativeResults[i], "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		result.AnnualBaseRevenue.StringFixed(2),
		result.AnnualImpact.StringFixed(2),
		result.ProjectedRevenue.StringFixed(2),
		result.AverageMonthlyImpact.StringFixed(2),
		result.GrowthPercent.StringFixed(2),
		result.PeakMonth.String(),
		result.PeakImpact.StringFixed(2),
		strconv.Itoa(result.ActiveDrivers),
		result.ImpactDiffFromBase.StringFixed(2),
		result.ImpactPctFromBase.StringFixed(2),
	}
}
