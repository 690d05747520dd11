package compare

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestSet() *ComparisonSet {
	return &ComparisonSet{
		BaseScenarioName: "Base Scenario",
		WorkspacePath:    "/path/to/workspace.yaml",
		BaseResult: &ComparisonResult{
			ScenarioName:      "Base Scenario",
			AnnualBaseRevenue: d("1200000"),
			ProjectedRevenue:  d("1200000"),
			PeakMonth:         domain.January,
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName:       "Alternative 1",
				Description:        "Add a holiday peak",
				AnnualBaseRevenue:  d("1200000"),
				AnnualImpact:       d("35000"),
				ProjectedRevenue:   d("1235000"),
				GrowthPercent:      d("2.92"),
				PeakMonth:          domain.December,
				PeakImpact:         d("30000"),
				ActiveDrivers:      1,
				ImpactDiffFromBase: d("35000"),
				ImpactPctFromBase:  d("2.92"),
				GrowthDiffFromBase: d("2.92"),
			},
		},
		Recommendations: []string{
			"Highest Impact: Alternative 1 adds $35000 more annual revenue than the base scenario",
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	formatter := &TableFormatter{}

	result := formatter.Format(buildTestSet())
	require.NotEmpty(t, result)

	assert.Contains(t, result, "REVENUE SCENARIO COMPARISON")
	assert.Contains(t, result, "Base Scenario: Base Scenario")
	assert.Contains(t, result, "Workspace: /path/to/workspace.yaml")
	assert.Contains(t, result, "Base Scenario (base)")
	assert.Contains(t, result, "Alternative 1")
	assert.Contains(t, result, "Dec 30.0K")
	assert.Contains(t, result, "Annual Impact:  +$35.0K (2.9%)")
	assert.Contains(t, result, "Growth:         +2.92 pts")
	assert.Contains(t, result, "RECOMMENDATIONS")
}

func TestTableFormatter_Format_EmptyAlternatives(t *testing.T) {
	set := buildTestSet()
	set.AlternativeResults = nil
	set.Recommendations = nil

	result := (&TableFormatter{}).Format(set)

	assert.Contains(t, result, "Base Scenario")
	assert.NotContains(t, result, "Alternative")
	assert.NotContains(t, result, "COMPARISON TO BASE")
	assert.Contains(t, result, "none", "A flat base has no peak")
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	set := buildTestSet()
	set.AlternativeResults = append(set.AlternativeResults, ComparisonResult{
		ScenarioName:       "Alternative 2",
		ImpactDiffFromBase: d("-2500"),
	}, ComparisonResult{ScenarioName: "Alternative 3"})

	got := (&TableFormatter{}).FormatCompact(set)
	assert.Equal(t, "Base: Base Scenario | Alternative 1: +$35.0K | Alternative 2: -$2.5K | Alternative 3: =", got)
}

func TestTableFormatter_truncate(t *testing.T) {
	tf := &TableFormatter{}
	assert.Equal(t, "short", tf.truncate("short", 10))
	assert.Equal(t, "abcdefg...", tf.truncate("abcdefghijklmnop", 10))
}

func TestCSVFormatter_Format(t *testing.T) {
	result, err := (&CSVFormatter{}).Format(buildTestSet())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(result)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Scenario", records[0][0])
	assert.Equal(t, []string{"Base Scenario", "base"}, records[1][:2])
	assert.Equal(t, []string{
		"Alternative 1", "alternative", "1200000.00", "35000.00", "1235000.00",
		"0.00", "2.92", "Dec", "30000.00", "1", "35000.00", "2.92",
	}, records[2])
}

func TestJSONFormatter_Format(t *testing.T) {
	result, err := (&JSONFormatter{}).Format(buildTestSet())
	require.NoError(t, err)

	var report struct {
		Workspace    string `json:"workspace"`
		BaseScenario string `json:"base_scenario"`
		Scenarios    []struct {
			Name         string         `json:"name"`
			Role         string         `json:"role"`
			AnnualImpact string         `json:"annual_impact"`
			PeakMonth    string         `json:"peak_month"`
			VersusBase   map[string]any `json:"versus_base"`
			Monthly      []any          `json:"monthly"`
		} `json:"scenarios"`
		Recommendations []string `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(result), &report))

	assert.Equal(t, "/path/to/workspace.yaml", report.Workspace)
	assert.Equal(t, "Base Scenario", report.BaseScenario)
	require.Len(t, report.Scenarios, 2)
	assert.Equal(t, "base", report.Scenarios[0].Role)
	assert.Nil(t, report.Scenarios[0].VersusBase)
	assert.Equal(t, "Alternative 1", report.Scenarios[1].Name)
	assert.Equal(t, "alternative", report.Scenarios[1].Role)
	assert.Equal(t, "35000", report.Scenarios[1].AnnualImpact)
	assert.Equal(t, "Dec", report.Scenarios[1].PeakMonth)
	require.NotNil(t, report.Scenarios[1].VersusBase)
	assert.Equal(t, "35000", report.Scenarios[1].VersusBase["impact_diff"])
	assert.Empty(t, report.Scenarios[1].Monthly, "curve only on request")
	assert.Len(t, report.Recommendations, 1)

	pretty, err := (&JSONFormatter{Pretty: true}).Format(buildTestSet())
	require.NoError(t, err)
	assert.Contains(t, pretty, "\n  \"workspace\"")
}

func TestJSONFormatter_Monthly(t *testing.T) {
	set := buildTestSet()
	set.AlternativeResults[0].Summary = &domain.ScenarioSummary{
		ScenarioName: "Alternative 1",
		DriverTotals: []domain.DriverImpact{
			{DriverID: "season", DriverName: "Holiday peak", DriverType: domain.DriverSeasonality, Impact: d("35000")},
		},
		Impacts: []domain.MonthlyImpact{
			{Month: domain.November, Year: 2025, TotalImpact: d("5000")},
			{Month: domain.December, Year: 2025, TotalImpact: d("30000")},
		},
	}

	result, err := (&JSONFormatter{Monthly: true}).Format(set)
	require.NoError(t, err)

	assert.Contains(t, result, `"monthly":[{"period":"2025-11","impact":"5000"},{"period":"2025-12","impact":"30000"}]`)
	assert.Contains(t, result, `"driver_totals":[{"driver_id":"season"`)

	empty, err := (&JSONFormatter{}).Format(&ComparisonSet{BaseScenarioName: "Base"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"base_scenario":"Base","scenarios":[],"recommendations":[]}`, empty)
}
