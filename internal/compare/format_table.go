package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/whatif/internal/output"
	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(output.RenderTitle("REVENUE SCENARIO COMPARISON"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Base Scenario: %s\n", compSet.BaseScenarioName))
	if compSet.WorkspacePath != "" {
		sb.WriteString(fmt.Sprintf("Workspace: %s\n", compSet.WorkspacePath))
	}
	sb.WriteString("\n")

	table := output.Table{
		Headers: []string{"Scenario", "Annual Impact", "Projected Revenue", "Growth", "Peak", "Drivers"},
	}
	if compSet.BaseResult != nil {
		table.Rows = append(table.Rows, tf.formatRow(compSet.BaseResult, true))
	}
	if len(compSet.AlternativeResults) > 0 {
		table.Rows = append(table.Rows, output.SeparatorRow)
		for i := range compSet.AlternativeResults {
			table.Rows = append(table.Rows, tf.formatRow(&compSet.AlternativeResults[i], false))
		}
	}
	sb.WriteString(output.RenderTable(table))

	// Comparison details (deltas from base)
	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\n")
		sb.WriteString(output.Heading("COMPARISON TO BASE"))
		sb.WriteString("\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScenarioName))
			if alt.Description != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", output.Muted(alt.Description)))
			}
			sb.WriteString(fmt.Sprintf("  Annual Impact:  %s$%s (%s%%)\n",
				tf.deltaSymbol(alt.ImpactDiffFromBase),
				output.FormatCompact(alt.ImpactDiffFromBase.Abs()),
				alt.ImpactPctFromBase.StringFixed(1)))
			if !alt.GrowthDiffFromBase.IsZero() {
				sb.WriteString(fmt.Sprintf("  Growth:         %s%s pts\n",
					tf.deltaSymbol(alt.GrowthDiffFromBase),
					alt.GrowthDiffFromBase.Abs().StringFixed(2)))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\n")
		sb.WriteString(output.Heading("RECOMMENDATIONS"))
		sb.WriteString("\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single scenario row
func (tf *TableFormatter) formatRow(result *ComparisonResult, isBase bool) []string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}

	peak := "none"
	if result.PeakImpact.IsPositive() {
		peak = result.PeakMonth.String() + " " + output.FormatCompact(result.PeakImpact)
	}

	return []string{
		tf.truncate(name, 32),
		"$" + output.FormatCompact(result.AnnualImpact),
		"$" + output.FormatCompact(result.ProjectedRevenue),
		output.FormatPercentage(result.GrowthPercent),
		peak,
		strconv.Itoa(result.ActiveDrivers),
	}
}

// deltaSymbol returns a + or - symbol for deltas
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return "-"
	}
	return " "
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary for each scenario
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseScenarioName))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if alt.ImpactDiffFromBase.IsPositive() {
			change = fmt.Sprintf("+$%s", output.FormatCompact(alt.ImpactDiffFromBase))
		} else if alt.ImpactDiffFromBase.IsNegative() {
			change = fmt.Sprintf("-$%s", output.FormatCompact(alt.ImpactDiffFromBase.Abs()))
		}

		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScenarioName, change))
	}

	return sb.String()
}
