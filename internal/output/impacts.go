package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConsoleFormatter renders a month-by-driver table followed by the annual
// summary.
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

func (ConsoleFormatter) Format(summary *domain.ScenarioSummary) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(RenderTitle("SCENARIO IMPACT: " + summary.ScenarioName))
	buf.WriteString("\n\n")

	headers := []string{"Month", "Total impact"}
	for _, dt := range summary.DriverTotals {
		headers = append(headers, dt.DriverName)
	}

	rows := make([][]string, 0, len(summary.Impacts)+2)
	for _, mi := range summary.Impacts {
		row := []string{mi.Period().Label(), FormatSigned(mi.TotalImpact)}
		for _, dt := range summary.DriverTotals {
			row = append(row, FormatSigned(driverImpact(mi, dt.DriverID)))
		}
		rows = append(rows, row)
	}

	totals := []string{"Total", FormatSigned(summary.TotalImpact)}
	for _, dt := range summary.DriverTotals {
		totals = append(totals, FormatSigned(dt.Impact))
	}
	rows = append(rows, SeparatorRow, totals)

	buf.WriteString(RenderTable(Table{Headers: headers, Rows: rows}))
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "%s\n", Heading("SUMMARY"))
	fmt.Fprintf(&buf, "  Annual base revenue:    %s\n", FormatCurrency(summary.AnnualBaseRevenue))
	fmt.Fprintf(&buf, "  Annual impact:          %s\n", FormatSigned(summary.TotalImpact))
	fmt.Fprintf(&buf, "  Average monthly impact: %s\n", FormatSigned(summary.AverageImpact))
	fmt.Fprintf(&buf, "  Growth:                 %s\n", FormatPercentage(summary.GrowthPercent))
	if len(summary.Impacts) > 0 {
		fmt.Fprintf(&buf, "  Peak month:             %s (%s)\n",
			summary.PeakMonth.FullName(), FormatSigned(summary.PeakImpact))
	}
	if len(summary.DriverTotals) == 0 {
		fmt.Fprintf(&buf, "  %s\n", Muted("No driver contributes in this horizon."))
	}

	return buf.Bytes(), nil
}

func driverImpact(mi domain.MonthlyImpact, driverID string) decimal.Decimal {
	for _, di := range mi.DriverBreakdown {
		if di.DriverID == driverID {
			return di.Impact
		}
	}
	return decimal.Zero
}

// CSVFormatter writes one row per month with a column per driver.
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) Format(summary *domain.ScenarioSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"month", "year", "total_impact", "final_revenue"}
	for _, dt := range summary.DriverTotals {
		header = append(header, dt.DriverID)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, mi := range summary.Impacts {
		row := []string{
			mi.Month.String(),
			strconv.Itoa(mi.Year),
			mi.TotalImpact.StringFixed(2),
			mi.FinalRevenue.StringFixed(2),
		}
		for _, dt := range summary.DriverTotals {
			row = append(row, driverImpact(mi, dt.DriverID).StringFixed(2))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSONFormatter marshals the summary including the monthly curve.
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (JSONFormatter) Name() string { return "json" }

func (jf JSONFormatter) Format(summary *domain.ScenarioSummary) ([]byte, error) {
	if jf.Pretty {
		return json.MarshalIndent(summary, "", "  ")
	}
	return json.Marshal(summary)
}
