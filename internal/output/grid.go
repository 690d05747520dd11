package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/store"
	"github.com/shopspring/decimal"
)

// RenderGrid renders one row per account for year with a column per month.
// Locked cells are marked with an asterisk.
func RenderGrid(cells []domain.ForecastCell, year int) string {
	type row struct {
		months [domain.MonthsPerYear]string
		total  decimal.Decimal
	}
	rows := make(map[string]*row)
	var codes []string

	for _, c := range cells {
		if c.Period.Year != year || !c.Period.Month.Valid() {
			continue
		}
		r, ok := rows[c.AccountCode]
		if !ok {
			r = &row{}
			rows[c.AccountCode] = r
			codes = append(codes, c.AccountCode)
		}
		cell := FormatCompact(c.Forecast)
		if c.Locked() {
			cell += "*"
		}
		r.months[c.Period.Month.Index()] = cell
		r.total = r.total.Add(c.Forecast)
	}

	headers := []string{"Account"}
	for _, m := range domain.AllMonths() {
		headers = append(headers, m.String())
	}
	headers = append(headers, "Total")

	table := Table{Title: fmt.Sprintf("Forecast %d", year), Headers: headers}
	for _, code := range codes {
		r := rows[code]
		line := append([]string{code}, r.months[:]...)
		line = append(line, FormatCompact(r.total))
		table.Rows = append(table.Rows, line)
	}

	var b strings.Builder
	b.WriteString(RenderTable(table))
	b.WriteString(Muted("  * locked by an actual"))
	b.WriteString("\n")
	return b.String()
}

// WriteGridCSV writes one row per cell.
func WriteGridCSV(w io.Writer, cells []domain.ForecastCell) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"account_code", "period", "forecast", "actual", "variance"}); err != nil {
		return err
	}
	for _, c := range cells {
		actual, variance := "", ""
		if c.Locked() {
			actual = c.Actual.StringFixed(2)
			variance = c.Variance().StringFixed(2)
		}
		if err := cw.Write([]string{c.AccountCode, c.Period.String(), c.Forecast.StringFixed(2), actual, variance}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderVersions lists saved versions.
func RenderVersions(versions []store.Version) string {
	if len(versions) == 0 {
		return Muted("No saved versions.") + "\n"
	}
	table := Table{Headers: []string{"ID", "Year", "Name", "Cells", "Active", "Created"}}
	for _, v := range versions {
		active := ""
		if v.IsActive {
			active = "yes"
		}
		table.Rows = append(table.Rows, []string{
			v.ID,
			strconv.Itoa(v.Year),
			v.Name,
			strconv.Itoa(v.CellCount),
			active,
			v.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return RenderTable(table)
}

// RenderVersionDiff renders per-account totals of two versions.
func RenderVersionDiff(diff *store.VersionDiff) string {
	table := Table{
		Title:   fmt.Sprintf("%s -> %s", diff.From.Name, diff.To.Name),
		Headers: []string{"Account", diff.From.Name, diff.To.Name, "Variance", "%"},
	}
	for _, a := range diff.Accounts {
		table.Rows = append(table.Rows, []string{
			a.AccountCode,
			FormatCurrency(a.From),
			FormatCurrency(a.To),
			FormatSigned(a.Variance),
			FormatPercentage(a.VariancePercent),
		})
	}
	table.Rows = append(table.Rows, SeparatorRow, []string{
		"Total",
		FormatCurrency(diff.FromTotal),
		FormatCurrency(diff.ToTotal),
		FormatSigned(diff.Variance),
		"",
	})
	return RenderTable(table)
}
