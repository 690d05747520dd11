package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/output"
	"github.com/rgehrsitz/whatif/internal/transform"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Inspect the driver types and their formulas",
}

var driversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List driver types with their default parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := output.Table{
			Title:   "DRIVER TYPES",
			Headers: []string{"Type", "Label", "Defaults"},
		}
		for _, tmpl := range transform.NewDriverRegistry().Templates() {
			table.Rows = append(table.Rows, []string{string(tmpl.Type), tmpl.Label, formatDefaults(tmpl.Defaults)})
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, output.RenderTable(table))

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			fmt.Fprintln(out)
			for _, tmpl := range transform.NewDriverRegistry().Templates() {
				fmt.Fprintf(out, "%s\n  %s\n", output.Heading(string(tmpl.Type)), tmpl.Description)
			}
		}
		return nil
	},
}

func formatDefaults(defaults map[string]string) string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+defaults[k])
	}
	return strings.Join(parts, ",")
}

var driversExplainCmd = &cobra.Command{
	Use:   "explain [driver-spec]",
	Short: "Evaluate one driver over a year and show its intermediate figures",
	Long: "Build a driver from a spec and run it alone against a base revenue.\n\n" +
		"Examples:\n" +
		"  whatif drivers explain cac:marketing_spend_monthly=50000,customers_acquired=100\n" +
		"  whatif drivers explain \"funnel:stages=MQL:25|SQL:40|Won:20\" --month jul\n" +
		"  whatif drivers explain discounting:discount_percent=10 --base-revenue 200000",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := transform.NewDriverRegistry().ParseDriverSpec(args[0])
		if err != nil {
			return err
		}
		driver.ID = string(driver.Type)

		base, err := decimalFlag(cmd, "base-revenue")
		if err != nil {
			return err
		}
		month, err := monthFlag(cmd, "month")
		if err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")

		out := cmd.OutOrStdout()
		if err := writeParameters(out, driver); err != nil {
			return err
		}
		writeMetrics(out, driver, base, month)

		scenario := &domain.Scenario{
			ID:          "explain",
			Name:        driver.Name,
			BaseRevenue: base,
			StartYear:   year,
			Drivers:     []domain.Driver{driver},
		}
		summary, err := newCalcEngine().RunScenario(scenario)
		if err != nil {
			return err
		}
		return output.WriteFormatted(out, output.ConsoleFormatter{}, summary)
	},
}

func writeParameters(w io.Writer, d domain.Driver) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(d.Parameters)
	if err != nil {
		return err
	}
	var params map[string]any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &params); err != nil {
		return err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := output.Table{
		Title:   fmt.Sprintf("%s (%s)", d.Name, d.Type),
		Headers: []string{"Parameter", "Value"},
	}
	for _, k := range keys {
		table.Rows = append(table.Rows, []string{k, fmt.Sprint(params[k])})
	}
	_, err = fmt.Fprintln(w, output.RenderTable(table))
	return err
}

// writeMetrics prints the intermediate figures some drivers expose.
func writeMetrics(w io.Writer, d domain.Driver, base decimal.Decimal, month domain.Month) {
	var rows [][]string
	switch p := d.Parameters.(type) {
	case domain.CACParams:
		m := calculation.CalculateCACMetrics(p, month.Index())
		rows = [][]string{
			{"Cost per customer", output.FormatCurrency(m.CostPerCustomer)},
			{"Full monthly revenue", output.FormatCurrency(m.FullMonthlyRevenue)},
			{"Payback progress in " + month.String(), output.FormatPercentage(m.PaybackProgress.Mul(decimal.NewFromInt(100)))},
		}
	case domain.FunnelParams:
		m := calculation.CalculateFunnelMetrics(p)
		for i, v := range m.StageVolumes {
			label := "Stage " + strconv.Itoa(i+1)
			if i < len(p.Stages) && p.Stages[i].Name != "" {
				label = p.Stages[i].Name
			}
			rows = append(rows, []string{label, v.StringFixed(2)})
		}
		rows = append(rows,
			[]string{"Deals won", m.DealsWon.StringFixed(2)},
			[]string{"Full monthly revenue", output.FormatCurrency(m.FullRevenue)},
		)
	case domain.RepProductivityParams:
		rows = [][]string{
			{"Ramped hires in " + month.String(), strconv.Itoa(calculation.RampedHires(p, month.Index()))},
		}
	case domain.DiscountingParams:
		b := calculation.CalculateDiscounting(p, base)
		rows = [][]string{
			{"Affected revenue", output.FormatCurrency(b.AffectedRevenue)},
			{"Volume increase", output.FormatCurrency(b.VolumeIncrease)},
			{"Discount cost", output.FormatCurrency(b.DiscountCost)},
			{"Revenue impact", output.FormatCurrency(b.RevenueImpact)},
			{"Margin impact", output.FormatCurrency(b.MarginImpact)},
		}
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, output.RenderTable(output.Table{
		Title:   "METRICS",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
}

func init() {
	driversListCmd.Flags().BoolP("verbose", "v", false, "Include each driver's description")

	driversExplainCmd.Flags().String("base-revenue", "100000", "Monthly base revenue of the scratch scenario")
	driversExplainCmd.Flags().String("month", "jul", "Month used for point-in-time metrics")
	driversExplainCmd.Flags().Int("year", 2025, "Year of the impact curve")

	driversCmd.AddCommand(driversListCmd)
	driversCmd.AddCommand(driversExplainCmd)
	rootCmd.AddCommand(driversCmd)
}
