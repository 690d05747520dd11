package main

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/output"
	"github.com/spf13/cobra"
)

var payrollCmd = &cobra.Command{
	Use:   "payroll [workspace-file] [employee-id]",
	Short: "Calculate one pay period for an employee",
	Long: "Look up gross pay, withheld taxes and net pay for one pay period, using the " +
		"2025 FICA, federal and state rate tables. The monthly loaded cost is the amount " +
		"'apply --payroll' adds to the employee's payroll account.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		emp, ok := ws.FindEmployee(args[1])
		if !ok {
			return fmt.Errorf("employee %s not found in workspace", args[1])
		}

		period, _ := cmd.Flags().GetString("period")
		withTaxes, _ := cmd.Flags().GetBool("taxes")

		pc := calculation.NewPayrollCalculator2025()
		res, err := pc.CalculatePayroll(*emp, domain.PayPeriod(period), withTaxes)
		if err != nil {
			return err
		}
		loaded, err := pc.MonthlyLoadedCost(*emp)
		if err != nil {
			return err
		}

		name := emp.Name
		if name == "" {
			name = emp.ID
		}
		table := output.Table{
			Title:   fmt.Sprintf("PAYROLL: %s (%s)", name, period),
			Headers: []string{"Item", "Amount"},
			Rows:    [][]string{{"Gross pay", output.FormatCurrency(res.GrossPay)}},
		}
		if withTaxes {
			table.Rows = append(table.Rows,
				output.SeparatorRow,
				[]string{"Federal", output.FormatCurrency(res.Taxes.Federal)},
				[]string{"State", output.FormatCurrency(res.Taxes.State)},
				[]string{"Social Security", output.FormatCurrency(res.Taxes.SocialSecurity)},
				[]string{"Medicare", output.FormatCurrency(res.Taxes.Medicare)},
				[]string{"Additional Medicare", output.FormatCurrency(res.Taxes.AdditionalMedicare)},
				[]string{"Total taxes", output.FormatCurrency(res.TotalTaxes)},
				output.SeparatorRow,
			)
		}
		table.Rows = append(table.Rows,
			[]string{"Net pay", output.FormatCurrency(res.NetPay)},
			[]string{"Monthly loaded cost", output.FormatCurrency(loaded)},
		)
		fmt.Fprint(cmd.OutOrStdout(), output.RenderTable(table))
		return nil
	},
}

func init() {
	payrollCmd.Flags().String("period", string(domain.PayBiweekly), "Pay period: weekly, biweekly, semimonthly, monthly")
	payrollCmd.Flags().Bool("taxes", true, "Withhold taxes")

	rootCmd.AddCommand(payrollCmd)
}
