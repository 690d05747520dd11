package main

import (
	"fmt"
	"io"

	"github.com/rgehrsitz/whatif/internal/adjustment"
	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/config"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/forecast"
	"github.com/rgehrsitz/whatif/internal/logging"
	"github.com/rgehrsitz/whatif/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// adjustmentMode picks the stacking mode: flag, then workspace, then
// settings.
func adjustmentMode(cmd *cobra.Command, ws *domain.Workspace) (adjustment.Mode, error) {
	raw, _ := cmd.Flags().GetString("mode")
	if raw == "" {
		raw = ws.AdjustmentMode
	}
	if raw == "" {
		raw = settings.AdjustmentMode
	}
	return adjustment.ParseMode(raw)
}

// buildForecast seeds the grid from the workspace, replays the saved active
// adjustments and then applies the ad-hoc ones requested on the command line.
func buildForecast(cmd *cobra.Command, ws *domain.Workspace) (*forecast.Grid, *adjustment.Engine, error) {
	mode, err := adjustmentMode(cmd, ws)
	if err != nil {
		return nil, nil, err
	}

	grid := config.BuildGrid(ws)
	eng := adjustment.NewEngine(mode)
	eng.SetLogger(logging.WithComponent(logger, "adjustment"))
	eng.Actor = settings.Actor

	results, err := eng.Load(grid, ws.Adjustments)
	if err != nil {
		return nil, nil, err
	}
	for _, res := range results {
		logResult(res)
	}

	extra, err := requestedAdjustments(cmd, ws)
	if err != nil {
		return nil, nil, err
	}
	for _, adj := range extra {
		added, err := eng.Add(adj)
		if err != nil {
			return nil, nil, fmt.Errorf("adjustment %q: %w", adj.Name, err)
		}
		res, err := eng.Apply(grid, added.ID)
		if err != nil {
			return nil, nil, err
		}
		logResult(res)
	}
	return grid, eng, nil
}

func logResult(res adjustment.Result) {
	logger.WithFields(logrus.Fields{
		"adjustment":    res.AdjustmentID,
		"state":         res.State,
		"cells_written": res.CellsWritten,
		"locked_skips":  res.LockedSkips,
	}).Info("adjustment applied")
}

// requestedAdjustments builds the drafts named by --from-scenario, --quick-*
// and --payroll.
func requestedAdjustments(cmd *cobra.Command, ws *domain.Workspace) ([]domain.AppliedAdjustment, error) {
	target, err := adjustmentTarget(cmd, ws)
	if err != nil {
		return nil, err
	}

	var adjs []domain.AppliedAdjustment

	if key, _ := cmd.Flags().GetString("from-scenario"); key != "" {
		scenario, err := pickScenario(ws, key)
		if err != nil {
			return nil, err
		}
		impacts, err := newCalcEngine().CalculateImpacts(scenario)
		if err != nil {
			return nil, err
		}
		adj, err := adjustment.FromScenario(scenario, impacts, target)
		if err != nil {
			return nil, err
		}
		adjs = append(adjs, adj)
	}

	if quickType, _ := cmd.Flags().GetString("quick-type"); quickType != "" {
		adjType, err := domain.ParseAdjustmentType(quickType)
		if err != nil {
			return nil, err
		}
		value, err := decimalFlag(cmd, "quick-value")
		if err != nil {
			return nil, err
		}
		name, _ := cmd.Flags().GetString("quick-name")
		adjs = append(adjs, adjustment.QuickAdjustment(name, adjType, value, target))
	}

	if empID, _ := cmd.Flags().GetString("payroll"); empID != "" {
		emp, ok := ws.FindEmployee(empID)
		if !ok {
			return nil, fmt.Errorf("employee %s not found in workspace", empID)
		}
		adj, err := adjustment.FromPayroll(calculation.NewPayrollCalculator2025(), *emp, target)
		if err != nil {
			return nil, err
		}
		adjs = append(adjs, adj)
	}

	return adjs, nil
}

func adjustmentTarget(cmd *cobra.Command, ws *domain.Workspace) (adjustment.Target, error) {
	start, err := monthFlag(cmd, "start")
	if err != nil {
		return adjustment.Target{}, err
	}
	end, err := monthFlag(cmd, "end")
	if err != nil {
		return adjustment.Target{}, err
	}
	account, _ := cmd.Flags().GetString("account")
	year, _ := cmd.Flags().GetInt("year")
	if year == 0 {
		year = ws.Year
	}
	return adjustment.Target{AccountCode: account, StartMonth: start, EndMonth: end, Year: year}, nil
}

func addAdjustmentFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Adjustment stacking mode: in_place or layered (default from workspace or settings)")
	cmd.Flags().String("from-scenario", "", "Turn this scenario's impact into an adjustment")
	cmd.Flags().String("quick-type", "", "Ad-hoc adjustment type: percentage or fixed")
	cmd.Flags().String("quick-value", "", "Ad-hoc adjustment value")
	cmd.Flags().String("quick-name", "Quick adjustment", "Ad-hoc adjustment name")
	cmd.Flags().String("payroll", "", "Add this employee's monthly loaded cost as an adjustment")
	cmd.Flags().String("account", "", "Account code the new adjustment targets")
	cmd.Flags().String("start", "jan", "First month of the new adjustment")
	cmd.Flags().String("end", "dec", "Last month of the new adjustment")
	cmd.Flags().Int("year", 0, "Year of the new adjustment (default workspace year)")
}

func writeGrid(w io.Writer, grid *forecast.Grid, format string, year int) error {
	cells := grid.Select(forecast.InYear(year))
	switch format {
	case "csv":
		return output.WriteGridCSV(w, cells)
	case "table", "console", "":
		_, err := fmt.Fprint(w, output.RenderGrid(cells, year))
		return err
	}
	return fmt.Errorf("unknown format %q (available: table, csv)", format)
}

var applyCmd = &cobra.Command{
	Use:   "apply [workspace-file]",
	Short: "Build the forecast grid with adjustments applied",
	Long: "Seed the forecast grid from the workspace accounts, lock months with actuals, " +
		"replay the active adjustments and optionally add one from a scenario, an ad-hoc " +
		"value or an employee's payroll cost. The result can be saved as a version.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		grid, eng, err := buildForecast(cmd, ws)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if err := writeGrid(cmd.OutOrStdout(), grid, format, ws.Year); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("save")
		if name == "" {
			return nil
		}
		description, _ := cmd.Flags().GetString("description")
		if description == "" {
			description = fmt.Sprintf("%s with %d adjustments", ws.Name, len(eng.List()))
		}
		activate, _ := cmd.Flags().GetBool("activate")
		return saveGrid(cmd, grid, ws.Year, name, description, activate)
	},
}

func saveGrid(cmd *cobra.Command, grid *forecast.Grid, year int, name, description string, activate bool) error {
	vs, err := openStore()
	if err != nil {
		return err
	}
	defer vs.Close()

	id, err := vs.SaveVersion(cmd.Context(), year, name, description, grid.Select(forecast.InYear(year)))
	if err != nil {
		return err
	}
	if activate {
		if err := vs.SetActive(cmd.Context(), id, year); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved version %s (%s)\n", name, id)
	return nil
}

func init() {
	addAdjustmentFlags(applyCmd)
	applyCmd.Flags().StringP("format", "f", "table", "Output format (table, csv)")
	applyCmd.Flags().String("save", "", "Save the resulting grid as a version with this name")
	applyCmd.Flags().String("description", "", "Description of the saved version")
	applyCmd.Flags().Bool("activate", false, "Make the saved version active for its year")

	rootCmd.AddCommand(applyCmd)
}
