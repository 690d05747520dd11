package main

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/compare"
	"github.com/rgehrsitz/whatif/internal/transform"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [workspace-file]",
	Short: "Compare a base scenario with templates or other scenarios",
	Long: `Compare the base scenario against built-in templates applied to it, or against
other scenarios of the same workspace.

Examples:
  whatif compare plan.yaml --base growth --with price_increase,holiday_season
  whatif compare plan.yaml --base growth --scenarios downside,stretch --format csv
  whatif compare plan.yaml --list-templates`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		baseKey, _ := cmd.Flags().GetString("base")
		base, err := pickScenario(ws, baseKey)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list-templates"); list {
			fmt.Fprint(out, transform.GetTemplateHelp(transform.CreateBuiltInTemplates(base.BaseRevenue)))
			return nil
		}

		withList, _ := cmd.Flags().GetString("with")
		scenarioList, _ := cmd.Flags().GetString("scenarios")
		templates := transform.ParseTemplateList(withList)
		alternatives := splitList(scenarioList)
		if len(templates) == 0 && len(alternatives) == 0 {
			return fmt.Errorf("--with or --scenarios is required (see --list-templates)")
		}

		engine := compare.NewCompareEngine(newCalcEngine())
		var set *compare.ComparisonSet
		if len(alternatives) > 0 {
			set, err = engine.CompareScenarios(ws, base.ID, alternatives)
		} else {
			set, err = engine.Compare(ws, compare.CompareOptions{
				BaseScenarioName: base.ID,
				Templates:        templates,
			})
		}
		if err != nil {
			return err
		}
		set.WorkspacePath = args[0]

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table", "":
			fmt.Fprint(out, (&compare.TableFormatter{}).Format(set))
		case "compact":
			fmt.Fprintln(out, (&compare.TableFormatter{}).FormatCompact(set))
		case "csv":
			s, err := (&compare.CSVFormatter{}).Format(set)
			if err != nil {
				return err
			}
			fmt.Fprint(out, s)
		case "json":
			s, err := (&compare.JSONFormatter{Pretty: true, Monthly: true}).Format(set)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
		default:
			return fmt.Errorf("unsupported format: %s (available: table, compact, csv, json)", format)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().String("base", "", "Base scenario ID or name (default the first scenario)")
	compareCmd.Flags().String("with", "", "Comma-separated list of templates to compare")
	compareCmd.Flags().String("scenarios", "", "Comma-separated list of workspace scenarios to compare")
	compareCmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	compareCmd.Flags().Bool("list-templates", false, "List all available scenario templates")

	rootCmd.AddCommand(compareCmd)
}
