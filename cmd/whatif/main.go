package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/config"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/logging"
	"github.com/rgehrsitz/whatif/internal/output"
	"github.com/rgehrsitz/whatif/internal/transform"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Resolved in the root PersistentPreRunE for every subcommand.
var (
	settings config.Settings
	logger   *logrus.Logger
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "whatif %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" && cmd.Flags().Changed("verbose") {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Driver-based revenue scenario planner",
	Long: "Model revenue what-if scenarios from typed business drivers, push their " +
		"impact into a monthly forecast grid as reversible adjustments, and keep " +
		"saved forecast versions per year.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		s, err := config.LoadSettings(path)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			s.LogLevel = level
		}
		if format, _ := cmd.Flags().GetString("log-format"); format != "" {
			s.LogFormat = format
		}
		if db, _ := cmd.Flags().GetString("db"); db != "" {
			s.DBPath = db
		}
		if err := s.Validate(); err != nil {
			return err
		}

		settings = s
		logger = logging.New(logging.Options{
			Level:  s.LogLevel,
			Format: s.LogFormat,
			Output: cmd.ErrOrStderr(),
		})
		return nil
	},
}

// loadWorkspace reads and validates a workspace document.
func loadWorkspace(path string) (*domain.Workspace, error) {
	ws, err := config.NewInputParser().LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"workspace": path,
		"accounts":  len(ws.Accounts),
		"scenarios": len(ws.Scenarios),
	}).Debug("workspace loaded")
	return ws, nil
}

// pickScenario resolves a scenario by ID or name; with no key the workspace
// must hold exactly one scenario, or the first is used with a warning.
func pickScenario(ws *domain.Workspace, key string) (*domain.Scenario, error) {
	if key != "" {
		s, ok := ws.FindScenario(key)
		if !ok {
			return nil, fmt.Errorf("scenario %s not found in workspace", key)
		}
		return s, nil
	}
	if len(ws.Scenarios) == 0 {
		return nil, fmt.Errorf("workspace %s has no scenarios", ws.Name)
	}
	if len(ws.Scenarios) > 1 {
		logger.Warnf("no scenario named; using %s", ws.Scenarios[0].Name)
	}
	return &ws.Scenarios[0], nil
}

func newCalcEngine() *calculation.CalculationEngine {
	ce := calculation.NewCalculationEngine()
	ce.SetLogger(logging.WithComponent(logger, "calculation"))
	ce.Debug = logger.IsLevelEnabled(logrus.TraceLevel)
	return ce
}

var validateCmd = &cobra.Command{
	Use:   "validate [workspace-file]",
	Short: "Validate a workspace file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s is valid (%d accounts, %d scenarios, %d adjustments)\n",
			args[0], len(ws.Accounts), len(ws.Scenarios), len(ws.Adjustments))
		return nil
	},
}

var impactsCmd = &cobra.Command{
	Use:   "impacts [workspace-file] [scenario]",
	Short: "Calculate the monthly revenue impact of a scenario",
	Long: "Evaluate every driver of a scenario for each calendar month of its start year.\n\n" +
		"Transforms and templates are applied to a copy of the scenario before it runs, e.g.\n" +
		"  whatif impacts plan.yaml growth --transform add_driver:type=cac,id=ads\n" +
		"  whatif impacts plan.yaml growth --template holiday_season",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		key := ""
		if len(args) > 1 {
			key = args[1]
		}
		scenario, err := pickScenario(ws, key)
		if err != nil {
			return err
		}

		transforms, _ := cmd.Flags().GetStringArray("transform")
		templateName, _ := cmd.Flags().GetString("template")
		scenario, err = reshapeScenario(scenario, transforms, templateName)
		if err != nil {
			return err
		}

		summary, err := newCalcEngine().RunScenario(scenario)
		if err != nil {
			return err
		}

		formatName, _ := cmd.Flags().GetString("format")
		formatter := output.GetFormatterByName(formatName)
		if formatter == nil {
			return fmt.Errorf("unknown format %q (available: %v, aliases: %v)",
				formatName, output.AvailableFormatterNames(), output.AvailableFormatAliases())
		}
		if compact, _ := cmd.Flags().GetBool("compact"); compact {
			if _, ok := formatter.(output.JSONFormatter); ok {
				formatter = output.JSONFormatter{Pretty: false}
			}
		}
		return output.WriteFormatted(cmd.OutOrStdout(), formatter, summary)
	},
}

// reshapeScenario applies transform specs and then a named template to a
// copy of scenario.
func reshapeScenario(scenario *domain.Scenario, specs []string, templateName string) (*domain.Scenario, error) {
	if len(specs) > 0 {
		registry := transform.NewTransformRegistry(transform.NewDriverRegistry())
		seq := make(transform.Sequence, 0, len(specs))
		for _, spec := range specs {
			tr, err := registry.ParseTransformSpec(spec)
			if err != nil {
				return nil, err
			}
			seq = append(seq, tr)
		}
		reshaped, err := seq.Apply(scenario)
		if err != nil {
			return nil, err
		}
		logger.Debugf("applied transforms: %s", seq.Description())
		scenario = reshaped
	}

	if templateName != "" {
		tmpl, ok := transform.CreateBuiltInTemplates(scenario.BaseRevenue).Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}
		reshaped, err := transform.ApplyTemplate(scenario, tmpl)
		if err != nil {
			return nil, err
		}
		scenario = reshaped
	}
	return scenario, nil
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the built-in scenario templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := decimalFlag(cmd, "base-revenue")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates(base)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (default $XDG_CONFIG_HOME/whatif/settings.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("db", "", "Version database path (overrides settings)")

	impactsCmd.Flags().StringP("format", "f", "console", "Output format (console, csv, json)")
	impactsCmd.Flags().Bool("compact", false, "Write JSON on a single line")
	impactsCmd.Flags().StringArray("transform", nil, "Transform spec applied before calculating (repeatable)")
	impactsCmd.Flags().String("template", "", "Built-in template applied before calculating")

	templatesCmd.Flags().String("base-revenue", "100000", "Monthly base revenue the templates are sized against")

	vc := versionCmd()
	vc.Flags().Bool("verbose", false, "Include Go build information")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(impactsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(vc)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
