package main

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/output"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage saved forecast versions",
	Long:  "Save, list, inspect, compare, activate and delete forecast versions stored in the version database.",
}

var versionsSaveCmd = &cobra.Command{
	Use:   "save [workspace-file]",
	Short: "Build the forecast grid and save it as a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		grid, _, err := buildForecast(cmd, ws)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		activate, _ := cmd.Flags().GetBool("activate")
		return saveGrid(cmd, grid, ws.Year, name, description, activate)
	},
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved versions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")

		vs, err := openStore()
		if err != nil {
			return err
		}
		defer vs.Close()

		versions, err := vs.ListVersions(cmd.Context(), year)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output.RenderVersions(versions))
		return nil
	},
}

var versionsShowCmd = &cobra.Command{
	Use:   "show [version-id]",
	Short: "Print the forecast grid of a saved version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := openStore()
		if err != nil {
			return err
		}
		defer vs.Close()

		v, err := vs.GetVersion(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cells, err := vs.GetVersionCells(cmd.Context(), v.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format, _ := cmd.Flags().GetString("format"); format == "csv" {
			return output.WriteGridCSV(out, cells)
		}
		fmt.Fprintf(out, "%s  %s\n", v.Name, output.Muted(v.ID))
		if v.Description != "" {
			fmt.Fprintln(out, output.Muted(v.Description))
		}
		fmt.Fprint(out, output.RenderGrid(cells, v.Year))
		return nil
	},
}

var versionsDiffCmd = &cobra.Command{
	Use:   "diff [from-id] [to-id]",
	Short: "Compare account totals between two versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := openStore()
		if err != nil {
			return err
		}
		defer vs.Close()

		diff, err := vs.Diff(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output.RenderVersionDiff(diff))
		return nil
	},
}

var versionsActivateCmd = &cobra.Command{
	Use:   "activate [version-id]",
	Short: "Make a version the active one for its year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")

		vs, err := openStore()
		if err != nil {
			return err
		}
		defer vs.Close()

		if err := vs.SetActive(cmd.Context(), args[0], year); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version %s is now active\n", args[0])
		return nil
	},
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete [version-id]",
	Short: "Delete a version and its cells",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := openStore()
		if err != nil {
			return err
		}
		defer vs.Close()

		if err := vs.DeleteVersion(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted version %s\n", args[0])
		return nil
	},
}

func init() {
	addAdjustmentFlags(versionsSaveCmd)
	versionsSaveCmd.Flags().String("name", "", "Version name (required)")
	versionsSaveCmd.Flags().String("description", "", "Version description")
	versionsSaveCmd.Flags().Bool("activate", false, "Make the saved version active for its year")

	versionsListCmd.Flags().Int("year", 0, "Only list versions of this year")
	versionsShowCmd.Flags().StringP("format", "f", "table", "Output format (table, csv)")
	versionsActivateCmd.Flags().Int("year", 0, "Year to activate for (default the version's own year)")

	versionsCmd.AddCommand(versionsSaveCmd)
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsDiffCmd)
	versionsCmd.AddCommand(versionsActivateCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
	rootCmd.AddCommand(versionsCmd)
}
