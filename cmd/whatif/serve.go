package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rgehrsitz/whatif/internal/api"
	"github.com/rgehrsitz/whatif/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: "Serve scenario impacts, workspace validation and the saved versions over HTTP " +
		"under /api/v1 until interrupted.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = settings.ServerAddr
		}
		timeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

		vs, err := openStore()
		if err != nil {
			return err
		}
		defer vs.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(logger, api.Config{
			Addr:            addr,
			ShutdownTimeout: timeout,
			Dependencies: api.Dependencies{
				Versions: vs,
				Calc:     newCalcEngine(),
				Parser:   config.NewInputParser(),
			},
		})
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from settings)")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")

	rootCmd.AddCommand(serveCmd)
}
