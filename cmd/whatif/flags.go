package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/logging"
	"github.com/rgehrsitz/whatif/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", name, raw)
	}
	return v, nil
}

func monthFlag(cmd *cobra.Command, name string) (domain.Month, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return 0, nil
	}
	m, err := domain.ParseMonth(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return m, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// openStore opens the version database named in the settings.
func openStore() (*store.VersionStore, error) {
	vs, err := store.Open(settings.DBPath)
	if err != nil {
		return nil, err
	}
	vs.SetLogger(logging.WithComponent(logger, "store"))
	vs.Actor = settings.Actor
	return vs, nil
}
