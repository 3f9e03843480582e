package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/adapter"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List all configured companies",
	Long:  "Reads the config and companies file and prints a table of every configured company.",
	RunE:  runCompanies,
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-25s %-16s %-10s %s\n", "Company", "Provider", "Status", "Board")
	fmt.Fprintln(out, strings.Repeat("─", 72))

	enabled, disabled := 0, 0
	for _, c := range cfg.Companies {
		status := "enabled"
		if c.IsEnabled() {
			enabled++
		} else {
			status = "disabled"
			disabled++
		}
		fmt.Fprintf(out, "%-25s %-16s %-10s %s\n", c.Name, adapter.Canonical(c.ProviderKind()), status, c.Identifier())
	}

	fmt.Fprintf(out, "\nTotal: %d companies (%d enabled, %d disabled)\n", len(cfg.Companies), enabled, disabled)
	return nil
}
