package main

import (
	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry run against one company per provider",
	Long:  "Smoke test: scans the first enabled company of each provider, prints new matches, exits. Does not save state or notify.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	orgs, err := pipeline.SelectOrganizations(cfg.Companies, "", "")
	if err != nil {
		logger.Error("nothing to scan", "error", err)
		return err
	}
	orgs = pipeline.FirstPerProvider(orgs)
	for _, o := range orgs {
		logger.Info("checking", "company", o.Name, "provider", o.ProviderKind())
	}

	if err := scan(cmd.Context(), cfg, orgs, true, logger); err != nil {
		return err
	}
	logger.Info("check complete")
	return nil
}
