package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/state"
)

var (
	dryRun       bool
	onlyCompany  string
	onlyProvider string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, filter and diff once, then notify about new postings",
	Long: "Fetches every enabled company, keeps the postings that pass the filters, compares them with\n" +
		"the saved snapshot and notifies about new ones. --dry-run prints new postings without saving\n" +
		"state or notifying.",
	RunE: runRun,
}

func init() {
	// The root command runs a scan too, so it accepts the same flags.
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "print new postings but do not save state or notify")
		c.Flags().StringVar(&onlyCompany, "company", "", "only scan the company with this name")
		c.Flags().StringVar(&onlyProvider, "provider", "", "only scan companies on this provider")
	}
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	orgs, err := pipeline.SelectOrganizations(cfg.Companies, onlyCompany, onlyProvider)
	if err != nil {
		logger.Error("nothing to scan", "error", err)
		return err
	}

	return scan(cmd.Context(), cfg, orgs, dryRun, logger)
}

// scan wires a pipeline from cfg and runs it once over orgs.
func scan(ctx context.Context, cfg *config.Config, orgs []model.Organization, dry bool, logger *slog.Logger) error {
	logger.Info("config loaded",
		"companies", len(orgs),
		"ruleset", cfg.Filters.Ruleset,
		"workers", cfg.Workers,
		"state", cfg.State.Path,
	)

	classifier, err := setupClassifier(cfg)
	if err != nil {
		logger.Error("invalid filters", "error", err)
		return err
	}

	store, err := state.Open(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open state", "error", err)
		return err
	}
	defer store.Close()

	httpClient := newHTTPClient()
	n, err := setupNotifier(cfg, httpClient, logger)
	if err != nil {
		logger.Error("failed to set up notifier", "error", err)
		return err
	}

	m := metrics.New()
	p := pipeline.New(setupFetcher(cfg, httpClient, logger), classifier, store, n, m, logger)

	_, err = p.Run(ctx, orgs, pipeline.Options{
		Workers:    cfg.Workers,
		RunTimeout: cfg.RunTimeout,
		DryRun:     dry,
		ReportPath: cfg.ReportPath,
	})

	if cfg.Metrics.Textfile != "" && !dry {
		if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}

	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	return nil
}
