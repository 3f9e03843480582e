package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/audit"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse a company's postings against the filters (TUI)",
	Long:  "Shows the company picker, fetches the chosen board, then a split view of every posting vs the matched ones with the reason each rejected posting was filtered out.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	orgs, err := pipeline.SelectOrganizations(cfg.Companies, "", "")
	if err != nil {
		logger.Error("nothing to audit", "error", err)
		return err
	}

	classifier, err := setupClassifier(cfg)
	if err != nil {
		logger.Error("invalid filters", "error", err)
		return err
	}

	// Any log output while the TUI owns the terminal corrupts the display.
	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := setupFetcher(cfg, newHTTPClient(), silent)

	out := cmd.OutOrStdout()
	for {
		choice, err := audit.RunPicker(orgs)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		org := orgs[choice]

		postings, fetchErr := audit.RunLoader(org.Name, cfg.RunTimeout, func(ctx context.Context) ([]model.Posting, error) {
			return fetcher.Fetch(ctx, org)
		})
		if fetchErr != nil && len(postings) == 0 {
			fmt.Fprintf(out, "Error fetching postings: %v\n", fetchErr)
			continue
		}

		all, matched := audit.Evaluate(postings, classifier)
		wantQuit, err := audit.RunAuditTUI(org.Name, classifier.Ruleset(), all, matched, fetchErr)
		if err != nil {
			fmt.Fprintf(out, "TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}
