package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/ratelimit"
	"github.com/amishk599/jobradar/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobradar",
	Short: "Job radar: new engineering postings, straight from the ATS",
	Long: "JobRadar polls company career boards (Greenhouse, Lever, Ashby, Gem, SmartRecruiters, Workday),\n" +
		"keeps the roles that match your filters and alerts you to the ones it has not seen before.",
	// With no subcommand, do a single run.
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env (if present) and resolves the config file.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	return config.Resolve(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// newHTTPClient returns the client shared by adapters and notifiers. Adapter
// calls carry their own per-request deadline.
func newHTTPClient() *http.Client {
	return &http.Client{}
}

// setupFetcher builds the adapter registry with every adapter wrapped in
// retry, and each retry attempt spaced by the per-provider rate limiter.
func setupFetcher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *adapter.Registry {
	reg := adapter.NewRegistry(adapter.Options{
		Client:  httpClient,
		Timeout: cfg.RequestTimeout,
	})

	limiter := ratelimit.NewProviderLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.ATSOverrides)
	logger.Debug("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String(), "overrides", len(cfg.RateLimit.ATSOverrides))

	reg.Wrap(func(kind string, f model.Fetcher) model.Fetcher {
		f = ratelimit.NewRateLimitedFetcher(f, limiter, kind)
		return retry.NewRetryFetcher(f, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	})
	return reg
}

func setupClassifier(cfg *config.Config) (*filter.Classifier, error) {
	c, err := filter.New(filter.Options{
		Ruleset:              cfg.Filters.Ruleset,
		MinPostedDate:        cfg.Filters.MinPostedDate,
		MaxAge:               cfg.Filters.MaxAge,
		TitleKeywords:        cfg.Filters.TitleKeywords,
		TitleExcludeKeywords: cfg.Filters.TitleExcludeKeywords,
		Locations:            cfg.Filters.Locations,
		ExcludeLocations:     cfg.Filters.ExcludeLocations,
	})
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	return c, nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Notifier, error) {
	n, err := notifier.New(cfg.Notification.Type, cfg.Notification.WebhookURL, cfg.Notification.ChunkSize, httpClient, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Notification.Type != notifier.TypeLog {
		logger.Info("using webhook notifier", "type", cfg.Notification.Type)
	}
	return n, nil
}
