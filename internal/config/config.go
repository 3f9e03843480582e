package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/state"
)

// Config is the root configuration for a jobradar run.
type Config struct {
	CompaniesFile  string
	Companies      []model.Organization
	Workers        int
	RequestTimeout time.Duration // per outbound provider call
	RunTimeout     time.Duration // fetch phase of a whole run; zero means none
	State          StateConfig
	ReportPath     string
	Filters        FilterConfig
	Notification   NotificationConfig
	RateLimit      RateLimitConfig
	Retry          RetryConfig
	Metrics        MetricsConfig
}

// StateConfig selects the snapshot backend.
type StateConfig struct {
	Backend string `yaml:"backend"` // "json" or "sqlite"
	Path    string `yaml:"path"`
}

// FilterConfig selects the classifier ruleset and its extensions.
type FilterConfig struct {
	Ruleset              string
	MinPostedDate        string
	MaxAge               time.Duration
	TitleKeywords        []string
	TitleExcludeKeywords []string
	Locations            []string
	ExcludeLocations     []string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "discord"
	WebhookURL string `yaml:"webhook_url"` // required for slack and discord
	ChunkSize  int    `yaml:"chunk_size"`  // postings per Slack message
}

// RateLimitConfig controls provider-level request spacing.
type RateLimitConfig struct {
	MinDelay     time.Duration            // minimum gap between requests to the same provider
	ATSOverrides map[string]time.Duration // per-provider overrides, keyed by provider kind
}

// RetryConfig controls retries of transient provider failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // empty disables the export
}

const (
	DefaultConfigPath    = "config.yaml"
	defaultCompaniesFile = "companies.yaml"
	defaultStatePath     = "state/jobs_seen.json"
	defaultReportPath    = "state/new_jobs.json"
	defaultWorkers       = 10
	defaultTimeout       = 15 * time.Second
	defaultMaxRetries    = 2
	defaultBaseDelay     = 5 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	CompaniesFile  string               `yaml:"companies_file"`
	Companies      []model.Organization `yaml:"companies"`
	Workers        int                  `yaml:"workers"`
	RequestTimeout string               `yaml:"request_timeout"`
	RunTimeout     string               `yaml:"run_timeout"`
	State          StateConfig          `yaml:"state"`
	ReportPath     string               `yaml:"report_path"`
	Filters        rawFilterConfig      `yaml:"filters"`
	Notification   NotificationConfig   `yaml:"notification"`
	RateLimit      rawRateLimitConfig   `yaml:"rate_limit"`
	Retry          rawRetryConfig       `yaml:"retry"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

type rawFilterConfig struct {
	Ruleset              string   `yaml:"ruleset"`
	MinPostedDate        string   `yaml:"min_posted_date"`
	MaxAge               string   `yaml:"max_age"`
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

type rawRateLimitConfig struct {
	MinDelay     string            `yaml:"min_delay"`
	ATSOverrides map[string]string `yaml:"ats_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type companiesFile struct {
	Companies []model.Organization `yaml:"companies"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Resolve picks the config path and loads it.
// Priority: explicit path > JOBRADAR_CONFIG env var > "./config.yaml".
// When the path came from the default and the file does not exist, the
// built-in defaults plus environment overrides are used.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("JOBRADAR_CONFIG")
	}
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return build(rawConfig{}, ".")
	}
	return Load(DefaultConfigPath)
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return build(raw, filepath.Dir(path))
}

// build applies defaults and environment overrides, loads the companies
// file, and validates. Relative companies_file paths resolve against dir.
func build(raw rawConfig, dir string) (*Config, error) {
	cfg := &Config{
		CompaniesFile: raw.CompaniesFile,
		Companies:     raw.Companies,
		Workers:       raw.Workers,
		State:         raw.State,
		ReportPath:    raw.ReportPath,
		Notification:  raw.Notification,
		Metrics:       raw.Metrics,
		Filters: FilterConfig{
			Ruleset:              raw.Filters.Ruleset,
			MinPostedDate:        raw.Filters.MinPostedDate,
			TitleKeywords:        raw.Filters.TitleKeywords,
			TitleExcludeKeywords: raw.Filters.TitleExcludeKeywords,
			Locations:            raw.Filters.Locations,
			ExcludeLocations:     raw.Filters.ExcludeLocations,
		},
		Retry: RetryConfig{MaxRetries: defaultMaxRetries, BaseDelay: defaultBaseDelay},
	}

	var err error
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultTimeout); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = parseDuration("run_timeout", raw.RunTimeout, 0); err != nil {
		return nil, err
	}
	if cfg.Filters.MaxAge, err = parseDuration("filters.max_age", raw.Filters.MaxAge, 0); err != nil {
		return nil, err
	}
	if cfg.RateLimit.MinDelay, err = parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 0); err != nil {
		return nil, err
	}
	cfg.RateLimit.ATSOverrides = make(map[string]time.Duration)
	for ats, v := range raw.RateLimit.ATSOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.ats_overrides[%q]: %w", ats, err)
		}
		cfg.RateLimit.ATSOverrides[adapter.Canonical(strings.ToLower(ats))] = d
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if cfg.Retry.BaseDelay, err = parseDuration("retry.base_delay", raw.Retry.BaseDelay, defaultBaseDelay); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	fromEnv := os.Getenv("COMPANIES_FILE") != ""
	if len(cfg.Companies) == 0 || raw.CompaniesFile != "" || fromEnv {
		path := cfg.CompaniesFile
		if raw.CompaniesFile != "" && !fromEnv && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		orgs, err := LoadCompanies(path)
		if err != nil {
			return nil, err
		}
		cfg.Companies = append(cfg.Companies, orgs...)
	}
	for i := range cfg.Companies {
		if cfg.Companies[i].Name == "" {
			cfg.Companies[i].Name = cfg.Companies[i].Identifier()
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCompanies reads a companies file of the form {companies: [...]}.
func LoadCompanies(path string) ([]model.Organization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companies file: %w", err)
	}
	var f companiesFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("parse companies file %s: %w", path, err)
	}
	return f.Companies, nil
}

// applyEnv applies the environment overrides.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("COMPANIES_FILE"); v != "" {
		cfg.CompaniesFile = v
	}
	if v := os.Getenv("JOB_RADAR_STATE"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("JOB_RADAR_OUTPUT"); v != "" {
		cfg.ReportPath = v
	}
	if v := os.Getenv("JOB_RADAR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse JOB_RADAR_WORKERS %q: %w", v, err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		switch cfg.Notification.Type {
		case "":
			cfg.Notification.Type = notifier.TypeDiscord
			cfg.Notification.WebhookURL = v
		case notifier.TypeDiscord:
			cfg.Notification.WebhookURL = v
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.CompaniesFile == "" {
		cfg.CompaniesFile = defaultCompaniesFile
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = state.BackendJSON
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaultStatePath
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = defaultReportPath
	}
	if cfg.Filters.Ruleset == "" {
		cfg.Filters.Ruleset = filter.RulesetStrict
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = notifier.TypeLog
	}
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must not be negative, got %v", cfg.RunTimeout)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	enabled := 0
	for i, c := range cfg.Companies {
		if !c.IsEnabled() {
			continue
		}
		enabled++
		if c.ProviderKind() == "" {
			return fmt.Errorf("companies[%d] (%s): provider is required", i, c.Name)
		}
		if c.Identifier() == "" {
			return fmt.Errorf("companies[%d] (%s): id or url is required", i, c.Name)
		}
		if adapter.Canonical(c.ProviderKind()) == adapter.KindWorkday && c.URL == "" {
			return fmt.Errorf("companies[%d] (%s): workday companies need a url", i, c.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one company must be enabled")
	}

	if _, ok := filter.LookupRuleset(strings.ToLower(cfg.Filters.Ruleset)); !ok {
		return fmt.Errorf("filters.ruleset must be %q or %q, got %q", filter.RulesetStrict, filter.RulesetBroad, cfg.Filters.Ruleset)
	}
	if cfg.Filters.MinPostedDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.Filters.MinPostedDate); err != nil {
			return fmt.Errorf("filters.min_posted_date must be YYYY-MM-DD, got %q", cfg.Filters.MinPostedDate)
		}
	}
	if cfg.Filters.MaxAge < 0 {
		return fmt.Errorf("filters.max_age must not be negative, got %v", cfg.Filters.MaxAge)
	}

	switch cfg.State.Backend {
	case state.BackendJSON, state.BackendSQLite:
	default:
		return fmt.Errorf("state.backend must be %q or %q, got %q", state.BackendJSON, state.BackendSQLite, cfg.State.Backend)
	}

	switch cfg.Notification.Type {
	case notifier.TypeLog:
	case notifier.TypeSlack:
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	case notifier.TypeDiscord:
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url (or DISCORD_WEBHOOK_URL) is required when type is \"discord\"")
		}
	default:
		return fmt.Errorf("notification.type must be log, slack or discord, got %q", cfg.Notification.Type)
	}

	return nil
}
