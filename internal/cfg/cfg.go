package cfg

import (
	"errors"
	"flag"
	"fmt"

	"github.com/linnemanlabs/sift/internal/triage"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	DatabaseURL           string
	SQLitePath            string
	SlackWebhookURL       string
	NotifyMinTier         string
	BatchWorkers          int
	MaxBatchSize          int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on /api/v1 routes")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL")
	fs.StringVar(&c.SQLitePath, "sqlite-path", "", "SQLite database file (used when database-url is empty; both empty = in-memory store)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for notifications")
	fs.StringVar(&c.NotifyMinTier, "notify-min-tier", string(triage.TierUrgent), "lowest priority tier that triggers a notification (urgent, high, medium, low)")
	fs.IntVar(&c.BatchWorkers, "batch-workers", triage.DefaultWorkers, "concurrent scorers for rank requests (1..64)")
	fs.IntVar(&c.MaxBatchSize, "max-batch-size", triage.DefaultMaxBatch, "maximum threads per rank request (1..10000)")
}

// NotifyTier returns the parsed notification threshold. Call after Validate.
func (c *Config) NotifyTier() triage.Tier {
	t, ok := triage.ParseTier(c.NotifyMinTier)
	if !ok {
		return triage.TierUrgent
	}
	return t
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}

	if c.DatabaseURL != "" && c.SQLitePath != "" {
		errs = append(errs, errors.New("DATABASE_URL and SQLITE_PATH are mutually exclusive"))
	}

	if _, ok := triage.ParseTier(c.NotifyMinTier); !ok {
		errs = append(errs, fmt.Errorf("invalid NOTIFY_MIN_TIER %q (must be urgent, high, medium or low)", c.NotifyMinTier))
	}

	if c.BatchWorkers <= 0 || c.BatchWorkers > 64 {
		errs = append(errs, fmt.Errorf("invalid BATCH_WORKERS %d (must be 1..64)", c.BatchWorkers))
	}
	if c.MaxBatchSize <= 0 || c.MaxBatchSize > 10000 {
		errs = append(errs, fmt.Errorf("invalid MAX_BATCH_SIZE %d (must be 1..10000)", c.MaxBatchSize))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
