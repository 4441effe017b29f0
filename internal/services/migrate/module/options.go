package module

import (
	"time"

	"garden/internal/platform/config"
)

// Options holds configuration options for the migration service
type Options struct {
	BatchSize    int
	MaxRetries   int
	RetryBase    time.Duration
	ReadTimeout  time.Duration
	BatchTimeout time.Duration
	EnableLeases bool
	LeaseTTL     time.Duration
	SampleRows   int
	DryRun       bool
}

// FromConfig reads the migration options from config with CORE_MIGRATE_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_MIGRATE_")
	return Options{
		BatchSize:    c.MayInt("BATCH_SIZE", 1000),
		MaxRetries:   c.MayInt("RETRIES", 1),
		RetryBase:    c.MayDuration("RETRY_BASE", 500*time.Millisecond),
		ReadTimeout:  c.MayDuration("READ_TIMEOUT", 0),
		BatchTimeout: c.MayDuration("BATCH_TIMEOUT", 0),
		EnableLeases: c.MayBool("LEASES", true),
		LeaseTTL:     c.MayDuration("LEASE_TTL", 6*time.Hour),
		SampleRows:   c.MayInt("SAMPLE_ROWS", 5),
		DryRun:       c.MayBool("DRY_RUN", false),
	}
}
