// Package runtime assembles the Runtime context object that replaces the
// original design's singletons (Logger, SubscriptionMgr, WideDataStorage,
// IdTValueGenerator) per spec.md §9: every component receives what it
// needs through its constructor instead of reaching for a package-level
// global. Runtime is built once, in cmd/orderengine's main, and threaded
// through every other constructor in the module.
package runtime

import (
	"time"

	"golang.org/x/time/rate"
)

// Config is the engine's typed configuration, loaded by cmd/orderengine
// via viper/pflag/cast in the teacher's cmd/evm-node idiom.
type Config struct {
	EventWorkers        int           `mapstructure:"event_workers"`
	TransactionWorkers  int           `mapstructure:"transaction_workers"`
	InQueueCapacityHint int           `mapstructure:"in_queue_capacity_hint"`
	PGDSN               string        `mapstructure:"pg_dsn"`
	PGBackoffMin        time.Duration `mapstructure:"pg_backoff_min"`
	PGBackoffMax        time.Duration `mapstructure:"pg_backoff_max"`
	RecordLogPath       string        `mapstructure:"record_log_path"`
	FixedDate           uint32        `mapstructure:"fixed_date"`
	IngestRateLimit     rate.Limit    `mapstructure:"ingest_rate_limit"`
}

// DefaultConfig returns the configuration the teacher-style CLI falls back
// to when no flags/file override a field.
func DefaultConfig() Config {
	return Config{
		EventWorkers:        4,
		TransactionWorkers:  4,
		InQueueCapacityHint: 4096,
		PGBackoffMin:        time.Second,
		PGBackoffMax:        30 * time.Second,
		RecordLogPath:       "orderengine.log",
		IngestRateLimit:     0,
	}
}
