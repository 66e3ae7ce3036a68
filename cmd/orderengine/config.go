package main

import (
	"strings"

	"github.com/coplib/orderengine/internal/runtime"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

// configFlags are shared by every subcommand that builds a Runtime (run,
// replay, verify-log), mirroring cmd/evm-node's DatabaseFlags convention
// of one flag set reused across commands.
var configFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
	&cli.IntFlag{Name: "event-workers", Usage: "Task Manager event worker pool size"},
	&cli.IntFlag{Name: "transaction-workers", Usage: "Task Manager transaction worker pool size"},
	&cli.IntFlag{Name: "in-queue-capacity", Usage: "incoming queue channel capacity hint"},
	&cli.StringFlag{Name: "pg-dsn", Usage: "PostgreSQL DSN for the write-behind mirror (empty disables persistence)"},
	&cli.DurationFlag{Name: "pg-backoff-min", Usage: "initial reconnect backoff"},
	&cli.DurationFlag{Name: "pg-backoff-max", Usage: "maximum reconnect backoff"},
	&cli.StringFlag{Name: "record-log", Usage: "path to the append-only record log"},
	&cli.Float64Flag{Name: "ingest-rate-limit", Usage: "per-source token-bucket rate limit, 0 disables"},
}

// loadConfig layers CLI flags over environment variables over an
// optional --config YAML file over runtime.DefaultConfig, following the
// teacher's cmd/evm-node practice of a typed Config struct fed by flags,
// done here with viper/pflag/cast since those are the pack's
// config-loading library rather than anything cmd/evm-node itself rolls.
func loadConfig(ctx *cli.Context) (runtime.Config, error) {
	cfg := runtime.DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("ORDERENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := ctx.String("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	fs := pflag.NewFlagSet("orderengine", pflag.ContinueOnError)
	fs.Int("event_workers", cfg.EventWorkers, "")
	fs.Int("transaction_workers", cfg.TransactionWorkers, "")
	fs.Int("in_queue_capacity_hint", cfg.InQueueCapacityHint, "")
	fs.String("pg_dsn", cfg.PGDSN, "")
	fs.Duration("pg_backoff_min", cfg.PGBackoffMin, "")
	fs.Duration("pg_backoff_max", cfg.PGBackoffMax, "")
	fs.String("record_log_path", cfg.RecordLogPath, "")
	fs.Float64("ingest_rate_limit", float64(cfg.IngestRateLimit), "")
	if err := v.BindPFlags(fs); err != nil {
		return cfg, err
	}

	for flag, key := range map[string]string{
		"event-workers":       "event_workers",
		"transaction-workers": "transaction_workers",
		"in-queue-capacity":   "in_queue_capacity_hint",
		"pg-dsn":              "pg_dsn",
		"pg-backoff-min":      "pg_backoff_min",
		"pg-backoff-max":      "pg_backoff_max",
		"record-log":          "record_log_path",
		"ingest-rate-limit":   "ingest_rate_limit",
	} {
		if ctx.IsSet(flag) {
			v.Set(key, ctx.Value(flag))
		}
	}

	cfg.EventWorkers = v.GetInt("event_workers")
	cfg.TransactionWorkers = v.GetInt("transaction_workers")
	cfg.InQueueCapacityHint = v.GetInt("in_queue_capacity_hint")
	cfg.PGDSN = v.GetString("pg_dsn")
	cfg.RecordLogPath = v.GetString("record_log_path")

	backoffMin, err := cast.ToDurationE(v.Get("pg_backoff_min"))
	if err != nil {
		return cfg, err
	}
	if backoffMin > 0 {
		cfg.PGBackoffMin = backoffMin
	}
	backoffMax, err := cast.ToDurationE(v.Get("pg_backoff_max"))
	if err != nil {
		return cfg, err
	}
	if backoffMax > 0 {
		cfg.PGBackoffMax = backoffMax
	}

	cfg.IngestRateLimit = rate.Limit(v.GetFloat64("ingest_rate_limit"))

	return cfg, nil
}
