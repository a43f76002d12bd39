package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Token event mirror",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Mirror token events and serve the analytics API",
		RunE:  runIndexer,
	}

	addSourceFlags(runCmd)
	runCmd.Flags().Duration("poll-interval", 30*time.Second, "interval between polls")
	runCmd.Flags().Duration("snapshot-interval", 5*time.Minute, "interval between supply snapshots")
	runCmd.Flags().Bool("hold-on-error", true, "keep the watermark below events that failed to store")
	runCmd.Flags().String("dead-letter", "./data/dead_letter.jsonl", "JSONL file for events that failed to decode")
	runCmd.Flags().Duration("alert-cooldown", 5*time.Minute, "minimum time between alerts with the same title")
	runCmd.Flags().String("listen", ":4000", "HTTP listen address, empty disables the API")

	root.AddCommand(runCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record one supply snapshot and exit",
		RunE:  runSnapshot,
	}

	snapshotCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	snapshotCmd.Flags().Duration("alert-cooldown", 5*time.Minute, "minimum time between alerts with the same title")
	snapshotCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(snapshotCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	migrateCmd.PersistentFlags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up [N]",
		Short: "Apply all or the next N migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrate(true),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Roll back all or the last N migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrate(false),
	})

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "subgraph", "event source (subgraph, rpc)")
	cmd.Flags().String("subgraph-url", "", "token subgraph GraphQL endpoint")
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("token-address", "", "token contract address")
	cmd.Flags().String("store", "postgres", "event store (postgres, memory)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("page-size", 100, "subgraph page size")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per eth_getLogs batch")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Float64("rate-limit", 10, "subgraph requests per second, 0 disables throttling")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
		logger.Warn("set GOMAXPROCS", zap.Error(err))
	}
	return logger, nil
}
