package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenMirror/internal/alert"
	"tokenMirror/internal/config"
	"tokenMirror/internal/indexer"
	"tokenMirror/internal/model"
	"tokenMirror/internal/storage/postgres"
)

// runSnapshot records a single snapshot against the current stored state.
// The watermark is taken from the highest stored block.
func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadMigrate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cooldown, _ := cmd.Flags().GetDuration("alert-cooldown")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	latest, err := store.MaxBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	alerts := alert.NewSink(store, cooldown, logger).WithoutCooldown(model.AlertSnapshotError)
	builder := indexer.NewSnapshotBuilder(store, indexer.NewWatermark(latest), alerts, logger)
	snapshot, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	logger.Info("snapshot recorded",
		zap.Uint64("block", snapshot.LatestBlockNumber),
		zap.String("total_supply", snapshot.TotalSupply.String()),
		zap.Uint64("unique_holders", snapshot.UniqueHolders),
		zap.Time("at", snapshot.SnapshotTime),
	)
	return nil
}
