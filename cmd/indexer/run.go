package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tokenMirror/internal/alert"
	"tokenMirror/internal/api"
	"tokenMirror/internal/chain"
	"tokenMirror/internal/config"
	"tokenMirror/internal/indexer"
	"tokenMirror/internal/model"
	"tokenMirror/internal/source/rpc"
	"tokenMirror/internal/source/subgraph"
	"tokenMirror/internal/storage"
	"tokenMirror/internal/storage/memory"
	"tokenMirror/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var chainClient *chain.Client
	if cfg.RPCURL != "" {
		chainClient, err = chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		chainID, err := chainClient.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("get chain id: %w", err)
		}
		logger.Info("connected to chain", zap.String("chain_id", chainID.String()))
	}

	fetcher, err := newFetcher(cfg, chainClient, logger)
	if err != nil {
		return err
	}

	watermark := indexer.NewWatermark(0)
	alerts := alert.NewSink(store, cfg.AlertCooldown, logger).WithoutCooldown(model.AlertSnapshotError)
	snapshots := indexer.NewSnapshotBuilder(store, watermark, alerts, logger)
	service := indexer.NewService(indexer.Config{
		PollInterval:     cfg.PollInterval,
		SnapshotInterval: cfg.SnapshotInterval,
		HoldOnError:      cfg.HoldOnError,
	}, store, fetcher, watermark, snapshots, alerts, storage.NewJsonlDeadLetter(cfg.DeadLetter), logger)

	logger.Info("indexer start",
		zap.String("source", cfg.Source),
		zap.String("store", cfg.Store),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("snapshot_interval", cfg.SnapshotInterval),
		zap.Bool("hold_on_error", cfg.HoldOnError),
		zap.String("listen", cfg.Listen),
	)

	if err := service.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return service.Run(gctx)
	})

	if cfg.Listen != "" {
		deps := api.Deps{Store: store, Watermark: watermark, Logger: logger}
		if chainClient != nil {
			deps.Head = chainClient
		}
		server := api.NewServer(deps)

		g.Go(func() error {
			return server.Listen(cfg.Listen)
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("indexer stopped", zap.Uint64("watermark", watermark.Load()))
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.Store == config.StoreMemory {
		return memory.NewStore(), nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return store, nil
}

func newFetcher(cfg config.Config, chainClient *chain.Client, logger *zap.Logger) (indexer.Fetcher, error) {
	if cfg.Source == config.SourceRPC {
		token, err := indexer.ParseAddress(cfg.TokenAddress)
		if err != nil {
			return nil, fmt.Errorf("token address: %w", err)
		}
		return rpc.NewSource(rpc.Config{
			Token:        token,
			BatchSize:    cfg.BatchSize,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, chainClient, logger)
	}

	return subgraph.NewClient(subgraph.Config{
		URL:          cfg.SubgraphURL,
		PageSize:     cfg.PageSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		RateLimit:    cfg.RateLimit,
	}, logger)
}
