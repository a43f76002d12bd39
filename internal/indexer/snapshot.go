package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tokenMirror/internal/metrics"
	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

// Alerter records operational failures for the health report.
type Alerter interface {
	Raise(ctx context.Context, severity model.Severity, title, description string)
}

// SnapshotBuilder recomputes supply and activity totals from the stored
// events and appends a TokenSnapshot.
type SnapshotBuilder struct {
	store     storage.SnapshotStore
	watermark *Watermark
	alerts    Alerter
	logger    *zap.Logger
	now       func() time.Time
}

func NewSnapshotBuilder(store storage.SnapshotStore, watermark *Watermark, alerts Alerter, logger *zap.Logger) *SnapshotBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotBuilder{
		store:     store,
		watermark: watermark,
		alerts:    alerts,
		logger:    logger.Named("snapshot"),
		now:       time.Now,
	}
}

// Build writes one snapshot. On failure an ERROR alert is raised and the
// error returned; the next call starts from scratch.
func (b *SnapshotBuilder) Build(ctx context.Context) (model.TokenSnapshot, error) {
	totals, err := b.store.Totals(ctx)
	if err != nil {
		return model.TokenSnapshot{}, b.fail(ctx, fmt.Errorf("compute totals: %w", err))
	}

	snap := model.NewTokenSnapshot(b.now().UTC(), totals, b.watermark.Load())
	if err := b.store.InsertSnapshot(ctx, snap); err != nil {
		return model.TokenSnapshot{}, b.fail(ctx, err)
	}

	metrics.SnapshotsTotal.WithLabelValues("ok").Inc()
	b.logger.Info("snapshot created",
		zap.String("total_supply", snap.TotalSupply.String()),
		zap.String("total_minted", snap.TotalMinted.String()),
		zap.String("total_burned", snap.TotalBurned.String()),
		zap.Uint64("unique_holders", snap.UniqueHolders),
		zap.Uint64("total_transactions", snap.TotalTransactions),
		zap.Uint64("latest_block", snap.LatestBlockNumber),
	)
	return snap, nil
}

func (b *SnapshotBuilder) fail(ctx context.Context, err error) error {
	metrics.SnapshotsTotal.WithLabelValues("error").Inc()
	b.logger.Error("snapshot failed", zap.Error(err))
	if b.alerts != nil {
		b.alerts.Raise(ctx, model.SeverityError, model.AlertSnapshotError, fmt.Sprintf("Failed to create snapshot: %v", err))
	}
	return err
}
