package storage

import (
	"context"
	"math/big"
	"time"

	"tokenMirror/internal/model"
)

// EventStore is the dedup and persistence gate for mirrored events.
type EventStore interface {
	// Exists reports whether the event identified by (txHash, logIndex) is
	// already stored for the category.
	Exists(ctx context.Context, category model.Category, txHash string, logIndex uint32) (bool, error)
	// InsertEvent stores the event unless its dedup key is already present.
	// It reports whether a row was written.
	InsertEvent(ctx context.Context, event model.Event) (bool, error)
	// MaxBlockNumber returns the highest block number across all event
	// tables, or 0 when nothing is stored.
	MaxBlockNumber(ctx context.Context) (uint64, error)
}

// SnapshotStore computes aggregates and appends snapshots.
type SnapshotStore interface {
	Totals(ctx context.Context) (model.Totals, error)
	InsertSnapshot(ctx context.Context, snapshot model.TokenSnapshot) error
}

// AlertStore persists system alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert model.SystemAlert) error
}

// Activity is the count and amount sum of one category over a time range.
type Activity struct {
	Count uint64
	Sum   *big.Int
}

// Reader exposes the read queries behind the analytics API.
type Reader interface {
	ListMints(ctx context.Context, limit, offset int) ([]model.MintEvent, error)
	ListBurns(ctx context.Context, limit, offset int) ([]model.BurnEvent, error)
	ListTransfers(ctx context.Context, limit, offset int) ([]model.TransferEvent, error)
	CountEvents(ctx context.Context, category model.Category) (uint64, error)
	// ActivityBetween aggregates mint, burn or transfer rows with
	// from <= block_timestamp < to.
	ActivityBetween(ctx context.Context, category model.Category, from, to time.Time) (Activity, error)
	LargestTransfers(ctx context.Context, from, to time.Time, limit int) ([]model.TransferEvent, error)
	BlacklistEvents(ctx context.Context) ([]model.BlacklistEvent, error)
	LatestTransfer(ctx context.Context) (*model.TransferEvent, bool, error)
	LatestSnapshots(ctx context.Context, limit int) ([]model.TokenSnapshot, error)
	CountSnapshots(ctx context.Context) (uint64, error)
	UnresolvedAlerts(ctx context.Context, limit int) ([]model.SystemAlert, error)
}

// Store is the full persistence surface.
type Store interface {
	EventStore
	SnapshotStore
	AlertStore
	Reader
	Close()
}

// DeadLetter receives events that failed decoding or persistence.
type DeadLetter interface {
	Put(record model.DecodeError) error
}
