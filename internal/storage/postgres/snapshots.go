package postgres

import (
	"context"
	"fmt"

	"tokenMirror/internal/model"
)

// Totals computes supply and activity aggregates in a single statement so
// every figure comes from the same MVCC snapshot.
func (s *Store) Totals(ctx context.Context) (model.Totals, error) {
	var (
		minted, burned     string
		holders, transfers int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(amount), 0)::text FROM mint_events),
			(SELECT COALESCE(SUM(amount), 0)::text FROM burn_events),
			(SELECT COUNT(*) FROM (
				SELECT from_address AS address FROM transfer_events
				UNION SELECT to_address FROM transfer_events
				UNION SELECT to_address FROM mint_events
			) holders),
			(SELECT COUNT(*) FROM transfer_events)
	`).Scan(&minted, &burned, &holders, &transfers)
	if err != nil {
		return model.Totals{}, fmt.Errorf("compute totals: %w", err)
	}

	totalMinted, err := parseAmount(minted)
	if err != nil {
		return model.Totals{}, err
	}
	totalBurned, err := parseAmount(burned)
	if err != nil {
		return model.Totals{}, err
	}
	return model.Totals{
		TotalMinted:       totalMinted,
		TotalBurned:       totalBurned,
		UniqueHolders:     uint64(holders),
		TotalTransactions: uint64(transfers),
	}, nil
}

// InsertSnapshot appends an immutable snapshot row.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.TokenSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_snapshots (
			snapshot_time, total_supply, total_minted, total_burned,
			unique_holders, total_transactions, latest_block_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		snap.SnapshotTime,
		numeric(snap.TotalSupply),
		numeric(snap.TotalMinted),
		numeric(snap.TotalBurned),
		int64(snap.UniqueHolders),
		int64(snap.TotalTransactions),
		int64(snap.LatestBlockNumber),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *Store) LatestSnapshots(ctx context.Context, limit int) ([]model.TokenSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, snapshot_time, total_supply::text, total_minted::text, total_burned::text,
			unique_holders, total_transactions, latest_block_number
		FROM token_snapshots
		ORDER BY snapshot_time DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]model.TokenSnapshot, 0, limit)
	for rows.Next() {
		var (
			snap                    model.TokenSnapshot
			supply, minted, burned  string
			holders, txs, lastBlock int64
		)
		if err := rows.Scan(&snap.ID, &snap.SnapshotTime, &supply, &minted, &burned, &holders, &txs, &lastBlock); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if snap.TotalSupply, err = parseAmount(supply); err != nil {
			return nil, err
		}
		if snap.TotalMinted, err = parseAmount(minted); err != nil {
			return nil, err
		}
		if snap.TotalBurned, err = parseAmount(burned); err != nil {
			return nil, err
		}
		snap.SnapshotTime = snap.SnapshotTime.UTC()
		snap.UniqueHolders = uint64(holders)
		snap.TotalTransactions = uint64(txs)
		snap.LatestBlockNumber = uint64(lastBlock)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) CountSnapshots(ctx context.Context) (uint64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM token_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return uint64(count), nil
}
