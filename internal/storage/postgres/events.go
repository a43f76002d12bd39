package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

// Exists reports whether an event row with the dedup key is present.
func (s *Store) Exists(ctx context.Context, category model.Category, txHash string, logIndex uint32) (bool, error) {
	table, err := tableFor(category)
	if err != nil {
		return false, err
	}
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE tx_hash = $1 AND log_index = $2)`,
		txHash, int32(logIndex),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", category, err)
	}
	return exists, nil
}

// InsertEvent writes the event if its (tx_hash, log_index) is not yet stored.
func (s *Store) InsertEvent(ctx context.Context, event model.Event) (bool, error) {
	meta := event.Meta()
	var (
		query string
		args  []any
	)
	switch ev := event.(type) {
	case model.MintEvent:
		query = `
			INSERT INTO mint_events (tx_hash, log_index, block_number, block_timestamp, to_address, amount, minter)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index) DO NOTHING`
		args = []any{meta.TxHash, int32(meta.LogIndex), int64(meta.BlockNumber), meta.BlockTimestamp, ev.ToAddress, numeric(ev.Amount), ev.Minter}
	case model.BurnEvent:
		query = `
			INSERT INTO burn_events (tx_hash, log_index, block_number, block_timestamp, from_address, amount, burner)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index) DO NOTHING`
		args = []any{meta.TxHash, int32(meta.LogIndex), int64(meta.BlockNumber), meta.BlockTimestamp, ev.FromAddress, numeric(ev.Amount), ev.Burner}
	case model.TransferEvent:
		query = `
			INSERT INTO transfer_events (tx_hash, log_index, block_number, block_timestamp, from_address, to_address, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index) DO NOTHING`
		args = []any{meta.TxHash, int32(meta.LogIndex), int64(meta.BlockNumber), meta.BlockTimestamp, ev.FromAddress, ev.ToAddress, numeric(ev.Amount)}
	case model.BlacklistEvent:
		table, err := tableFor(ev.Category())
		if err != nil {
			return false, err
		}
		query = `
			INSERT INTO ` + table + ` (tx_hash, log_index, block_number, block_timestamp, account, blacklister)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tx_hash, log_index) DO NOTHING`
		args = []any{meta.TxHash, int32(meta.LogIndex), int64(meta.BlockNumber), meta.BlockTimestamp, ev.Account, ev.Blacklister}
	default:
		return false, fmt.Errorf("unsupported event type %T", event)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert %s: %w", event.Category(), err)
	}
	return tag.RowsAffected() == 1, nil
}

// MaxBlockNumber returns the highest block number over all event tables.
func (s *Store) MaxBlockNumber(ctx context.Context) (uint64, error) {
	var highest int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(block_number), 0) FROM (
			SELECT MAX(block_number) AS block_number FROM mint_events
			UNION ALL SELECT MAX(block_number) FROM burn_events
			UNION ALL SELECT MAX(block_number) FROM transfer_events
			UNION ALL SELECT MAX(block_number) FROM blacklisted_events
			UNION ALL SELECT MAX(block_number) FROM unblacklisted_events
		) blocks
	`).Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("max block number: %w", err)
	}
	return uint64(highest), nil
}

func (s *Store) ListMints(ctx context.Context, limit, offset int) ([]model.MintEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, log_index, block_number, block_timestamp, to_address, amount::text, minter
		FROM mint_events
		ORDER BY block_timestamp DESC, block_number DESC, log_index DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list mints: %w", err)
	}
	defer rows.Close()

	out := make([]model.MintEvent, 0, limit)
	for rows.Next() {
		var (
			ev     model.MintEvent
			amount string
		)
		if err := scanMeta(rows, &ev.EventMeta, &ev.ToAddress, &amount, &ev.Minter); err != nil {
			return nil, err
		}
		if ev.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) ListBurns(ctx context.Context, limit, offset int) ([]model.BurnEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, log_index, block_number, block_timestamp, from_address, amount::text, burner
		FROM burn_events
		ORDER BY block_timestamp DESC, block_number DESC, log_index DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list burns: %w", err)
	}
	defer rows.Close()

	out := make([]model.BurnEvent, 0, limit)
	for rows.Next() {
		var (
			ev     model.BurnEvent
			amount string
		)
		if err := scanMeta(rows, &ev.EventMeta, &ev.FromAddress, &amount, &ev.Burner); err != nil {
			return nil, err
		}
		if ev.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) ListTransfers(ctx context.Context, limit, offset int) ([]model.TransferEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, log_index, block_number, block_timestamp, from_address, to_address, amount::text
		FROM transfer_events
		ORDER BY block_timestamp DESC, block_number DESC, log_index DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	return collectTransfers(rows, limit)
}

func (s *Store) LargestTransfers(ctx context.Context, from, to time.Time, limit int) ([]model.TransferEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, log_index, block_number, block_timestamp, from_address, to_address, amount::text
		FROM transfer_events
		WHERE block_timestamp >= $1 AND block_timestamp < $2
		ORDER BY amount DESC, block_number DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("largest transfers: %w", err)
	}
	defer rows.Close()
	return collectTransfers(rows, limit)
}

func (s *Store) LatestTransfer(ctx context.Context) (*model.TransferEvent, bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, log_index, block_number, block_timestamp, from_address, to_address, amount::text
		FROM transfer_events
		ORDER BY block_number DESC, log_index DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, false, fmt.Errorf("latest transfer: %w", err)
	}
	defer rows.Close()
	out, err := collectTransfers(rows, 1)
	if err != nil || len(out) == 0 {
		return nil, false, err
	}
	return &out[0], true, nil
}

func (s *Store) CountEvents(ctx context.Context, category model.Category) (uint64, error) {
	table, err := tableFor(category)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", category, err)
	}
	return uint64(count), nil
}

func (s *Store) ActivityBetween(ctx context.Context, category model.Category, from, to time.Time) (storage.Activity, error) {
	switch category {
	case model.CategoryMint, model.CategoryBurn, model.CategoryTransfer:
	default:
		return storage.Activity{}, fmt.Errorf("no activity for category %q", category)
	}
	table, err := tableFor(category)
	if err != nil {
		return storage.Activity{}, err
	}

	var (
		count int64
		sum   string
	)
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)::text
		FROM `+table+`
		WHERE block_timestamp >= $1 AND block_timestamp < $2
	`, from, to).Scan(&count, &sum)
	if err != nil {
		return storage.Activity{}, fmt.Errorf("%s activity: %w", category, err)
	}
	total, err := parseAmount(sum)
	if err != nil {
		return storage.Activity{}, err
	}
	return storage.Activity{Count: uint64(count), Sum: total}, nil
}

func (s *Store) BlacklistEvents(ctx context.Context) ([]model.BlacklistEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tx_hash, log_index, block_number, block_timestamp, account, blacklister, true
		FROM blacklisted_events
		UNION ALL
		SELECT tx_hash, log_index, block_number, block_timestamp, account, blacklister, false
		FROM unblacklisted_events
	`)
	if err != nil {
		return nil, fmt.Errorf("blacklist events: %w", err)
	}
	defer rows.Close()

	out := make([]model.BlacklistEvent, 0)
	for rows.Next() {
		var ev model.BlacklistEvent
		if err := scanMeta(rows, &ev.EventMeta, &ev.Account, &ev.Blacklister, &ev.Listed); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func collectTransfers(rows pgx.Rows, capacity int) ([]model.TransferEvent, error) {
	out := make([]model.TransferEvent, 0, capacity)
	for rows.Next() {
		var (
			ev     model.TransferEvent
			amount string
			err    error
		)
		if err = scanMeta(rows, &ev.EventMeta, &ev.FromAddress, &ev.ToAddress, &amount); err != nil {
			return nil, err
		}
		if ev.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// scanMeta scans the leading (tx_hash, log_index, block_number,
// block_timestamp) columns into meta and the rest into dest.
func scanMeta(rows pgx.Rows, meta *model.EventMeta, dest ...any) error {
	var (
		logIndex int32
		block    int64
	)
	targets := append([]any{&meta.TxHash, &logIndex, &block, &meta.BlockTimestamp}, dest...)
	if err := rows.Scan(targets...); err != nil {
		return fmt.Errorf("scan event row: %w", err)
	}
	meta.LogIndex = uint32(logIndex)
	meta.BlockNumber = uint64(block)
	meta.BlockTimestamp = meta.BlockTimestamp.UTC()
	return nil
}
