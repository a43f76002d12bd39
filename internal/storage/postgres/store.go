package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// unique_violation
const pgErrUniqueViolation = "23505"

var eventTables = map[model.Category]string{
	model.CategoryMint:          "mint_events",
	model.CategoryBurn:          "burn_events",
	model.CategoryTransfer:      "transfer_events",
	model.CategoryBlacklisted:   "blacklisted_events",
	model.CategoryUnBlacklisted: "unblacklisted_events",
}

// Store provides Postgres persistence for the event mirror.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func tableFor(category model.Category) (string, error) {
	table, ok := eventTables[category]
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return table, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}

func numeric(v *big.Int) pgtype.Numeric {
	if v == nil {
		v = big.NewInt(0)
	}
	return pgtype.Numeric{Int: new(big.Int).Set(v), Exp: 0, Valid: true}
}

func parseAmount(text string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", text)
	}
	return v, nil
}
