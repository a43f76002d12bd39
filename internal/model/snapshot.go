package model

import (
	"math/big"
	"time"
)

// Totals are the aggregates a snapshot is computed from.
type Totals struct {
	TotalMinted       *big.Int
	TotalBurned       *big.Int
	UniqueHolders     uint64
	TotalTransactions uint64
}

// TokenSnapshot is an immutable point-in-time aggregate of the mirror.
type TokenSnapshot struct {
	ID                int64
	SnapshotTime      time.Time
	TotalSupply       *big.Int
	TotalMinted       *big.Int
	TotalBurned       *big.Int
	UniqueHolders     uint64
	TotalTransactions uint64
	LatestBlockNumber uint64
}

// NewTokenSnapshot derives a snapshot from totals. TotalSupply is always
// TotalMinted - TotalBurned.
func NewTokenSnapshot(at time.Time, totals Totals, latestBlock uint64) TokenSnapshot {
	minted := nonNil(totals.TotalMinted)
	burned := nonNil(totals.TotalBurned)
	return TokenSnapshot{
		SnapshotTime:      at.UTC(),
		TotalSupply:       new(big.Int).Sub(minted, burned),
		TotalMinted:       minted,
		TotalBurned:       burned,
		UniqueHolders:     totals.UniqueHolders,
		TotalTransactions: totals.TotalTransactions,
		LatestBlockNumber: latestBlock,
	}
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
