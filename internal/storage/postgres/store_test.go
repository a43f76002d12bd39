package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenMirror/internal/model"
)

func addr(b byte) []byte {
	out := make([]byte, 20)
	out[19] = b
	return out
}

func meta(tx string, logIndex uint32, block uint64, ts int64) model.EventMeta {
	return model.EventMeta{
		TxHash:         tx,
		LogIndex:       logIndex,
		BlockNumber:    block,
		BlockTimestamp: time.Unix(ts, 0).UTC(),
	}
}

func TestStoreInsertIfAbsent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	mint := model.MintEvent{
		EventMeta: meta("0xaa", 1, 10, 1700000000),
		ToAddress: addr(1),
		Amount:    new(big.Int).SetUint64(123456789012345678),
		Minter:    addr(9),
	}

	inserted, err := store.InsertEvent(ctx, mint)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertEvent(ctx, mint)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert of the same key must be a no-op")

	exists, err := store.Exists(ctx, model.CategoryMint, "0xaa", 1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, model.CategoryBurn, "0xaa", 1)
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := store.CountEvents(ctx, model.CategoryMint)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	mints, err := store.ListMints(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, mints, 1)
	assert.Equal(t, 0, mints[0].Amount.Cmp(mint.Amount))
	assert.Equal(t, mint.ToAddress, mints[0].ToAddress)
	assert.True(t, mints[0].BlockTimestamp.Equal(mint.BlockTimestamp))
}

func TestStoreMaxBlockAndTotals(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	maxBlock, err := store.MaxBlockNumber(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxBlock)

	events := []model.Event{
		model.MintEvent{EventMeta: meta("0x01", 0, 10, 1700000000), ToAddress: addr(1), Amount: big.NewInt(1000), Minter: addr(9)},
		model.MintEvent{EventMeta: meta("0x02", 0, 11, 1700000010), ToAddress: addr(2), Amount: big.NewInt(500), Minter: addr(9)},
		model.BurnEvent{EventMeta: meta("0x03", 0, 12, 1700000020), FromAddress: addr(1), Amount: big.NewInt(300), Burner: addr(1)},
		model.TransferEvent{EventMeta: meta("0x04", 0, 13, 1700000030), FromAddress: addr(1), ToAddress: addr(3), Amount: big.NewInt(200)},
		model.BlacklistEvent{EventMeta: meta("0x05", 2, 20, 1700000040), Account: addr(3), Blacklister: addr(9), Listed: true},
		model.BlacklistEvent{EventMeta: meta("0x06", 0, 21, 1700000050), Account: addr(3), Blacklister: addr(9), Listed: false},
	}
	for _, ev := range events {
		_, err := store.InsertEvent(ctx, ev)
		require.NoError(t, err)
	}

	maxBlock, err = store.MaxBlockNumber(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 21, maxBlock)

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1500", totals.TotalMinted.String())
	assert.Equal(t, "300", totals.TotalBurned.String())
	assert.EqualValues(t, 3, totals.UniqueHolders)
	assert.EqualValues(t, 1, totals.TotalTransactions)

	snap := model.NewTokenSnapshot(time.Now(), totals, maxBlock)
	require.NoError(t, store.InsertSnapshot(ctx, snap))
	snaps, err := store.LatestSnapshots(ctx, 5)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "1200", snaps[0].TotalSupply.String())

	listings, err := store.BlacklistEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
	assert.Empty(t, model.CurrentlyBlacklisted(listings))

	act, err := store.ActivityBetween(ctx, model.CategoryMint, time.Unix(1700000000, 0), time.Unix(1700000005, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, act.Count)
	assert.Equal(t, "1000", act.Sum.String())
}

func TestStoreAlerts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAlert(ctx, model.SystemAlert{
		Severity:    model.SeverityError,
		Title:       "Snapshot Error",
		Description: "boom",
		Source:      "INDEXER",
	}))

	alerts, err := store.UnresolvedAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityError, alerts[0].Severity)
	assert.False(t, alerts[0].Resolved)
}
