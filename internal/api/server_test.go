package api

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func addr(b byte) []byte {
	out := make([]byte, 20)
	out[19] = b
	return out
}

func meta(tx string, block uint64, at time.Time) model.EventMeta {
	return model.EventMeta{TxHash: tx, BlockNumber: block, BlockTimestamp: at}
}

type staticHead uint64

func (h staticHead) LatestBlockNumber(context.Context) (uint64, error) { return uint64(h), nil }

type staticWatermark uint64

func (w staticWatermark) Load() uint64 { return uint64(w) }

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	events := []model.Event{
		model.MintEvent{EventMeta: meta("0x01", 10, testNow.Add(-2*time.Hour)), ToAddress: addr(1), Amount: big.NewInt(300000000), Minter: addr(9)},
		model.MintEvent{EventMeta: meta("0x02", 11, testNow.Add(-30*time.Hour)), ToAddress: addr(2), Amount: big.NewInt(200000000), Minter: addr(9)},
		model.BurnEvent{EventMeta: meta("0x03", 12, testNow.Add(-time.Hour)), FromAddress: addr(1), Amount: big.NewInt(50000000), Burner: addr(1)},
		model.TransferEvent{EventMeta: meta("0x04", 13, testNow.Add(-3*time.Hour)), FromAddress: addr(1), ToAddress: addr(3), Amount: big.NewInt(10000000)},
		model.TransferEvent{EventMeta: meta("0x05", 14, testNow.Add(-90*time.Minute)), FromAddress: addr(3), ToAddress: addr(4), Amount: big.NewInt(70000000)},
		model.BlacklistEvent{EventMeta: meta("0x06", 15, testNow.Add(-50*time.Minute)), Account: addr(3), Blacklister: addr(9), Listed: true},
		model.BlacklistEvent{EventMeta: meta("0x07", 16, testNow.Add(-40*time.Minute)), Account: addr(4), Blacklister: addr(9), Listed: true},
		model.BlacklistEvent{EventMeta: meta("0x08", 17, testNow.Add(-30*time.Minute)), Account: addr(4), Blacklister: addr(9), Listed: false},
	}
	for _, ev := range events {
		_, err := store.InsertEvent(ctx, ev)
		require.NoError(t, err)
	}
	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	require.NoError(t, store.InsertSnapshot(ctx, model.NewTokenSnapshot(testNow.Add(-time.Minute), totals, 17)))
	require.NoError(t, store.InsertAlert(ctx, model.SystemAlert{
		Severity: model.SeverityError, Title: "Snapshot Error", Source: "INDEXER", CreatedAt: testNow,
	}))

	srv := NewServer(Deps{Store: store, Head: staticHead(40), Watermark: staticWatermark(17)})
	srv.now = func() time.Time { return testNow }
	return srv, store
}

func getJSON(t *testing.T, srv *Server, target string) (int, map[string]any) {
	t.Helper()
	resp, err := srv.App().Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestOverview(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := getJSON(t, srv, "/api/token/overview?timeframe=24h")
	require.Equal(t, 200, status)

	overview := body["overview"].(map[string]any)
	assert.Equal(t, "4.50000000", overview["total_supply"])
	assert.Equal(t, "5.00000000", overview["total_minted"])
	assert.Equal(t, "0.50000000", overview["total_burned"])

	activity := body["timeframe_activity"].(map[string]any)
	mints := activity["mints"].(map[string]any)
	assert.EqualValues(t, 1, mints["count"])
	assert.Equal(t, "3.00000000", mints["amount"])
	assert.Equal(t, "50.00", mints["change_pct"])

	transfers := activity["transfers"].(map[string]any)
	assert.EqualValues(t, 2, transfers["count"])
	assert.Equal(t, "0.80000000", transfers["volume"])

	large := body["recent_activity"].(map[string]any)["large_transfers"].([]any)
	require.Len(t, large, 2)
	assert.Equal(t, "0.70000000", large[0].(map[string]any)["amount"])
}

func TestOverviewRejectsUnknownTimeframe(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := getJSON(t, srv, "/api/token/overview?timeframe=1y")
	assert.Equal(t, 400, status)
	assert.Contains(t, body["error"], "unsupported timeframe")
}

func TestHistoryPagination(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := getJSON(t, srv, "/api/token/transfers?limit=1&offset=0")
	require.Equal(t, 200, status)

	transfers := body["transfers"].([]any)
	require.Len(t, transfers, 1)
	first := transfers[0].(map[string]any)
	assert.Equal(t, "0x05", first["transaction"], "newest first")
	assert.Equal(t, "0x0000000000000000000000000000000000000003", first["from"])

	page := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, page["total"])
	assert.Equal(t, true, page["has_more"])

	_, body = getJSON(t, srv, "/api/token/mints?limit=10")
	assert.Len(t, body["mints"].([]any), 2)
	assert.Equal(t, false, body["pagination"].(map[string]any)["has_more"])

	_, body = getJSON(t, srv, "/api/token/burns")
	burn := body["burns"].([]any)[0].(map[string]any)
	assert.Equal(t, "0.50000000", burn["amount"])
}

func TestBlacklistStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := getJSON(t, srv, "/api/token/blacklist")
	require.Equal(t, 200, status)

	current := body["currently_blacklisted"].([]any)
	require.Len(t, current, 1)
	assert.Equal(t, "0x0000000000000000000000000000000000000003", current[0].(map[string]any)["account"])

	history := body["blacklist_history"].(map[string]any)
	assert.EqualValues(t, 2, history["total_blacklisted"])
	assert.EqualValues(t, 1, history["total_unblacklisted"])
	assert.EqualValues(t, 1, history["currently_active"])
}

func TestBlacklistHistoryCountsDistinctAccounts(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	// Account 4 is listed a second time and account 3 delisted twice.
	for _, ev := range []model.Event{
		model.BlacklistEvent{EventMeta: meta("0x09", 18, testNow.Add(-20*time.Minute)), Account: addr(4), Blacklister: addr(9), Listed: true},
		model.BlacklistEvent{EventMeta: meta("0x0a", 19, testNow.Add(-15*time.Minute)), Account: addr(3), Blacklister: addr(9), Listed: false},
		model.BlacklistEvent{EventMeta: meta("0x0b", 20, testNow.Add(-10*time.Minute)), Account: addr(3), Blacklister: addr(9), Listed: false},
	} {
		_, err := store.InsertEvent(ctx, ev)
		require.NoError(t, err)
	}

	status, body := getJSON(t, srv, "/api/token/blacklist")
	require.Equal(t, 200, status)

	history := body["blacklist_history"].(map[string]any)
	assert.EqualValues(t, 2, history["total_blacklisted"])
	assert.EqualValues(t, 2, history["total_unblacklisted"])
	assert.EqualValues(t, 1, history["currently_active"])
}

func TestSystemHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := getJSON(t, srv, "/api/system/health")
	require.Equal(t, 200, status)

	database := body["database"].(map[string]any)
	assert.EqualValues(t, 14, database["last_block"])
	totals := database["total_events"].(map[string]any)
	assert.EqualValues(t, 2, totals["mints"])

	indexer := body["indexer"].(map[string]any)
	assert.EqualValues(t, 1, indexer["snapshots_count"])
	assert.EqualValues(t, 17, indexer["watermark"])
	assert.EqualValues(t, 40, indexer["chain_head"])
	assert.EqualValues(t, 23, indexer["lag_blocks"])

	alerts := body["alerts"].([]any)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Snapshot Error", alerts[0].(map[string]any)["title"])
}

func TestSnapshotsAndLiveness(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := getJSON(t, srv, "/api/token/snapshots?limit=5")
	require.Equal(t, 200, status)
	snaps := body["snapshots"].([]any)
	require.Len(t, snaps, 1)
	assert.Equal(t, "4.50000000", snaps[0].(map[string]any)["total_supply"])

	status, body = getJSON(t, srv, "/health")
	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", body["status"])
}
