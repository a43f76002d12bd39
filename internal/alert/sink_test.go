package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage/memory"
)

type failingStore struct{ calls int }

func (f *failingStore) InsertAlert(context.Context, model.SystemAlert) error {
	f.calls++
	return errors.New("database is down")
}

func TestSinkCooldownPerTitle(t *testing.T) {
	store := memory.NewStore()
	sink := NewSink(store, 5*time.Minute, nil)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return clock }
	ctx := context.Background()

	sink.Raise(ctx, model.SeverityError, model.AlertPollError, "first")
	sink.Raise(ctx, model.SeverityError, model.AlertPollError, "suppressed")
	sink.Raise(ctx, model.SeverityWarning, model.AlertEventSkipped, "other title")

	clock = clock.Add(6 * time.Minute)
	sink.Raise(ctx, model.SeverityError, model.AlertPollError, "after cooldown")

	alerts, err := store.UnresolvedAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.Equal(t, Source, a.Source)
		assert.NotEqual(t, "suppressed", a.Description)
	}
}

func TestSinkRetriesAfterPersistFailure(t *testing.T) {
	store := &failingStore{}
	sink := NewSink(store, time.Hour, nil)

	sink.Raise(context.Background(), model.SeverityError, "Indexer Poll Error", "a")
	sink.Raise(context.Background(), model.SeverityError, "Indexer Poll Error", "b")

	assert.Equal(t, 2, store.calls)
}

func TestSinkExemptTitleIgnoresCooldown(t *testing.T) {
	store := memory.NewStore()
	sink := NewSink(store, 5*time.Minute, nil).WithoutCooldown(model.AlertSnapshotError)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return clock }
	ctx := context.Background()

	// Snapshot ticks can fire slightly inside the cooldown window.
	sink.Raise(ctx, model.SeverityError, model.AlertSnapshotError, "first")
	clock = clock.Add(5*time.Minute - time.Millisecond)
	sink.Raise(ctx, model.SeverityError, model.AlertSnapshotError, "second")
	sink.Raise(ctx, model.SeverityError, model.AlertPollError, "poll")
	sink.Raise(ctx, model.SeverityError, model.AlertPollError, "poll suppressed")

	alerts, err := store.UnresolvedAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.NotEqual(t, "poll suppressed", a.Description)
	}
}
