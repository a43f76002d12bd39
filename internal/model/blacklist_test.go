package model

import (
	"testing"
	"time"
)

func blacklistEvent(account byte, ts int64, block uint64, logIndex uint32, listed bool) BlacklistEvent {
	return BlacklistEvent{
		EventMeta: EventMeta{
			TxHash:         "0xabc",
			LogIndex:       logIndex,
			BlockNumber:    block,
			BlockTimestamp: time.Unix(ts, 0).UTC(),
		},
		Account: []byte{account},
		Listed:  listed,
	}
}

func TestCurrentlyBlacklistedUnlistedLater(t *testing.T) {
	got := CurrentlyBlacklisted([]BlacklistEvent{
		blacklistEvent(1, 100, 10, 0, true),
		blacklistEvent(1, 200, 20, 0, false),
	})
	if len(got) != 0 {
		t.Fatalf("expected account to be unlisted, got %+v", got)
	}
}

func TestCurrentlyBlacklistedByTimestampNotInsertionOrder(t *testing.T) {
	got := CurrentlyBlacklisted([]BlacklistEvent{
		blacklistEvent(1, 300, 30, 0, true),
		blacklistEvent(1, 200, 20, 0, false),
		blacklistEvent(2, 100, 10, 0, true),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 listed accounts, got %d", len(got))
	}
	if got[0].Account[0] != 1 || got[1].Account[0] != 2 {
		t.Fatalf("expected newest first: %+v", got)
	}
}

func TestCurrentlyBlacklistedTieBreak(t *testing.T) {
	got := CurrentlyBlacklisted([]BlacklistEvent{
		blacklistEvent(1, 100, 10, 3, false),
		blacklistEvent(1, 100, 10, 1, true),
	})
	if len(got) != 0 {
		t.Fatalf("higher log index should win: %+v", got)
	}
}

func TestCurrentlyBlacklistedTimestampBeforeBlock(t *testing.T) {
	// Timestamp is compared first; block and log index only break ties.
	got := CurrentlyBlacklisted([]BlacklistEvent{
		blacklistEvent(1, 200, 10, 0, true),
		blacklistEvent(1, 100, 20, 0, false),
		blacklistEvent(2, 100, 10, 0, false),
		blacklistEvent(2, 100, 11, 0, true),
	})
	if len(got) != 2 {
		t.Fatalf("expected both accounts listed, got %+v", got)
	}
}
