package model

import (
	"encoding/hex"
	"sort"

	"github.com/samber/lo"
)

// CurrentlyBlacklisted derives the accounts whose latest blacklist event is a
// Blacklisted one. Events are ordered by block timestamp; block number and
// log index break ties. The result is sorted newest first.
func CurrentlyBlacklisted(events []BlacklistEvent) []BlacklistEvent {
	latest := make(map[string]BlacklistEvent, len(events))
	for _, ev := range events {
		key := hex.EncodeToString(ev.Account)
		prev, ok := latest[key]
		if !ok || after(ev.EventMeta, prev.EventMeta) {
			latest[key] = ev
		}
	}

	listed := lo.Filter(lo.Values(latest), func(ev BlacklistEvent, _ int) bool {
		return ev.Listed
	})
	sort.Slice(listed, func(i, j int) bool {
		return after(listed[i].EventMeta, listed[j].EventMeta)
	})
	return listed
}

func after(a, b EventMeta) bool {
	if !a.BlockTimestamp.Equal(b.BlockTimestamp) {
		return a.BlockTimestamp.After(b.BlockTimestamp)
	}
	if a.BlockNumber != b.BlockNumber {
		return a.BlockNumber > b.BlockNumber
	}
	return a.LogIndex > b.LogIndex
}
