package memory

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is an in-process Store used for dry runs and tests. Rows are kept in
// insertion order per category.
type Store struct {
	mu        sync.RWMutex
	keys      map[model.Category]map[model.DedupKey]struct{}
	mints     []model.MintEvent
	burns     []model.BurnEvent
	transfers []model.TransferEvent
	listings  []model.BlacklistEvent
	snapshots []model.TokenSnapshot
	alerts    []model.SystemAlert
}

func NewStore() *Store {
	keys := make(map[model.Category]map[model.DedupKey]struct{}, len(model.Categories))
	for _, c := range model.Categories {
		keys[c] = make(map[model.DedupKey]struct{})
	}
	return &Store{keys: keys}
}

func (s *Store) Close() {}

func (s *Store) Exists(_ context.Context, category model.Category, txHash string, logIndex uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.keys[category]
	if !ok {
		return false, fmt.Errorf("unknown category %q", category)
	}
	_, found := set[model.DedupKey{TxHash: txHash, LogIndex: logIndex}]
	return found, nil
}

func (s *Store) InsertEvent(_ context.Context, event model.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.keys[event.Category()]
	if !ok {
		return false, fmt.Errorf("unknown category %q", event.Category())
	}
	key := event.Meta().Key()
	if _, found := set[key]; found {
		return false, nil
	}

	switch ev := event.(type) {
	case model.MintEvent:
		s.mints = append(s.mints, ev)
	case model.BurnEvent:
		s.burns = append(s.burns, ev)
	case model.TransferEvent:
		s.transfers = append(s.transfers, ev)
	case model.BlacklistEvent:
		s.listings = append(s.listings, ev)
	default:
		return false, fmt.Errorf("unsupported event type %T", event)
	}
	set[key] = struct{}{}
	return true, nil
}

func (s *Store) MaxBlockNumber(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var highest uint64
	bump := func(b uint64) {
		if b > highest {
			highest = b
		}
	}
	for _, e := range s.mints {
		bump(e.BlockNumber)
	}
	for _, e := range s.burns {
		bump(e.BlockNumber)
	}
	for _, e := range s.transfers {
		bump(e.BlockNumber)
	}
	for _, e := range s.listings {
		bump(e.BlockNumber)
	}
	return highest, nil
}

func (s *Store) Totals(_ context.Context) (model.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	minted := big.NewInt(0)
	holders := make(map[string]struct{})
	for _, e := range s.mints {
		minted.Add(minted, e.Amount)
		holders[hex.EncodeToString(e.ToAddress)] = struct{}{}
	}
	burned := big.NewInt(0)
	for _, e := range s.burns {
		burned.Add(burned, e.Amount)
	}
	for _, e := range s.transfers {
		holders[hex.EncodeToString(e.FromAddress)] = struct{}{}
		holders[hex.EncodeToString(e.ToAddress)] = struct{}{}
	}

	return model.Totals{
		TotalMinted:       minted,
		TotalBurned:       burned,
		UniqueHolders:     uint64(len(holders)),
		TotalTransactions: uint64(len(s.transfers)),
	}, nil
}

func (s *Store) InsertSnapshot(_ context.Context, snapshot model.TokenSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.ID = int64(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *Store) InsertAlert(_ context.Context, alert model.SystemAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert.ID = int64(len(s.alerts) + 1)
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *Store) ListMints(_ context.Context, limit, offset int) ([]model.MintEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := append([]model.MintEvent(nil), s.mints...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].BlockTimestamp.After(rows[j].BlockTimestamp) })
	return page(rows, limit, offset), nil
}

func (s *Store) ListBurns(_ context.Context, limit, offset int) ([]model.BurnEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := append([]model.BurnEvent(nil), s.burns...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].BlockTimestamp.After(rows[j].BlockTimestamp) })
	return page(rows, limit, offset), nil
}

func (s *Store) ListTransfers(_ context.Context, limit, offset int) ([]model.TransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := append([]model.TransferEvent(nil), s.transfers...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].BlockTimestamp.After(rows[j].BlockTimestamp) })
	return page(rows, limit, offset), nil
}

func (s *Store) CountEvents(_ context.Context, category model.Category) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.keys[category]
	if !ok {
		return 0, fmt.Errorf("unknown category %q", category)
	}
	return uint64(len(set)), nil
}

func (s *Store) ActivityBetween(_ context.Context, category model.Category, from, to time.Time) (storage.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	act := storage.Activity{Sum: big.NewInt(0)}
	add := func(meta model.EventMeta, amount *big.Int) {
		if meta.BlockTimestamp.Before(from) || !meta.BlockTimestamp.Before(to) {
			return
		}
		act.Count++
		act.Sum.Add(act.Sum, amount)
	}
	switch category {
	case model.CategoryMint:
		for _, e := range s.mints {
			add(e.EventMeta, e.Amount)
		}
	case model.CategoryBurn:
		for _, e := range s.burns {
			add(e.EventMeta, e.Amount)
		}
	case model.CategoryTransfer:
		for _, e := range s.transfers {
			add(e.EventMeta, e.Amount)
		}
	default:
		return storage.Activity{}, fmt.Errorf("no activity for category %q", category)
	}
	return act, nil
}

func (s *Store) LargestTransfers(_ context.Context, from, to time.Time, limit int) ([]model.TransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]model.TransferEvent, 0)
	for _, e := range s.transfers {
		if e.BlockTimestamp.Before(from) || !e.BlockTimestamp.Before(to) {
			continue
		}
		rows = append(rows, e)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount.Cmp(rows[j].Amount) > 0 })
	return page(rows, limit, 0), nil
}

func (s *Store) BlacklistEvents(_ context.Context) ([]model.BlacklistEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.BlacklistEvent(nil), s.listings...), nil
}

func (s *Store) LatestTransfer(_ context.Context) (*model.TransferEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.TransferEvent
	for i := range s.transfers {
		if latest == nil || s.transfers[i].BlockNumber > latest.BlockNumber {
			e := s.transfers[i]
			latest = &e
		}
	}
	return latest, latest != nil, nil
}

func (s *Store) LatestSnapshots(_ context.Context, limit int) ([]model.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]model.TokenSnapshot, 0, len(s.snapshots))
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		rows = append(rows, s.snapshots[i])
	}
	return page(rows, limit, 0), nil
}

func (s *Store) CountSnapshots(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.snapshots)), nil
}

func (s *Store) UnresolvedAlerts(_ context.Context, limit int) ([]model.SystemAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]model.SystemAlert, 0)
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if !s.alerts[i].Resolved {
			rows = append(rows, s.alerts[i])
		}
	}
	return page(rows, limit, 0), nil
}

// Snapshots returns every stored snapshot in insertion order.
func (s *Store) Snapshots() []model.TokenSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TokenSnapshot(nil), s.snapshots...)
}

// Mints returns every stored mint in insertion order.
func (s *Store) Mints() []model.MintEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MintEvent(nil), s.mints...)
}

// Transfers returns every stored transfer in insertion order.
func (s *Store) Transfers() []model.TransferEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TransferEvent(nil), s.transfers...)
}

func page[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
