package model

import (
	"math/big"
	"time"
)

// DedupKey uniquely identifies one upstream event occurrence.
type DedupKey struct {
	TxHash   string
	LogIndex uint32
}

// EventMeta holds the fields shared by every persisted event row.
type EventMeta struct {
	TxHash         string
	LogIndex       uint32
	BlockNumber    uint64
	BlockTimestamp time.Time
}

// Key returns the dedup key of the event.
func (m EventMeta) Key() DedupKey {
	return DedupKey{TxHash: m.TxHash, LogIndex: m.LogIndex}
}

// Event is a decoded, typed event row ready for persistence.
type Event interface {
	Category() Category
	Meta() EventMeta
}

// MintEvent is a mirrored Minted event. Amounts are in the smallest unit.
type MintEvent struct {
	EventMeta
	ToAddress []byte
	Amount    *big.Int
	Minter    []byte
}

func (e MintEvent) Category() Category { return CategoryMint }
func (e MintEvent) Meta() EventMeta    { return e.EventMeta }

// BurnEvent is a mirrored Burned event.
type BurnEvent struct {
	EventMeta
	FromAddress []byte
	Amount      *big.Int
	Burner      []byte
}

func (e BurnEvent) Category() Category { return CategoryBurn }
func (e BurnEvent) Meta() EventMeta    { return e.EventMeta }

// TransferEvent is a mirrored Transfer event.
type TransferEvent struct {
	EventMeta
	FromAddress []byte
	ToAddress   []byte
	Amount      *big.Int
}

func (e TransferEvent) Category() Category { return CategoryTransfer }
func (e TransferEvent) Meta() EventMeta    { return e.EventMeta }

// BlacklistEvent is a mirrored Blacklisted or UnBlacklisted event; Listed
// tells which one.
type BlacklistEvent struct {
	EventMeta
	Account     []byte
	Blacklister []byte
	Listed      bool
}

func (e BlacklistEvent) Category() Category {
	if e.Listed {
		return CategoryBlacklisted
	}
	return CategoryUnBlacklisted
}

func (e BlacklistEvent) Meta() EventMeta { return e.EventMeta }
