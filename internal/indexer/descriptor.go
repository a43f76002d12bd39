package indexer

import (
	"fmt"

	"tokenMirror/internal/model"
)

// Descriptor binds an event category to the decoder that turns its raw
// upstream records into typed rows.
type Descriptor struct {
	Category model.Category
	Decode   func(raw model.RawEvent) (model.Event, error)
}

// Descriptors lists every mirrored category in processing order.
var Descriptors = []Descriptor{
	{Category: model.CategoryMint, Decode: decodeMint},
	{Category: model.CategoryBurn, Decode: decodeBurn},
	{Category: model.CategoryTransfer, Decode: decodeTransfer},
	{Category: model.CategoryBlacklisted, Decode: decodeBlacklist(true)},
	{Category: model.CategoryUnBlacklisted, Decode: decodeBlacklist(false)},
}

// DescriptorFor returns the descriptor registered for category.
func DescriptorFor(category model.Category) (Descriptor, error) {
	for _, d := range Descriptors {
		if d.Category == category {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("no descriptor for category %q", category)
}

// decodeKey derives the dedup key of a raw event.
func decodeKey(raw model.RawEvent) (model.DedupKey, error) {
	txHash, err := decodeTxHash(raw.TxHash)
	if err != nil {
		return model.DedupKey{}, err
	}
	logIndex, err := decodeUint("log index", raw.LogIndex, 32)
	if err != nil {
		return model.DedupKey{}, err
	}
	return model.DedupKey{TxHash: txHash, LogIndex: uint32(logIndex)}, nil
}

func decodeMeta(raw model.RawEvent) (model.EventMeta, error) {
	key, err := decodeKey(raw)
	if err != nil {
		return model.EventMeta{}, err
	}
	block, err := decodeUint("block number", raw.BlockNumber, 64)
	if err != nil {
		return model.EventMeta{}, err
	}
	ts, err := decodeTimestamp(raw.Timestamp)
	if err != nil {
		return model.EventMeta{}, err
	}
	return model.EventMeta{
		TxHash:         key.TxHash,
		LogIndex:       key.LogIndex,
		BlockNumber:    block,
		BlockTimestamp: ts,
	}, nil
}

func decodeMint(raw model.RawEvent) (model.Event, error) {
	meta, err := decodeMeta(raw)
	if err != nil {
		return nil, err
	}
	to, err := decodeAddress("to", raw.To)
	if err != nil {
		return nil, err
	}
	amount, err := decodeAmount(raw.Amount)
	if err != nil {
		return nil, err
	}
	minter, err := decodeAddress("minter", raw.Actor)
	if err != nil {
		return nil, err
	}
	return model.MintEvent{EventMeta: meta, ToAddress: to, Amount: amount, Minter: minter}, nil
}

func decodeBurn(raw model.RawEvent) (model.Event, error) {
	meta, err := decodeMeta(raw)
	if err != nil {
		return nil, err
	}
	from, err := decodeAddress("from", raw.From)
	if err != nil {
		return nil, err
	}
	amount, err := decodeAmount(raw.Amount)
	if err != nil {
		return nil, err
	}
	burner, err := decodeAddress("burner", raw.Actor)
	if err != nil {
		return nil, err
	}
	return model.BurnEvent{EventMeta: meta, FromAddress: from, Amount: amount, Burner: burner}, nil
}

func decodeTransfer(raw model.RawEvent) (model.Event, error) {
	meta, err := decodeMeta(raw)
	if err != nil {
		return nil, err
	}
	from, err := decodeAddress("from", raw.From)
	if err != nil {
		return nil, err
	}
	to, err := decodeAddress("to", raw.To)
	if err != nil {
		return nil, err
	}
	amount, err := decodeAmount(raw.Amount)
	if err != nil {
		return nil, err
	}
	return model.TransferEvent{EventMeta: meta, FromAddress: from, ToAddress: to, Amount: amount}, nil
}

func decodeBlacklist(listed bool) func(model.RawEvent) (model.Event, error) {
	return func(raw model.RawEvent) (model.Event, error) {
		meta, err := decodeMeta(raw)
		if err != nil {
			return nil, err
		}
		account, err := decodeAddress("account", raw.Account)
		if err != nil {
			return nil, err
		}
		blacklister, err := decodeAddress("blacklister", raw.Actor)
		if err != nil {
			return nil, err
		}
		return model.BlacklistEvent{EventMeta: meta, Account: account, Blacklister: blacklister, Listed: listed}, nil
	}
}
