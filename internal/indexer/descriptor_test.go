package indexer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenMirror/internal/model"
)

func TestDecodeTransferNormalisesFields(t *testing.T) {
	raw := rawTransfer(0xABC, 42, 1, 2, "123456789012345678901234567890")
	raw.TxHash = "0x" + strings.ToUpper(raw.TxHash[2:])

	event, err := decodeTransfer(raw)
	require.NoError(t, err)

	transfer, ok := event.(model.TransferEvent)
	require.True(t, ok)
	assert.Equal(t, txHash(0xABC), transfer.TxHash)
	assert.EqualValues(t, 1, transfer.LogIndex)
	assert.EqualValues(t, 42, transfer.BlockNumber)
	assert.Equal(t, time.Unix(1700000042, 0).UTC(), transfer.BlockTimestamp)
	assert.Len(t, transfer.FromAddress, 20)
	assert.EqualValues(t, 1, transfer.FromAddress[19])
	assert.EqualValues(t, 2, transfer.ToAddress[19])
	assert.Equal(t, "123456789012345678901234567890", transfer.Amount.String())
}

func TestDecodeBlacklistCategories(t *testing.T) {
	listed, err := DescriptorFor(model.CategoryBlacklisted)
	require.NoError(t, err)
	unlisted, err := DescriptorFor(model.CategoryUnBlacklisted)
	require.NoError(t, err)

	ev, err := listed.Decode(rawListing(1, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, model.CategoryBlacklisted, ev.Category())

	ev, err = unlisted.Decode(rawListing(1, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, model.CategoryUnBlacklisted, ev.Category())
}

func TestDecodeRejectsMalformedFields(t *testing.T) {
	cases := map[string]func(*model.RawEvent){
		"short address":   func(r *model.RawEvent) { r.To = "0x1234" },
		"non hex address": func(r *model.RawEvent) { r.To = "0xzz" },
		"decimal amount":  func(r *model.RawEvent) { r.Amount = "1.5" },
		"negative amount": func(r *model.RawEvent) { r.Amount = "-1" },
		"bad timestamp":   func(r *model.RawEvent) { r.Timestamp = "yesterday" },
		"bad block":       func(r *model.RawEvent) { r.BlockNumber = "0x10" },
		"short tx hash":   func(r *model.RawEvent) { r.TxHash = "0xabcd" },
		"log index range": func(r *model.RawEvent) { r.LogIndex = "4294967296" },
		"missing minter":  func(r *model.RawEvent) { r.Actor = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			raw := rawMint(1, 0, 10, "100")
			mutate(&raw)
			_, err := decodeMint(raw)
			assert.Error(t, err)
		})
	}
}

func TestDescriptorForUnknownCategory(t *testing.T) {
	_, err := DescriptorFor(model.Category("approval"))
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x00000000000000000000000000000000000000Ff ")
	require.NoError(t, err)
	assert.EqualValues(t, 0xff, addr[19])

	_, err = ParseAddress("0x123")
	assert.Error(t, err)
}
