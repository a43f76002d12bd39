package rpc

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"tokenMirror/internal/model"
)

// buildRawEvent renders a decoded log in the wire encoding shared by all
// sources. Fields the category lacks stay empty, as does the whole payload
// when decoded is nil.
func buildRawEvent(category model.Category, log types.Log, decoded *decodedLog, timestamp uint64, actor common.Address) model.RawEvent {
	raw := model.RawEvent{
		ID:          log.TxHash.Hex() + "-" + strconv.FormatUint(uint64(log.Index), 10),
		TxHash:      hexutil.Encode(log.TxHash.Bytes()),
		LogIndex:    strconv.FormatUint(uint64(log.Index), 10),
		BlockNumber: strconv.FormatUint(log.BlockNumber, 10),
		Timestamp:   strconv.FormatUint(timestamp, 10),
	}
	if needsSender(category) {
		raw.Actor = addressHex(actor)
	}
	if decoded == nil {
		return raw
	}
	if decoded.Amount != nil {
		raw.Amount = decoded.Amount.String()
	}

	switch category {
	case model.CategoryMint:
		raw.To = addressHex(decoded.To)
	case model.CategoryBurn:
		raw.From = addressHex(decoded.From)
	case model.CategoryTransfer:
		raw.From = addressHex(decoded.From)
		raw.To = addressHex(decoded.To)
	case model.CategoryBlacklisted, model.CategoryUnBlacklisted:
		raw.Account = addressHex(decoded.Account)
	}
	return raw
}

func addressHex(addr common.Address) string {
	return hexutil.Encode(addr.Bytes())
}

// needsSender reports whether the category records the transaction sender.
func needsSender(category model.Category) bool {
	return category != model.CategoryTransfer
}
