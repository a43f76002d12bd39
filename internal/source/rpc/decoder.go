package rpc

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"tokenMirror/internal/model"
)

// eventNames maps each category onto its token contract event.
var eventNames = map[model.Category]string{
	model.CategoryMint:          "Minted",
	model.CategoryBurn:          "Burned",
	model.CategoryTransfer:      "Transfer",
	model.CategoryBlacklisted:   "Blacklisted",
	model.CategoryUnBlacklisted: "UnBlacklisted",
}

// decodedLog holds the event parameters of one token log.
type decodedLog struct {
	From    common.Address
	To      common.Address
	Account common.Address
	Amount  *big.Int
}

// Decoder decodes token logs with the token ABI.
type Decoder struct {
	tokenABI abi.ABI
}

func NewDecoder() (*Decoder, error) {
	tokenABI, err := TokenABI()
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}
	return &Decoder{tokenABI: tokenABI}, nil
}

// Topic0 returns the event signature hash for category.
func (d *Decoder) Topic0(category model.Category) (common.Hash, error) {
	event, err := d.event(category)
	if err != nil {
		return common.Hash{}, err
	}
	return event.ID, nil
}

func (d *Decoder) event(category model.Category) (abi.Event, error) {
	name, ok := eventNames[category]
	if !ok {
		return abi.Event{}, fmt.Errorf("unsupported category %q", category)
	}
	event, ok := d.tokenABI.Events[name]
	if !ok {
		return abi.Event{}, fmt.Errorf("event %s missing from token abi", name)
	}
	return event, nil
}

// Decode extracts the parameters of a category log.
func (d *Decoder) Decode(category model.Category, log types.Log) (decodedLog, error) {
	event, err := d.event(category)
	if err != nil {
		return decodedLog{}, err
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return decodedLog{}, fmt.Errorf("log is not a %s event", event.Name)
	}

	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return decodedLog{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(log.Topics))
	}

	values := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return decodedLog{}, fmt.Errorf("parse topics: %w", err)
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return decodedLog{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	var out decodedLog
	switch category {
	case model.CategoryMint:
		if out.To, err = asAddress(values, "to"); err != nil {
			return decodedLog{}, err
		}
		out.Amount, err = asBigInt(values, "amount")
	case model.CategoryBurn:
		if out.From, err = asAddress(values, "from"); err != nil {
			return decodedLog{}, err
		}
		out.Amount, err = asBigInt(values, "amount")
	case model.CategoryTransfer:
		if out.From, err = asAddress(values, "from"); err != nil {
			return decodedLog{}, err
		}
		if out.To, err = asAddress(values, "to"); err != nil {
			return decodedLog{}, err
		}
		out.Amount, err = asBigInt(values, "value")
	case model.CategoryBlacklisted, model.CategoryUnBlacklisted:
		out.Account, err = asAddress(values, "_account")
	}
	if err != nil {
		return decodedLog{}, err
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asAddress(values map[string]interface{}, name string) (common.Address, error) {
	addr, ok := values[name].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: expected address, got %T", name, values[name])
	}
	return addr, nil
}

func asBigInt(values map[string]interface{}, name string) (*big.Int, error) {
	value, ok := values[name].(*big.Int)
	if !ok || value == nil {
		return nil, fmt.Errorf("%s: expected uint256, got %T", name, values[name])
	}
	return value, nil
}
