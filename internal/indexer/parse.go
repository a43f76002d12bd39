package indexer

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddress converts a 0x-prefixed hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// decodeAddress returns the 20 raw bytes of a 0x-prefixed hex address.
func decodeAddress(field, input string) ([]byte, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid hex %q: %w", field, input, err)
	}
	if len(data) != common.AddressLength {
		return nil, fmt.Errorf("%s: expected %d bytes, got %d", field, common.AddressLength, len(data))
	}
	return data, nil
}

// decodeTxHash validates a 32-byte transaction hash and returns its
// canonical lower-case form.
func decodeTxHash(input string) (string, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("tx hash: invalid hex %q: %w", input, err)
	}
	if len(data) != common.HashLength {
		return "", fmt.Errorf("tx hash: expected %d bytes, got %d", common.HashLength, len(data))
	}
	return hexutil.Encode(data), nil
}

// decodeAmount parses a base-10 integer in the smallest token unit.
func decodeAmount(input string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(input), 10)
	if !ok {
		return nil, fmt.Errorf("amount: invalid integer %q", input)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount: negative value %q", input)
	}
	return amount, nil
}

func decodeUint(field, input string, bits int) (uint64, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(input), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q: %w", field, input, err)
	}
	return value, nil
}

// decodeTimestamp converts unix seconds into a UTC time.
func decodeTimestamp(input string) (time.Time, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: invalid value %q: %w", input, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}
