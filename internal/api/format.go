package api

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// displayExp scales smallest-unit amounts to whole tokens.
const displayExp = -8

func formatAmount(amount *big.Int) string {
	return toTokens(amount).StringFixed(-displayExp)
}

func toTokens(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, displayExp)
}

func formatAddress(addr []byte) string {
	return hexutil.Encode(addr)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// changePct is the percentage change from previous to current, rounded to two
// places, or zero when previous is zero.
func changePct(current, previous *big.Int) string {
	prev := toTokens(previous)
	if prev.IsZero() {
		return decimal.Zero.StringFixed(2)
	}
	return toTokens(current).Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).StringFixed(2)
}
