package api

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.00000000", formatAmount(big.NewInt(100000000)))
	assert.Equal(t, "0.00000001", formatAmount(big.NewInt(1)))
	assert.Equal(t, "0.00000000", formatAmount(nil))

	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	assert.Equal(t, "1234567890123456789012.34567890", formatAmount(huge))
}

func TestFormatAddress(t *testing.T) {
	addr := make([]byte, 20)
	addr[0], addr[19] = 0xAB, 0x01
	assert.Equal(t, "0xab00000000000000000000000000000000000001", formatAddress(addr))
}

func TestChangePct(t *testing.T) {
	assert.Equal(t, "0.00", changePct(big.NewInt(500), big.NewInt(0)))
	assert.Equal(t, "50.00", changePct(big.NewInt(150), big.NewInt(100)))
	assert.Equal(t, "-25.00", changePct(big.NewInt(75), big.NewInt(100)))
}

func TestParseTimeframe(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	w, err := parseTimeframe("7d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), w.From)
	assert.Equal(t, now, w.To)

	prev := w.previous()
	assert.Equal(t, now.Add(-14*24*time.Hour), prev.From)
	assert.Equal(t, w.From, prev.To)

	w, err = parseTimeframe("", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), w.From)

	_, err = parseTimeframe("2w", now)
	assert.Error(t, err)
}
