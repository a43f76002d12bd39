package subgraph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tokenMirror/internal/model"
)

// scalar accepts a JSON string or number. Subgraph BigInt and BigDecimal
// values arrive as strings, Int values as numbers.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = scalar(num.String())
	return nil
}

// record is the union of all entity shapes served by the subgraph.
type record struct {
	ID              scalar `json:"id"`
	From            scalar `json:"from"`
	To              scalar `json:"to"`
	Account         scalar `json:"account"`
	Amount          scalar `json:"amount"`
	Timestamp       scalar `json:"timestamp"`
	BlockTimestamp  scalar `json:"blockTimestamp"`
	BlockNumber     scalar `json:"blockNumber"`
	TransactionHash scalar `json:"transactionHash"`
	Txhash          scalar `json:"txhash"`
	LogIndex        scalar `json:"logIndex"`
	Minter          scalar `json:"minter"`
	Burner          scalar `json:"burner"`
	Blacklister     scalar `json:"blacklister"`
}

// normalize maps a subgraph record onto RawEvent. Transfer entities name
// their hash and time fields differently from the other entities.
func (r record) normalize(category model.Category) model.RawEvent {
	raw := model.RawEvent{
		ID:          string(r.ID),
		TxHash:      string(r.TransactionHash),
		LogIndex:    string(r.LogIndex),
		BlockNumber: string(r.BlockNumber),
		Timestamp:   string(r.Timestamp),
		From:        string(r.From),
		To:          string(r.To),
		Account:     string(r.Account),
		Amount:      string(r.Amount),
	}
	if raw.TxHash == "" {
		raw.TxHash = string(r.Txhash)
	}
	if raw.Timestamp == "" {
		raw.Timestamp = string(r.BlockTimestamp)
	}

	switch category {
	case model.CategoryMint:
		raw.Actor = string(r.Minter)
	case model.CategoryBurn:
		raw.Actor = string(r.Burner)
	case model.CategoryBlacklisted, model.CategoryUnBlacklisted:
		raw.Actor = string(r.Blacklister)
	}
	return raw
}
