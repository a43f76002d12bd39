package model

// RawEvent is an upstream event as delivered by a source, before decoding.
// Every value keeps its wire encoding: hashes and addresses are 0x-prefixed
// hex, numbers are base-10 strings, timestamps are unix seconds.
type RawEvent struct {
	ID          string `json:"id,omitempty"`
	TxHash      string `json:"tx_hash"`
	LogIndex    string `json:"log_index"`
	BlockNumber string `json:"block_number"`
	Timestamp   string `json:"timestamp"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Account     string `json:"account,omitempty"`
	Amount      string `json:"amount,omitempty"`
	// Actor is the transaction sender: minter, burner or blacklister.
	Actor string `json:"actor,omitempty"`
}
