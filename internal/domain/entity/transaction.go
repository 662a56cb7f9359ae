package entity

import (
	"time"
)

// TxStatus represents the confirmation state of a transaction
type TxStatus string

const (
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusPending   TxStatus = "pending"
	TxStatusFailed    TxStatus = "failed"
)

// TxInput is a spending side of a transaction. Value is in the network base unit.
type TxInput struct {
	Address string  `json:"address"`
	Value   float64 `json:"value"`
}

// TxOutput is a receiving side of a transaction. Value is in the network base unit.
type TxOutput struct {
	Address string  `json:"address"`
	Value   float64 `json:"value"`
	Spent   bool    `json:"spent"`
}

// Transaction is the canonical normalized transaction record. Immutable; once
// confirmed it is cache-stable and may be cached longer than wallet state.
type Transaction struct {
	Hash        string     `json:"hash"`
	Network     Network    `json:"network"`
	BlockNumber int64      `json:"block_number"`
	BlockHash   string     `json:"block_hash"`
	Timestamp   time.Time  `json:"timestamp"`
	Inputs      []TxInput  `json:"inputs"`
	Outputs     []TxOutput `json:"outputs"`
	Fee         float64    `json:"fee"`
	Status      TxStatus   `json:"status"`
}

// TotalValue is the total transferred amount, summed over outputs
func (t *Transaction) TotalValue() float64 {
	var total float64
	for _, out := range t.Outputs {
		total += out.Value
	}
	return total
}

// Counterparties returns the distinct addresses referenced by the transaction's
// inputs and outputs, excluding self and placeholder values, in first-encounter
// order (inputs before outputs).
func (t *Transaction) Counterparties(self string) []string {
	seen := make(map[string]bool)
	var out []string

	collect := func(addr string) {
		if addr == self || IsPlaceholderAddress(addr) || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}

	for _, in := range t.Inputs {
		collect(in.Address)
	}
	for _, o := range t.Outputs {
		collect(o.Address)
	}
	return out
}
