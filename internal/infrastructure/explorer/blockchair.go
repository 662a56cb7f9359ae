package explorer

import (
	"context"
	"fmt"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

const (
	blockchairBaseURL    = "https://api.blockchair.com"
	blockchairTimeLayout = "2006-01-02 15:04:05"
)

// BlockchairProvider normalizes the Blockchair dashboards API for bitcoin and
// litecoin. Amounts arrive in satoshi.
type BlockchairProvider struct {
	http *httpClient
}

// NewBlockchairProvider creates the provider
func NewBlockchairProvider(timeout time.Duration, ratePerSecond float64, burst int, log *logger.Logger) *BlockchairProvider {
	return &BlockchairProvider{
		http: newHTTPClient("blockchair", timeout, ratePerSecond, burst, log),
	}
}

func (p *BlockchairProvider) Name() string { return "blockchair" }

func (p *BlockchairProvider) Supports(network entity.Network) bool {
	return network == entity.NetworkBitcoin || network == entity.NetworkLitecoin
}

type blockchairAddressData struct {
	Address struct {
		Balance            float64 `json:"balance"`
		Received           float64 `json:"received"`
		Spent              float64 `json:"spent"`
		TransactionCount   int64   `json:"transaction_count"`
		FirstSeenReceiving string  `json:"first_seen_receiving"`
		LastSeenSpending   string  `json:"last_seen_spending"`
		LastSeenReceiving  string  `json:"last_seen_receiving"`
	} `json:"address"`
	Transactions []string `json:"transactions"`
}

type blockchairAddressResponse struct {
	Data map[string]blockchairAddressData `json:"data"`
}

type blockchairTxData struct {
	Transaction struct {
		Hash      string  `json:"hash"`
		BlockID   int64   `json:"block_id"`
		Time      string  `json:"time"`
		Fee       float64 `json:"fee"`
		BlockHash string  `json:"block_hash"`
	} `json:"transaction"`
	Inputs []struct {
		Recipient string  `json:"recipient"`
		Value     float64 `json:"value"`
	} `json:"inputs"`
	Outputs []struct {
		Recipient string  `json:"recipient"`
		Value     float64 `json:"value"`
		IsSpent   bool    `json:"is_spent"`
	} `json:"outputs"`
}

type blockchairTxResponse struct {
	Data map[string]blockchairTxData `json:"data"`
}

// WalletInfo fetches the address dashboard and converts satoshi to base units
func (p *BlockchairProvider) WalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	chain, err := p.chainPath(network)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/dashboards/address/%s?limit=1", blockchairBaseURL, chain, address)
	var resp blockchairAddressResponse
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	data, ok := resp.Data[address]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "wallet", Key: address}
	}
	a := data.Address

	info := &entity.WalletInfo{
		Address:          address,
		Network:          network,
		Balance:          a.Balance / satoshiPerBTC,
		TotalReceived:    a.Received / satoshiPerBTC,
		TotalSent:        a.Spent / satoshiPerBTC,
		TransactionCount: a.TransactionCount,
		FirstSeen:        parseBlockchairTime(a.FirstSeenReceiving),
	}
	info.LastSeen = parseBlockchairTime(a.LastSeenSpending)
	if last := parseBlockchairTime(a.LastSeenReceiving); last.After(info.LastSeen) {
		info.LastSeen = last
	}
	return info, nil
}

// Transactions resolves the dashboard's newest-first hash list, then each
// transaction, capped at limit. Every hop goes through the rate limiter.
func (p *BlockchairProvider) Transactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	chain, err := p.chainPath(network)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}

	url := fmt.Sprintf("%s/%s/dashboards/address/%s?limit=%d", blockchairBaseURL, chain, address, limit)
	var resp blockchairAddressResponse
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	data, ok := resp.Data[address]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "wallet", Key: address}
	}

	txs := make([]*entity.Transaction, 0, limit)
	for _, hash := range data.Transactions {
		if len(txs) >= limit {
			break
		}
		tx, err := p.TransactionByHash(ctx, hash, network)
		if err != nil {
			// one unresolvable hash does not fail the whole page
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// TransactionByHash fetches the transaction dashboard
func (p *BlockchairProvider) TransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	chain, err := p.chainPath(network)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/dashboards/transaction/%s", blockchairBaseURL, chain, hash)
	var resp blockchairTxResponse
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	data, ok := resp.Data[hash]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
	}

	tx := &entity.Transaction{
		Hash:        data.Transaction.Hash,
		Network:     network,
		BlockNumber: data.Transaction.BlockID,
		BlockHash:   data.Transaction.BlockHash,
		Timestamp:   parseBlockchairTime(data.Transaction.Time),
		Fee:         data.Transaction.Fee / satoshiPerBTC,
		Status:      entity.TxStatusPending,
	}
	if data.Transaction.BlockID > 0 {
		tx.Status = entity.TxStatusConfirmed
	}
	for _, in := range data.Inputs {
		tx.Inputs = append(tx.Inputs, entity.TxInput{Address: in.Recipient, Value: in.Value / satoshiPerBTC})
	}
	for _, out := range data.Outputs {
		tx.Outputs = append(tx.Outputs, entity.TxOutput{Address: out.Recipient, Value: out.Value / satoshiPerBTC, Spent: out.IsSpent})
	}
	return tx, nil
}

func (p *BlockchairProvider) chainPath(network entity.Network) (string, error) {
	switch network {
	case entity.NetworkBitcoin:
		return "bitcoin", nil
	case entity.NetworkLitecoin:
		return "litecoin", nil
	}
	return "", &entity.ValidationError{Field: "network", Reason: "blockchair does not index " + string(network)}
}

func parseBlockchairTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(blockchairTimeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
