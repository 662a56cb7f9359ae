package explorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

const blockcypherBaseURL = "https://api.blockcypher.com/v1"

// BlockcypherProvider normalizes the BlockCypher REST API. Covers bitcoin,
// litecoin and ethereum; amounts arrive in satoshi (btc/ltc) or wei (eth).
type BlockcypherProvider struct {
	http  *httpClient
	token string
}

// NewBlockcypherProvider creates the provider
func NewBlockcypherProvider(timeout time.Duration, ratePerSecond float64, burst int, token string, log *logger.Logger) *BlockcypherProvider {
	return &BlockcypherProvider{
		http:  newHTTPClient("blockcypher", timeout, ratePerSecond, burst, log),
		token: token,
	}
}

func (p *BlockcypherProvider) Name() string { return "blockcypher" }

func (p *BlockcypherProvider) Supports(network entity.Network) bool {
	switch network {
	case entity.NetworkBitcoin, entity.NetworkLitecoin, entity.NetworkEthereum:
		return true
	}
	return false
}

type blockcypherAddress struct {
	Address       string  `json:"address"`
	TotalReceived float64 `json:"total_received"`
	TotalSent     float64 `json:"total_sent"`
	Balance       float64 `json:"balance"`
	NTx           int64   `json:"n_tx"`
	TxRefs        []struct {
		TxHash    string    `json:"tx_hash"`
		Confirmed time.Time `json:"confirmed"`
	} `json:"txrefs"`
}

type blockcypherTx struct {
	Hash        string    `json:"hash"`
	BlockHeight int64     `json:"block_height"`
	BlockHash   string    `json:"block_hash"`
	Confirmed   time.Time `json:"confirmed"`
	Fees        float64   `json:"fees"`
	Inputs      []struct {
		Addresses   []string `json:"addresses"`
		OutputValue float64  `json:"output_value"`
	} `json:"inputs"`
	Outputs []struct {
		Addresses []string `json:"addresses"`
		Value     float64  `json:"value"`
		SpentBy   string   `json:"spent_by"`
	} `json:"outputs"`
}

type blockcypherFullAddress struct {
	Address string          `json:"address"`
	Txs     []blockcypherTx `json:"txs"`
}

// WalletInfo fetches /addrs/{addr} and converts minor units to the base unit
func (p *BlockcypherProvider) WalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	coin, err := p.coinPath(network)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/main/addrs/%s?limit=50%s", blockcypherBaseURL, coin, p.pathAddress(address, network), p.tokenParam())
	var resp blockcypherAddress
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if resp.Address == "" {
		return nil, &entity.NotFoundError{Resource: "wallet", Key: address}
	}

	divisor := p.divisor(network)
	info := &entity.WalletInfo{
		Address:          address,
		Network:          network,
		Balance:          resp.Balance / divisor,
		TotalReceived:    resp.TotalReceived / divisor,
		TotalSent:        resp.TotalSent / divisor,
		TransactionCount: resp.NTx,
	}
	// txrefs arrive newest first; timestamps beyond this page stay zero
	if n := len(resp.TxRefs); n > 0 {
		info.LastSeen = resp.TxRefs[0].Confirmed
		info.FirstSeen = resp.TxRefs[n-1].Confirmed
	}
	return info, nil
}

// Transactions fetches /addrs/{addr}/full, newest first
func (p *BlockcypherProvider) Transactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	coin, err := p.coinPath(network)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}

	url := fmt.Sprintf("%s/%s/main/addrs/%s/full?limit=%d%s", blockcypherBaseURL, coin, p.pathAddress(address, network), limit, p.tokenParam())
	var resp blockcypherFullAddress
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	txs := make([]*entity.Transaction, 0, len(resp.Txs))
	for i := range resp.Txs {
		if len(txs) >= limit {
			break
		}
		txs = append(txs, p.normalizeTx(&resp.Txs[i], network))
	}
	return txs, nil
}

// TransactionByHash fetches /txs/{hash}
func (p *BlockcypherProvider) TransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	coin, err := p.coinPath(network)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/main/txs/%s%s", blockcypherBaseURL, coin, strings.TrimPrefix(hash, "0x"), p.tokenFirstParam())
	var resp blockcypherTx
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if resp.Hash == "" {
		return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
	}
	return p.normalizeTx(&resp, network), nil
}

func (p *BlockcypherProvider) normalizeTx(raw *blockcypherTx, network entity.Network) *entity.Transaction {
	divisor := p.divisor(network)

	tx := &entity.Transaction{
		Hash:        p.canonicalHash(raw.Hash, network),
		Network:     network,
		BlockNumber: raw.BlockHeight,
		BlockHash:   raw.BlockHash,
		Timestamp:   raw.Confirmed,
		Fee:         raw.Fees / divisor,
		Status:      entity.TxStatusPending,
	}
	if raw.BlockHeight > 0 {
		tx.Status = entity.TxStatusConfirmed
	}

	for _, in := range raw.Inputs {
		addr := ""
		if len(in.Addresses) > 0 {
			addr = p.canonicalAddress(in.Addresses[0], network)
		}
		tx.Inputs = append(tx.Inputs, entity.TxInput{Address: addr, Value: in.OutputValue / divisor})
	}
	for _, out := range raw.Outputs {
		addr := ""
		if len(out.Addresses) > 0 {
			addr = p.canonicalAddress(out.Addresses[0], network)
		}
		tx.Outputs = append(tx.Outputs, entity.TxOutput{
			Address: addr,
			Value:   out.Value / divisor,
			Spent:   out.SpentBy != "",
		})
	}
	return tx
}

func (p *BlockcypherProvider) coinPath(network entity.Network) (string, error) {
	switch network {
	case entity.NetworkBitcoin:
		return "btc", nil
	case entity.NetworkLitecoin:
		return "ltc", nil
	case entity.NetworkEthereum:
		return "eth", nil
	}
	return "", &entity.ValidationError{Field: "network", Reason: "blockcypher does not index " + string(network)}
}

func (p *BlockcypherProvider) divisor(network entity.Network) float64 {
	if network == entity.NetworkEthereum {
		return weiPerETH
	}
	return satoshiPerBTC
}

// BlockCypher's ethereum endpoints take addresses and hashes without 0x
func (p *BlockcypherProvider) pathAddress(address string, network entity.Network) string {
	if network == entity.NetworkEthereum {
		return strings.TrimPrefix(strings.ToLower(address), "0x")
	}
	return address
}

func (p *BlockcypherProvider) canonicalAddress(address string, network entity.Network) string {
	if network == entity.NetworkEthereum && !strings.HasPrefix(address, "0x") {
		return "0x" + strings.ToLower(address)
	}
	return address
}

func (p *BlockcypherProvider) canonicalHash(hash string, network entity.Network) string {
	if network == entity.NetworkEthereum && !strings.HasPrefix(hash, "0x") {
		return "0x" + strings.ToLower(hash)
	}
	return hash
}

func (p *BlockcypherProvider) tokenParam() string {
	if p.token == "" {
		return ""
	}
	return "&token=" + p.token
}

func (p *BlockcypherProvider) tokenFirstParam() string {
	if p.token == "" {
		return ""
	}
	return "?token=" + p.token
}
