package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

const etherscanBaseURL = "https://api.etherscan.io/api"

// EtherscanProvider normalizes the Etherscan account and proxy APIs for
// ethereum. Amounts arrive in wei, as decimal strings on account endpoints
// and hex quantities on proxy endpoints.
type EtherscanProvider struct {
	http   *httpClient
	apiKey string
}

// NewEtherscanProvider creates the provider
func NewEtherscanProvider(timeout time.Duration, ratePerSecond float64, burst int, apiKey string, log *logger.Logger) *EtherscanProvider {
	return &EtherscanProvider{
		http:   newHTTPClient("etherscan", timeout, ratePerSecond, burst, log),
		apiKey: apiKey,
	}
}

func (p *EtherscanProvider) Name() string { return "etherscan" }

func (p *EtherscanProvider) Supports(network entity.Network) bool {
	return network == entity.NetworkEthereum
}

type etherscanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type etherscanTx struct {
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	TimeStamp   string `json:"timeStamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	GasUsed     string `json:"gasUsed"`
	GasPrice    string `json:"gasPrice"`
	IsError     string `json:"isError"`
}

type etherscanProxyTx struct {
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
}

// WalletInfo combines the balance endpoint with the first txlist page.
// Totals and timestamps are derived from the observed page only; Etherscan
// has no aggregate endpoint, so fields beyond the page default to zero.
func (p *EtherscanProvider) WalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	if network != entity.NetworkEthereum {
		return nil, &entity.ValidationError{Field: "network", Reason: "etherscan does not index " + string(network)}
	}
	address = strings.ToLower(address)

	url := fmt.Sprintf("%s?module=account&action=balance&address=%s&tag=latest%s", etherscanBaseURL, address, p.keyParam())
	var env etherscanEnvelope
	if err := p.http.getJSON(ctx, url, &env); err != nil {
		return nil, err
	}
	if env.Status != "1" {
		return nil, &entity.ProviderError{Provider: p.Name(), Op: "balance",
			Err: fmt.Errorf("etherscan: %s", env.Message)}
	}
	var balanceWei string
	if err := json.Unmarshal(env.Result, &balanceWei); err != nil {
		return nil, &entity.ProviderError{Provider: p.Name(), Op: "balance", Err: err}
	}

	info := &entity.WalletInfo{
		Address: address,
		Network: network,
		Balance: weiToEth(balanceWei),
	}

	txs, err := p.fetchTxList(ctx, address, 100)
	if err != nil {
		// balance alone is still a usable record
		return info, nil
	}
	info.TransactionCount = int64(len(txs))
	for _, tx := range txs {
		value := weiToEth(tx.Value)
		if strings.EqualFold(tx.From, address) {
			info.TotalSent += value
		}
		if strings.EqualFold(tx.To, address) {
			info.TotalReceived += value
		}
		ts := unixStringToTime(tx.TimeStamp)
		if info.FirstSeen.IsZero() || ts.Before(info.FirstSeen) {
			info.FirstSeen = ts
		}
		if ts.After(info.LastSeen) {
			info.LastSeen = ts
		}
	}
	return info, nil
}

// Transactions fetches the newest txlist page
func (p *EtherscanProvider) Transactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	if network != entity.NetworkEthereum {
		return nil, &entity.ValidationError{Field: "network", Reason: "etherscan does not index " + string(network)}
	}
	if limit <= 0 {
		limit = 25
	}

	raw, err := p.fetchTxList(ctx, strings.ToLower(address), limit)
	if err != nil {
		return nil, err
	}

	txs := make([]*entity.Transaction, 0, len(raw))
	for _, tx := range raw {
		txs = append(txs, p.normalizeListTx(tx))
	}
	return txs, nil
}

// TransactionByHash uses the eth_getTransactionByHash proxy
func (p *EtherscanProvider) TransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	if network != entity.NetworkEthereum {
		return nil, &entity.ValidationError{Field: "network", Reason: "etherscan does not index " + string(network)}
	}

	url := fmt.Sprintf("%s?module=proxy&action=eth_getTransactionByHash&txhash=%s%s", etherscanBaseURL, hash, p.keyParam())
	var env etherscanEnvelope
	if err := p.http.getJSON(ctx, url, &env); err != nil {
		return nil, err
	}
	if string(env.Result) == "null" || len(env.Result) == 0 {
		return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
	}

	var raw etherscanProxyTx
	if err := json.Unmarshal(env.Result, &raw); err != nil {
		return nil, &entity.ProviderError{Provider: p.Name(), Op: "tx-by-hash", Err: err}
	}
	if raw.Hash == "" {
		return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
	}

	value := hexWeiToEth(raw.Value)
	tx := &entity.Transaction{
		Hash:        strings.ToLower(raw.Hash),
		Network:     network,
		BlockNumber: hexToInt64(raw.BlockNumber),
		BlockHash:   raw.BlockHash,
		Inputs:      []entity.TxInput{{Address: strings.ToLower(raw.From), Value: value}},
		Outputs:     []entity.TxOutput{{Address: strings.ToLower(raw.To), Value: value}},
		Status:      entity.TxStatusPending,
	}
	if tx.BlockNumber > 0 {
		tx.Status = entity.TxStatusConfirmed
	}
	return tx, nil
}

func (p *EtherscanProvider) fetchTxList(ctx context.Context, address string, limit int) ([]etherscanTx, error) {
	url := fmt.Sprintf("%s?module=account&action=txlist&address=%s&page=1&offset=%d&sort=desc%s",
		etherscanBaseURL, address, limit, p.keyParam())
	var env etherscanEnvelope
	if err := p.http.getJSON(ctx, url, &env); err != nil {
		return nil, err
	}
	if env.Status != "1" {
		// "No transactions found" is a success with an empty page
		if strings.Contains(env.Message, "No transactions") {
			return nil, nil
		}
		return nil, &entity.ProviderError{Provider: p.Name(), Op: "txlist",
			Err: fmt.Errorf("etherscan: %s", env.Message)}
	}

	var txs []etherscanTx
	if err := json.Unmarshal(env.Result, &txs); err != nil {
		return nil, &entity.ProviderError{Provider: p.Name(), Op: "txlist", Err: err}
	}
	return txs, nil
}

func (p *EtherscanProvider) normalizeListTx(raw etherscanTx) *entity.Transaction {
	value := weiToEth(raw.Value)
	blockNumber, _ := strconv.ParseInt(raw.BlockNumber, 10, 64)

	status := entity.TxStatusConfirmed
	if raw.IsError == "1" {
		status = entity.TxStatusFailed
	} else if blockNumber == 0 {
		status = entity.TxStatusPending
	}

	fee := 0.0
	if gas, err := strconv.ParseFloat(raw.GasUsed, 64); err == nil {
		if price, err := strconv.ParseFloat(raw.GasPrice, 64); err == nil {
			fee = gas * price / weiPerETH
		}
	}

	return &entity.Transaction{
		Hash:        strings.ToLower(raw.Hash),
		Network:     entity.NetworkEthereum,
		BlockNumber: blockNumber,
		BlockHash:   raw.BlockHash,
		Timestamp:   unixStringToTime(raw.TimeStamp),
		Inputs:      []entity.TxInput{{Address: strings.ToLower(raw.From), Value: value}},
		Outputs:     []entity.TxOutput{{Address: strings.ToLower(raw.To), Value: value}},
		Fee:         fee,
		Status:      status,
	}
}

func (p *EtherscanProvider) keyParam() string {
	if p.apiKey == "" {
		return ""
	}
	return "&apikey=" + p.apiKey
}

func weiToEth(dec string) float64 {
	if dec == "" {
		return 0
	}
	wei, ok := new(big.Float).SetString(dec)
	if !ok {
		return 0
	}
	eth, _ := new(big.Float).Quo(wei, big.NewFloat(weiPerETH)).Float64()
	return eth
}

func hexWeiToEth(hex string) float64 {
	hex = strings.TrimPrefix(hex, "0x")
	if hex == "" {
		return 0
	}
	wei, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return 0
	}
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(weiPerETH)).Float64()
	return eth
}

func hexToInt64(hex string) int64 {
	hex = strings.TrimPrefix(hex, "0x")
	if hex == "" {
		return 0
	}
	n, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 0
	}
	return n
}

func unixStringToTime(unix string) time.Time {
	n, err := strconv.ParseInt(unix, 10, 64)
	if err != nil || n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
