package explorer

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

const trongridBaseURL = "https://api.trongrid.io"

// TrongridProvider normalizes the TronGrid API. Amounts arrive in sun;
// addresses arrive hex-encoded with a 0x41 version byte and are converted to
// base58check form.
type TrongridProvider struct {
	http *httpClient
}

// NewTrongridProvider creates the provider
func NewTrongridProvider(timeout time.Duration, ratePerSecond float64, burst int, log *logger.Logger) *TrongridProvider {
	return &TrongridProvider{
		http: newHTTPClient("trongrid", timeout, ratePerSecond, burst, log),
	}
}

func (p *TrongridProvider) Name() string { return "trongrid" }

func (p *TrongridProvider) Supports(network entity.Network) bool {
	return network == entity.NetworkTron
}

type trongridAccountResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Balance             float64 `json:"balance"`
		CreateTime          int64   `json:"create_time"`
		LatestOperationTime int64   `json:"latest_opration_time"`
	} `json:"data"`
}

type trongridTx struct {
	TxID           string `json:"txID"`
	BlockNumber    int64  `json:"blockNumber"`
	BlockTimestamp int64  `json:"block_timestamp"`
	Ret            []struct {
		ContractRet string `json:"contractRet"`
	} `json:"ret"`
	RawData struct {
		Contract []struct {
			Type      string `json:"type"`
			Parameter struct {
				Value struct {
					Amount       float64 `json:"amount"`
					OwnerAddress string  `json:"owner_address"`
					ToAddress    string  `json:"to_address"`
				} `json:"value"`
			} `json:"parameter"`
		} `json:"contract"`
	} `json:"raw_data"`
}

type trongridTxListResponse struct {
	Success bool         `json:"success"`
	Data    []trongridTx `json:"data"`
}

// WalletInfo fetches /v1/accounts/{addr}
func (p *TrongridProvider) WalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	if network != entity.NetworkTron {
		return nil, &entity.ValidationError{Field: "network", Reason: "trongrid does not index " + string(network)}
	}

	url := fmt.Sprintf("%s/v1/accounts/%s", trongridBaseURL, address)
	var resp trongridAccountResponse
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, &entity.NotFoundError{Resource: "wallet", Key: address}
	}
	acct := resp.Data[0]

	return &entity.WalletInfo{
		Address:   address,
		Network:   network,
		Balance:   acct.Balance / sunPerTRX,
		FirstSeen: millisToTime(acct.CreateTime),
		LastSeen:  millisToTime(acct.LatestOperationTime),
	}, nil
}

// Transactions fetches /v1/accounts/{addr}/transactions, newest first
func (p *TrongridProvider) Transactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	if network != entity.NetworkTron {
		return nil, &entity.ValidationError{Field: "network", Reason: "trongrid does not index " + string(network)}
	}
	if limit <= 0 {
		limit = 25
	}

	url := fmt.Sprintf("%s/v1/accounts/%s/transactions?limit=%d&order_by=block_timestamp,desc", trongridBaseURL, address, limit)
	var resp trongridTxListResponse
	if err := p.http.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &entity.ProviderError{Provider: p.Name(), Op: "transactions",
			Err: fmt.Errorf("trongrid reported failure for %s", address)}
	}

	txs := make([]*entity.Transaction, 0, len(resp.Data))
	for i := range resp.Data {
		if tx := p.normalizeTx(&resp.Data[i]); tx != nil {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// TransactionByHash fetches wallet/gettransactionbyid
func (p *TrongridProvider) TransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	if network != entity.NetworkTron {
		return nil, &entity.ValidationError{Field: "network", Reason: "trongrid does not index " + string(network)}
	}

	url := fmt.Sprintf("%s/wallet/gettransactionbyid?value=%s", trongridBaseURL, hash)
	var raw trongridTx
	if err := p.http.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}
	if raw.TxID == "" {
		return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
	}

	tx := p.normalizeTx(&raw)
	if tx == nil {
		return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
	}
	return tx, nil
}

// normalizeTx maps the first TransferContract of a transaction. Returns nil
// for contract types that move no TRX.
func (p *TrongridProvider) normalizeTx(raw *trongridTx) *entity.Transaction {
	if len(raw.RawData.Contract) == 0 {
		return nil
	}
	contract := raw.RawData.Contract[0]
	value := contract.Parameter.Value

	amount := value.Amount / sunPerTRX
	from := tronHexToBase58(value.OwnerAddress)
	to := tronHexToBase58(value.ToAddress)

	status := entity.TxStatusConfirmed
	if len(raw.Ret) > 0 && raw.Ret[0].ContractRet != "SUCCESS" {
		status = entity.TxStatusFailed
	} else if raw.BlockNumber == 0 && raw.BlockTimestamp == 0 {
		status = entity.TxStatusPending
	}

	return &entity.Transaction{
		Hash:        raw.TxID,
		Network:     entity.NetworkTron,
		BlockNumber: raw.BlockNumber,
		Timestamp:   millisToTime(raw.BlockTimestamp),
		Inputs:      []entity.TxInput{{Address: from, Value: amount}},
		Outputs:     []entity.TxOutput{{Address: to, Value: amount}},
		Status:      status,
	}
}

// tronHexToBase58 converts a 41-prefixed hex address to base58check form.
// Already-base58 values pass through unchanged.
func tronHexToBase58(address string) string {
	if address == "" || strings.HasPrefix(address, "T") {
		return address
	}
	raw, err := hex.DecodeString(address)
	if err != nil || len(raw) < 2 {
		return address
	}
	return base58.CheckEncode(raw[1:], raw[0])
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
