package explorer

import (
	"context"

	"crypto-investigation-engine/internal/domain/entity"
)

// Provider is one ledger-explorer backend. Each implementation maps its own
// JSON shape and money units into the canonical entities; nothing
// provider-specific escapes this package.
type Provider interface {
	// Name identifies the provider in logs and errors
	Name() string

	// Supports reports whether the provider indexes the given network
	Supports(network entity.Network) bool

	// WalletInfo fetches and normalizes an address record. Returns
	// *entity.NotFoundError when the provider does not know the address.
	WalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error)

	// Transactions fetches up to limit recent transactions, newest first
	Transactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error)

	// TransactionByHash fetches and normalizes a single transaction
	TransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error)
}

// Minor-unit divisors per network base unit
const (
	satoshiPerBTC = 1e8
	weiPerETH     = 1e18
	sunPerTRX     = 1e6
)
