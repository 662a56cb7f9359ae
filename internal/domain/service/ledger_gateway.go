package service

import (
	"context"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
)

// LedgerGateway fetches wallet and transaction records for a network, trying
// an ordered list of explorer providers and normalizing their responses into
// the canonical entities. Successful results are cached; the cache is
// consulted before any provider is called.
type LedgerGateway interface {
	// FetchWalletInfo resolves a wallet across the network's provider chain
	FetchWalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error)

	// FetchTransactions returns up to limit of the address's most recent
	// transactions, newest first. Zero transactions is a success.
	FetchTransactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error)

	// FetchTransactionByHash resolves a single transaction record
	FetchTransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error)
}

// ResponseCache memoizes normalized provider responses with a per-entry TTL.
// Concurrent Get/Put must never corrupt state; duplicate fetch-then-populate
// races are last-write-wins.
type ResponseCache interface {
	Get(key string) (interface{}, bool)
	Put(key string, value interface{}, ttl time.Duration)
}

// ThreatIntelService is the threat-label lookup collaborator feeding the risk
// classifier. Implementations may be static datasets or external services.
type ThreatIntelService interface {
	ClassifyAddress(address string, network entity.Network) *entity.ThreatIntel
}
