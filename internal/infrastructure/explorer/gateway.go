package explorer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

// Gateway implements service.LedgerGateway over an ordered provider chain per
// network. Every successful result is cached before being returned; the cache
// is consulted before any provider call.
type Gateway struct {
	chains    map[entity.Network][]Provider
	cache     service.ResponseCache
	walletTTL time.Duration
	txTTL     time.Duration
	logger    *logger.Logger
}

// NewLedgerGateway builds the gateway with the default provider chains:
// bitcoin/litecoin try blockchair then blockcypher, ethereum tries etherscan
// then blockcypher, tron has trongrid only.
func NewLedgerGateway(cfg *config.ExplorerConfig, responseCache service.ResponseCache, log *logger.Logger) service.LedgerGateway {
	blockchair := NewBlockchairProvider(cfg.RequestTimeout, cfg.RatePerSecond, cfg.RateBurst, log)
	blockcypher := NewBlockcypherProvider(cfg.RequestTimeout, cfg.RatePerSecond, cfg.RateBurst, cfg.BlockcypherToken, log)
	etherscan := NewEtherscanProvider(cfg.RequestTimeout, cfg.RatePerSecond, cfg.RateBurst, cfg.EtherscanAPIKey, log)
	trongrid := NewTrongridProvider(cfg.RequestTimeout, cfg.RatePerSecond, cfg.RateBurst, log)

	chains := map[entity.Network][]Provider{
		entity.NetworkBitcoin:  {blockchair, blockcypher},
		entity.NetworkLitecoin: {blockchair, blockcypher},
		entity.NetworkEthereum: {etherscan, blockcypher},
		entity.NetworkTron:     {trongrid},
	}
	return NewGatewayWithProviders(chains, responseCache, cfg.WalletTTL, cfg.TransactionTTL, log)
}

// NewGatewayWithProviders builds a gateway over explicit provider chains
func NewGatewayWithProviders(chains map[entity.Network][]Provider, responseCache service.ResponseCache,
	walletTTL, txTTL time.Duration, log *logger.Logger) *Gateway {

	if walletTTL <= 0 {
		walletTTL = 5 * time.Minute
	}
	if txTTL <= 0 {
		// confirmed transactions are immutable, so they cache longer than
		// mutable wallet state
		txTTL = time.Hour
	}
	return &Gateway{
		chains:    chains,
		cache:     responseCache,
		walletTTL: walletTTL,
		txTTL:     txTTL,
		logger:    log.WithComponent("ledger-gateway"),
	}
}

// FetchWalletInfo resolves a wallet through the network's provider chain
func (g *Gateway) FetchWalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	key := fmt.Sprintf("wallet:%s:%s", network, address)
	if cached, ok := g.cache.Get(key); ok {
		return cached.(*entity.WalletInfo), nil
	}

	value, err := g.fetchWithFallback(ctx, network, "wallet", address, func(p Provider) (interface{}, error) {
		return p.WalletInfo(ctx, address, network)
	})
	if err != nil {
		return nil, err
	}

	info := value.(*entity.WalletInfo)
	g.cache.Put(key, info, g.walletTTL)
	return info, nil
}

// FetchTransactions returns up to limit recent transactions, newest first
func (g *Gateway) FetchTransactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	key := fmt.Sprintf("txs:%s:%s:%d", network, address, limit)
	if cached, ok := g.cache.Get(key); ok {
		return cached.([]*entity.Transaction), nil
	}

	value, err := g.fetchWithFallback(ctx, network, "transactions", address, func(p Provider) (interface{}, error) {
		// a provider success with zero transactions is not a failure
		return p.Transactions(ctx, address, network, limit)
	})
	if err != nil {
		return nil, err
	}

	txs := value.([]*entity.Transaction)
	g.cache.Put(key, txs, g.txTTL)
	return txs, nil
}

// FetchTransactionByHash resolves a single transaction record
func (g *Gateway) FetchTransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	key := fmt.Sprintf("tx:%s:%s", network, hash)
	if cached, ok := g.cache.Get(key); ok {
		return cached.(*entity.Transaction), nil
	}

	value, err := g.fetchWithFallback(ctx, network, "transaction", hash, func(p Provider) (interface{}, error) {
		return p.TransactionByHash(ctx, hash, network)
	})
	if err != nil {
		return nil, err
	}

	tx := value.(*entity.Transaction)
	g.cache.Put(key, tx, g.txTTL)
	return tx, nil
}

// fetchWithFallback tries each provider in priority order. A not-found from
// one provider does not short-circuit: explorers index differently, so later
// providers still get a chance. When nothing succeeds, a confirmed absence
// wins over transport errors.
func (g *Gateway) fetchWithFallback(ctx context.Context, network entity.Network, op, key string,
	fetch func(Provider) (interface{}, error)) (interface{}, error) {

	providers := g.chains[network]
	if len(providers) == 0 {
		return nil, &entity.ValidationError{Field: "network", Reason: "unsupported network: " + string(network)}
	}

	sawNotFound := false
	var lastErr error
	for _, provider := range providers {
		if err := ctx.Err(); err != nil {
			return nil, &entity.ProviderError{Provider: provider.Name(), Op: op, Err: err}
		}

		value, err := fetch(provider)
		if err == nil {
			return value, nil
		}
		if entity.IsNotFound(err) {
			sawNotFound = true
			g.logger.Debug("Provider reported not found",
				zap.String("provider", provider.Name()),
				zap.String("op", op),
				zap.String("key", key))
			continue
		}
		lastErr = err
		g.logger.Warn("Provider attempt failed",
			zap.String("provider", provider.Name()),
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err))
	}

	if sawNotFound {
		return nil, &entity.NotFoundError{Resource: op, Key: key}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &entity.ProviderError{Provider: "all", Op: op,
		Err: fmt.Errorf("no provider produced a result for %s", key)}
}
