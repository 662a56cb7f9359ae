package explorer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/cache"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

// fakeProvider scripts one answer per operation and counts calls
type fakeProvider struct {
	name        string
	wallet      *entity.WalletInfo
	txs         []*entity.Transaction
	tx          *entity.Transaction
	err         error
	walletCalls int
	txsCalls    int
	txCalls     int
}

func (f *fakeProvider) Name() string                         { return f.name }
func (f *fakeProvider) Supports(network entity.Network) bool { return true }

func (f *fakeProvider) WalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	f.walletCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.wallet, nil
}

func (f *fakeProvider) Transactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	f.txsCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

func (f *fakeProvider) TransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	f.txCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger("error")
	require.NoError(t, err)
	return log
}

func newTestGateway(t *testing.T, providers ...Provider) *Gateway {
	t.Helper()
	chains := map[entity.Network][]Provider{entity.NetworkBitcoin: providers}
	return NewGatewayWithProviders(chains, cache.NewResponseCache(), time.Minute, time.Hour, testLogger(t))
}

func TestFetchWalletInfoFirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", wallet: &entity.WalletInfo{Address: "addr", Balance: 1}}
	second := &fakeProvider{name: "second", wallet: &entity.WalletInfo{Address: "addr", Balance: 2}}
	g := newTestGateway(t, first, second)

	info, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)

	require.NoError(t, err)
	assert.Equal(t, 1.0, info.Balance)
	assert.Equal(t, 1, first.walletCalls)
	assert.Equal(t, 0, second.walletCalls, "fallback must not run after a success")
}

func TestFetchWalletInfoFallsBackPastErrors(t *testing.T) {
	failing := &fakeProvider{name: "failing", err: &entity.ProviderError{Provider: "failing", Op: "wallet", Err: errors.New("timeout")}}
	working := &fakeProvider{name: "working", wallet: &entity.WalletInfo{Address: "addr"}}
	g := newTestGateway(t, failing, working)

	info, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)

	require.NoError(t, err)
	assert.Equal(t, "addr", info.Address)
	assert.Equal(t, 1, failing.walletCalls)
	assert.Equal(t, 1, working.walletCalls)
}

func TestNotFoundDoesNotShortCircuit(t *testing.T) {
	notFound := &fakeProvider{name: "nf", err: &entity.NotFoundError{Resource: "wallet", Key: "addr"}}
	working := &fakeProvider{name: "working", wallet: &entity.WalletInfo{Address: "addr"}}
	g := newTestGateway(t, notFound, working)

	info, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)

	require.NoError(t, err)
	assert.Equal(t, "addr", info.Address)
}

func TestConfirmedAbsenceWinsOverTransportError(t *testing.T) {
	notFound := &fakeProvider{name: "nf", err: &entity.NotFoundError{Resource: "wallet", Key: "addr"}}
	failing := &fakeProvider{name: "failing", err: &entity.ProviderError{Provider: "failing", Op: "wallet", Err: errors.New("503")}}
	g := newTestGateway(t, notFound, failing)

	_, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)

	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestAllProvidersErroringSurfacesLastError(t *testing.T) {
	a := &fakeProvider{name: "a", err: &entity.ProviderError{Provider: "a", Op: "wallet", Err: errors.New("timeout")}}
	b := &fakeProvider{name: "b", err: &entity.ProviderError{Provider: "b", Op: "wallet", Err: errors.New("rate limited")}}
	g := newTestGateway(t, a, b)

	_, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)

	require.Error(t, err)
	assert.False(t, entity.IsNotFound(err))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestUnsupportedNetworkIsValidationError(t *testing.T) {
	gw := NewGatewayWithProviders(map[entity.Network][]Provider{}, cache.NewResponseCache(), 0, 0, testLogger(t))

	_, err := gw.FetchWalletInfo(context.Background(), "addr", entity.NetworkTron)

	require.Error(t, err)
	assert.True(t, entity.IsValidation(err))
}

func TestFetchWalletInfoIsCached(t *testing.T) {
	provider := &fakeProvider{name: "p", wallet: &entity.WalletInfo{Address: "addr", Balance: 3}}
	g := newTestGateway(t, provider)

	first, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)
	require.NoError(t, err)
	second, err := g.FetchWalletInfo(context.Background(), "addr", entity.NetworkBitcoin)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.walletCalls, "second call must come from cache")
}

func TestFetchTransactionsZeroResultIsSuccessAndCached(t *testing.T) {
	provider := &fakeProvider{name: "p", txs: []*entity.Transaction{}}
	g := newTestGateway(t, provider)

	txs, err := g.FetchTransactions(context.Background(), "addr", entity.NetworkBitcoin, 25)
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = g.FetchTransactions(context.Background(), "addr", entity.NetworkBitcoin, 25)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.txsCalls)
}

func TestFetchTransactionByHash(t *testing.T) {
	provider := &fakeProvider{name: "p", tx: &entity.Transaction{Hash: "deadbeef"}}
	g := newTestGateway(t, provider)

	tx, err := g.FetchTransactionByHash(context.Background(), "deadbeef", entity.NetworkBitcoin)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", tx.Hash)

	_, err = g.FetchTransactionByHash(context.Background(), "deadbeef", entity.NetworkBitcoin)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.txCalls)
}

func TestCancelledContextStopsChain(t *testing.T) {
	provider := &fakeProvider{name: "p", wallet: &entity.WalletInfo{Address: "addr"}}
	g := newTestGateway(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.FetchWalletInfo(ctx, "addr", entity.NetworkBitcoin)

	require.Error(t, err)
	assert.Equal(t, 0, provider.walletCalls)
}
