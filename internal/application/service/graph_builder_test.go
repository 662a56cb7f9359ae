package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-investigation-engine/internal/domain/entity"
	domain_service "crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

// fakeGateway serves scripted wallets and transactions and records call counts
type fakeGateway struct {
	mu          sync.Mutex
	wallets     map[string]*entity.WalletInfo
	txs         map[string][]*entity.Transaction
	walletErrs  map[string]error
	txErrs      map[string]error
	walletCalls map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		wallets:     make(map[string]*entity.WalletInfo),
		txs:         make(map[string][]*entity.Transaction),
		walletErrs:  make(map[string]error),
		txErrs:      make(map[string]error),
		walletCalls: make(map[string]int),
	}
}

func (f *fakeGateway) addWallet(address string) {
	f.wallets[address] = &entity.WalletInfo{Address: address, Network: entity.NetworkBitcoin}
}

func (f *fakeGateway) addPayment(from, to string, value float64, at time.Time) {
	tx := &entity.Transaction{
		Hash:      from + "->" + to + at.String(),
		Network:   entity.NetworkBitcoin,
		Timestamp: at,
		Inputs:    []entity.TxInput{{Address: from, Value: value}},
		Outputs:   []entity.TxOutput{{Address: to, Value: value}},
		Status:    entity.TxStatusConfirmed,
	}
	f.txs[from] = append(f.txs[from], tx)
	f.txs[to] = append(f.txs[to], tx)
}

func (f *fakeGateway) FetchWalletInfo(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walletCalls[address]++
	if err := f.walletErrs[address]; err != nil {
		return nil, err
	}
	if wallet, ok := f.wallets[address]; ok {
		return wallet, nil
	}
	return nil, &entity.NotFoundError{Resource: "wallet", Key: address}
}

func (f *fakeGateway) FetchTransactions(ctx context.Context, address string, network entity.Network, limit int) ([]*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.txErrs[address]; err != nil {
		return nil, err
	}
	txs := f.txs[address]
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (f *fakeGateway) FetchTransactionByHash(ctx context.Context, hash string, network entity.Network) (*entity.Transaction, error) {
	return nil, &entity.NotFoundError{Resource: "transaction", Key: hash}
}

func testConfig() *config.Config {
	return &config.Config{
		Explorer: config.ExplorerConfig{TxPageSize: 25},
		Graph: config.GraphConfig{
			DefaultDepth:     2,
			MaxDepth:         3,
			DefaultMaxNodes:  50,
			MaxNodes:         200,
			FanoutCap:        10,
			FetchConcurrency: 4,
		},
		Layout: domain_service.DefaultLayoutConfig(),
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger("error")
	require.NoError(t, err)
	return log
}

func newTestBuilder(t *testing.T, gw *fakeGateway, cfg *config.Config) domain_service.GraphBuilder {
	t.Helper()
	return NewGraphBuilderService(
		gw,
		domain_service.NewStaticThreatIntelService(),
		domain_service.NewRiskClassifierService(),
		cfg,
		testLogger(t),
	)
}

func TestBuildStarGraph(t *testing.T) {
	gw := newFakeGateway()
	gw.addWallet("A")
	gw.addWallet("B")
	gw.addWallet("C")
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	gw.addPayment("A", "B", 2.0, at)
	gw.addPayment("A", "B", 2.0, at.Add(time.Hour))
	gw.addPayment("A", "B", 1.0, at.Add(2*time.Hour))
	gw.addPayment("A", "C", 0.1, at.Add(3*time.Hour))

	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, graph.NodeCount())
	assert.Equal(t, 2, graph.EdgeCount())

	ab := graph.EdgeBetween("A", "B")
	require.NotNil(t, ab)
	assert.Equal(t, int64(3), ab.TransactionCount)
	assert.InDelta(t, 5.0, ab.TotalVolume, 1e-9)
	assert.Equal(t, at, ab.FirstTxTime)
	assert.Equal(t, at.Add(2*time.Hour), ab.LastTxTime)

	ac := graph.EdgeBetween("A", "C")
	require.NotNil(t, ac)
	assert.Equal(t, int64(1), ac.TransactionCount)
	assert.InDelta(t, 0.1, ac.TotalVolume, 1e-9)

	assert.Equal(t, 0, graph.Node("A").Level)
	assert.Equal(t, 1, graph.Node("B").Level)
	assert.Equal(t, 1, graph.Node("C").Level)
}

func TestBuildRootFailureIsFatal(t *testing.T) {
	gw := newFakeGateway()
	builder := newTestBuilder(t, gw, testConfig())

	graph, err := builder.Build(context.Background(), "missing", entity.NetworkBitcoin, 2, 10)

	require.Error(t, err)
	assert.Nil(t, graph)
	assert.True(t, entity.IsNotFound(err))
}

func TestBuildNodeBudgetOfOneKeepsOnlyRoot(t *testing.T) {
	gw := newFakeGateway()
	gw.addWallet("A")
	gw.addWallet("B")
	gw.addPayment("A", "B", 1.0, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 2, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, graph.NodeCount())
	assert.Equal(t, 0, graph.EdgeCount(), "counterparts past the budget carry no edges")
}

func TestBuildSkipsUnreachableCounterparts(t *testing.T) {
	gw := newFakeGateway()
	gw.addWallet("A")
	gw.addWallet("B")
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	gw.addPayment("A", "B", 1.0, at)
	gw.addPayment("A", "C", 1.0, at.Add(time.Hour))
	gw.walletErrs["C"] = &entity.ProviderError{Provider: "fake", Op: "wallet", Err: errors.New("down")}

	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 2, graph.NodeCount())
	assert.False(t, graph.HasNode("C"))
	assert.Nil(t, graph.EdgeBetween("A", "C"))
	assert.NotNil(t, graph.EdgeBetween("A", "B"))
}

func TestBuildRootTransactionFailureYieldsRootOnlyGraph(t *testing.T) {
	gw := newFakeGateway()
	gw.addWallet("A")
	gw.txErrs["A"] = &entity.ProviderError{Provider: "fake", Op: "transactions", Err: errors.New("down")}

	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, graph.NodeCount())
	assert.Equal(t, 0, graph.EdgeCount())
}

func TestBuildFanoutCapBoundsNeighbors(t *testing.T) {
	gw := newFakeGateway()
	gw.addWallet("A")
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, counterpart := range []string{"B", "C", "D", "E"} {
		gw.addWallet(counterpart)
		gw.addPayment("A", counterpart, 1.0, at)
		at = at.Add(time.Minute)
	}

	cfg := testConfig()
	cfg.Graph.FanoutCap = 2
	builder := newTestBuilder(t, gw, cfg)
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 1, 10)

	require.NoError(t, err)
	// first-encounter order over the newest-first page decides who stays
	assert.Equal(t, 3, graph.NodeCount())
	assert.True(t, graph.HasNode("B"))
	assert.True(t, graph.HasNode("C"))
	assert.False(t, graph.HasNode("D"))
	assert.False(t, graph.HasNode("E"))
}

func TestBuildCancellationReturnsPartialGraph(t *testing.T) {
	gw := newFakeGateway()
	gw.addWallet("A")
	gw.addWallet("B")
	gw.addPayment("A", "B", 1.0, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(ctx, "A", entity.NetworkBitcoin, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, graph.NodeCount(), "root survives, expansion does not")
}

func TestBuildTwoLevelExpansion(t *testing.T) {
	gw := newFakeGateway()
	for _, addr := range []string{"A", "B", "C"} {
		gw.addWallet(addr)
	}
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	gw.addPayment("A", "B", 1.0, at)
	gw.addPayment("B", "C", 2.0, at.Add(time.Hour))

	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, graph.NodeCount())
	assert.Equal(t, 2, graph.Node("C").Level)
	assert.NotNil(t, graph.EdgeBetween("B", "C"))

	// the A->B transaction appears on both pages but is recorded once
	ab := graph.EdgeBetween("A", "B")
	require.NotNil(t, ab)
	assert.Equal(t, int64(1), ab.TransactionCount)
}

func TestBuildInvariants(t *testing.T) {
	gw := newFakeGateway()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	addrs := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, addr := range addrs {
		gw.addWallet(addr)
	}
	gw.addPayment("A", "B", 1.0, at)
	gw.addPayment("A", "C", 1.0, at.Add(time.Minute))
	gw.addPayment("B", "D", 1.0, at.Add(2*time.Minute))
	gw.addPayment("C", "E", 1.0, at.Add(3*time.Minute))
	gw.addPayment("D", "F", 1.0, at.Add(4*time.Minute))
	gw.addPayment("E", "G", 1.0, at.Add(5*time.Minute))

	maxDepth, maxNodes := 2, 4
	builder := newTestBuilder(t, gw, testConfig())
	graph, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, maxDepth, maxNodes)

	require.NoError(t, err)
	assert.LessOrEqual(t, graph.NodeCount(), maxNodes)
	for _, node := range graph.Nodes() {
		assert.LessOrEqual(t, node.Level, maxDepth)
	}
	for _, edge := range graph.Edges() {
		assert.True(t, graph.HasNode(edge.Source))
		assert.True(t, graph.HasNode(edge.Target))
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	gw := newFakeGateway()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, addr := range []string{"A", "B", "C", "D"} {
		gw.addWallet(addr)
	}
	gw.addPayment("A", "B", 1.0, at)
	gw.addPayment("A", "C", 2.0, at.Add(time.Minute))
	gw.addPayment("A", "D", 3.0, at.Add(2*time.Minute))

	builder := newTestBuilder(t, gw, testConfig())

	first, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 1, 3)
	require.NoError(t, err)
	second, err := builder.Build(context.Background(), "A", entity.NetworkBitcoin, 1, 3)
	require.NoError(t, err)

	require.Equal(t, first.NodeCount(), second.NodeCount())
	for i, node := range first.Nodes() {
		assert.Equal(t, node.Address(), second.Nodes()[i].Address())
	}
	require.Equal(t, first.EdgeCount(), second.EdgeCount())
	for i, edge := range first.Edges() {
		assert.Equal(t, edge.Source, second.Edges()[i].Source)
		assert.Equal(t, edge.Target, second.Edges()[i].Target)
	}
}
