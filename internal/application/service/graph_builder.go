package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

// GraphBuilderService explores counter-party addresses around a root wallet
// with a bounded breadth-first search. All BFS state (queue, visited set) is
// local to one Build call; nothing is shared across investigations except the
// gateway's response cache.
type GraphBuilderService struct {
	gateway    service.LedgerGateway
	intel      service.ThreatIntelService
	classifier *service.RiskClassifierService
	pageSize   int
	fanoutCap  int
	fetchLimit int
	logger     *logger.Logger
	now        func() time.Time
}

// NewGraphBuilderService creates a graph builder
func NewGraphBuilderService(
	gateway service.LedgerGateway,
	intel service.ThreatIntelService,
	classifier *service.RiskClassifierService,
	cfg *config.Config,
	log *logger.Logger,
) service.GraphBuilder {
	return &GraphBuilderService{
		gateway:    gateway,
		intel:      intel,
		classifier: classifier,
		pageSize:   cfg.Explorer.TxPageSize,
		fanoutCap:  cfg.Graph.FanoutCap,
		fetchLimit: cfg.Graph.FetchConcurrency,
		logger:     log.WithComponent("graph-builder"),
		now:        time.Now,
	}
}

// queueItem is one pending BFS expansion
type queueItem struct {
	address string
	level   int
}

// transfer is one observed transaction against a counterpart
type transfer struct {
	hash  string
	value float64
	at    time.Time
}

// candidate is a distinct counterpart of the node being expanded, in
// first-encounter order over the newest-first transaction page
type candidate struct {
	address   string
	transfers []transfer
}

// Build runs the BFS. Root lookup failure is fatal; failures on any other
// address skip it and continue. Context cancellation returns the partial
// graph accumulated so far instead of an error.
func (b *GraphBuilderService) Build(ctx context.Context, root string, network entity.Network,
	maxDepth, maxNodes int) (*entity.Graph, error) {

	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxNodes < 1 {
		maxNodes = 1
	}

	rootWallet, err := b.lookupWallet(ctx, root, network)
	if err != nil {
		return nil, fmt.Errorf("root wallet lookup failed: %w", err)
	}

	graph := entity.NewGraph()
	visited := map[string]bool{root: true}
	graph.AddNode(rootWallet, 0)
	queue := []queueItem{{address: root, level: 0}}

	// a transaction shows up on both endpoints' pages; record it once per pair
	recorded := make(map[string]bool)

	for len(queue) > 0 && graph.NodeCount() < maxNodes {
		if ctx.Err() != nil {
			b.logger.Info("Build cancelled, returning partial graph",
				zap.String("root", root),
				zap.Int("nodes", graph.NodeCount()))
			return graph, nil
		}

		item := queue[0]
		queue = queue[1:]

		// depth-capped nodes stay in the graph but contribute no neighbors
		if item.level >= maxDepth {
			continue
		}

		txs, err := b.gateway.FetchTransactions(ctx, item.address, network, b.pageSize)
		if err != nil {
			b.logger.Warn("Skipping node expansion, transaction fetch failed",
				zap.String("address", item.address),
				zap.Error(err))
			continue
		}

		candidates := b.collectCandidates(item.address, txs)
		wallets := b.prefetchWallets(ctx, candidates, visited, network)

		for _, cand := range candidates {
			admitted := visited[cand.address] && graph.HasNode(cand.address)

			if !visited[cand.address] && graph.NodeCount() < maxNodes {
				wallet := wallets[cand.address]
				if wallet == nil {
					// unreachable counterpart: not a node, not enqueued
					continue
				}
				graph.AddNode(wallet, item.level+1)
				visited[cand.address] = true
				queue = append(queue, queueItem{address: cand.address, level: item.level + 1})
				admitted = true
			}

			// counterparts past the node budget carry no edge either
			if !admitted {
				continue
			}
			for _, tr := range cand.transfers {
				key := transferKey(tr.hash, item.address, cand.address)
				if recorded[key] {
					continue
				}
				recorded[key] = true
				graph.RecordTransfer(item.address, cand.address, tr.value, tr.at)
			}
		}
	}

	return graph, nil
}

// collectCandidates scans the newest-first transaction page and returns the
// distinct counterparts in first-encounter order, capped at the fan-out
// budget. Counterparts beyond the cap are dropped entirely.
func (b *GraphBuilderService) collectCandidates(self string, txs []*entity.Transaction) []candidate {
	index := make(map[string]int)
	var candidates []candidate

	for _, tx := range txs {
		value := tx.TotalValue()
		for _, addr := range tx.Counterparties(self) {
			pos, seen := index[addr]
			if !seen {
				if len(candidates) >= b.fanoutCap {
					continue
				}
				pos = len(candidates)
				index[addr] = pos
				candidates = append(candidates, candidate{address: addr})
			}
			candidates[pos].transfers = append(candidates[pos].transfers, transfer{hash: tx.Hash, value: value, at: tx.Timestamp})
		}
	}
	return candidates
}

// transferKey identifies one transaction against one unordered pair
func transferKey(hash, a, b string) string {
	if a > b {
		a, b = b, a
	}
	return hash + "|" + a + "|" + b
}

// prefetchWallets resolves wallet info for the unvisited candidates with a
// bounded concurrent fan-out. Results come back in a map so admission can
// still run in deterministic candidate order; a fetch failure leaves a nil
// entry, which Build treats as skip-and-continue.
func (b *GraphBuilderService) prefetchWallets(ctx context.Context, candidates []candidate,
	visited map[string]bool, network entity.Network) map[string]*entity.WalletInfo {

	wallets := make(map[string]*entity.WalletInfo, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.fetchLimit)

	for _, cand := range candidates {
		if visited[cand.address] {
			continue
		}
		addr := cand.address
		g.Go(func() error {
			wallet, err := b.lookupWallet(gctx, addr, network)
			if err != nil {
				b.logger.Debug("Counterpart lookup failed",
					zap.String("address", addr),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			wallets[addr] = wallet
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return wallets
}

// lookupWallet fetches a wallet through the gateway and stamps it with its
// threat labels and risk classification.
func (b *GraphBuilderService) lookupWallet(ctx context.Context, address string, network entity.Network) (*entity.WalletInfo, error) {
	wallet, err := b.gateway.FetchWalletInfo(ctx, address, network)
	if err != nil {
		return nil, err
	}

	intel := b.intel.ClassifyAddress(address, network)
	profile := b.classifier.Classify(wallet, intel, nil, b.now())

	enriched := *wallet
	enriched.Labels = intel.Labels
	enriched.IsExchange = intel.IsExchange
	enriched.IsMixer = intel.IsMixer
	enriched.IsRansomware = intel.IsRansomware
	enriched.RiskScore = profile.Score
	enriched.RiskLevel = profile.Level
	return &enriched, nil
}
