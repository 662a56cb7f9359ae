package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/domain/repository"
	"crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/logger"
)

// InvestigationOrchestrator composes gateway, graph builder, risk classifier
// and layout into one result per request. Only root wallet resolution is
// fatal; transaction and graph sub-steps degrade to empty collections.
type InvestigationOrchestrator struct {
	gateway    service.LedgerGateway
	intel      service.ThreatIntelService
	classifier *service.RiskClassifierService
	builder    service.GraphBuilder
	layout     *service.LayoutEngine
	archive    repository.GraphRepository
	cfg        *config.Config
	logger     *logger.Logger
	now        func() time.Time
}

// NewInvestigationOrchestrator creates the orchestrator. The archive
// repository may be nil; results are then not persisted.
func NewInvestigationOrchestrator(
	gateway service.LedgerGateway,
	intel service.ThreatIntelService,
	classifier *service.RiskClassifierService,
	builder service.GraphBuilder,
	layout *service.LayoutEngine,
	archive repository.GraphRepository,
	cfg *config.Config,
	log *logger.Logger,
) service.InvestigationService {
	return &InvestigationOrchestrator{
		gateway:    gateway,
		intel:      intel,
		classifier: classifier,
		builder:    builder,
		layout:     layout,
		archive:    archive,
		cfg:        cfg,
		logger:     log.WithComponent("investigation"),
		now:        time.Now,
	}
}

// Investigate runs one investigation end to end
func (o *InvestigationOrchestrator) Investigate(ctx context.Context, req entity.InvestigationRequest) (*entity.InvestigationResult, error) {
	address, err := entity.NewAddress(req.Address, req.Network)
	if err != nil {
		return nil, err
	}

	opts := req.Options.Normalize(
		o.cfg.Graph.DefaultDepth, o.cfg.Graph.MaxDepth,
		o.cfg.Graph.DefaultMaxNodes, o.cfg.Graph.MaxNodes,
	)

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	started := o.now()

	o.logger.Info("Starting investigation",
		zap.String("id", id),
		zap.String("address", address.Value),
		zap.String("network", string(address.Network)),
		zap.Bool("build_graph", opts.BuildGraph))

	// Root wallet resolution is the one fatal step: no result without it
	wallet, err := o.gateway.FetchWalletInfo(ctx, address.Value, address.Network)
	if err != nil {
		return nil, fmt.Errorf("investigation %s: %w", id, err)
	}
	intel := o.intel.ClassifyAddress(address.Value, address.Network)

	var txs []*entity.Transaction
	if opts.FetchTransactions {
		txs, err = o.gateway.FetchTransactions(ctx, address.Value, address.Network, o.cfg.Explorer.TxPageSize)
		if err != nil {
			o.logger.Warn("Transaction fetch failed, continuing with empty list",
				zap.String("id", id),
				zap.Error(err))
			txs = nil
		}
	}

	profile := o.classifier.Classify(wallet, intel, txs, started)
	enriched := *wallet
	enriched.Labels = intel.Labels
	enriched.IsExchange = intel.IsExchange
	enriched.IsMixer = intel.IsMixer
	enriched.IsRansomware = intel.IsRansomware
	enriched.RiskScore = profile.Score
	enriched.RiskLevel = profile.Level

	graph := entity.NewGraph()
	if opts.BuildGraph {
		built, err := o.builder.Build(ctx, address.Value, address.Network, opts.GraphDepth, opts.MaxNodes)
		if err != nil {
			o.logger.Warn("Graph build failed, continuing with empty graph",
				zap.String("id", id),
				zap.Error(err))
		} else {
			graph = built
			o.layout.Simulate(graph, 0)
		}
	}

	result := &entity.InvestigationResult{
		ID:               id,
		Address:          address.Value,
		Network:          address.Network,
		Wallet:           &enriched,
		Transactions:     txs,
		ConnectedWallets: o.connectedWallets(address.Value, graph),
		Graph:            graph,
		GraphNodes:       graph.Nodes(),
		GraphEdges:       graph.Edges(),
		ThreatIntel:      intel,
		Analysis: &entity.Analysis{
			BehaviorPattern:   o.classifier.BehaviorPattern(txs),
			VolumeAnalysis:    o.classifier.VolumeAnalysis(txs),
			FrequencyAnalysis: o.classifier.FrequencyAnalysis(txs),
			RiskFactors:       o.classifier.RiskFactors(profile, intel),
			Recommendations:   o.classifier.Recommendations(profile.Level),
		},
		StartedAt:   started,
		CompletedAt: o.now(),
	}

	o.archiveResult(ctx, result)

	o.logger.Info("Investigation complete",
		zap.String("id", id),
		zap.Int("risk_score", enriched.RiskScore),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Duration("elapsed", result.CompletedAt.Sub(started)))

	return result, nil
}

// connectedWallets derives one undirected connection record per graph edge
// touching the root. Relationship is always "both": edge aggregation does not
// track direction.
func (o *InvestigationOrchestrator) connectedWallets(root string, graph *entity.Graph) []entity.ConnectedWallet {
	connections := []entity.ConnectedWallet{}
	for _, edge := range graph.Edges() {
		if !edge.Touches(root) {
			continue
		}
		other := edge.Other(root)
		conn := entity.ConnectedWallet{
			Address:          other,
			Relationship:     "both",
			TransactionCount: edge.TransactionCount,
			TotalVolume:      edge.TotalVolume,
		}
		if node := graph.Node(other); node != nil {
			conn.RiskLevel = node.Wallet.RiskLevel
		}
		connections = append(connections, conn)
	}
	return connections
}

// archiveResult persists the graph when an archive is configured. Archival
// failure never fails the investigation.
func (o *InvestigationOrchestrator) archiveResult(ctx context.Context, result *entity.InvestigationResult) {
	if o.archive == nil || result.Graph.NodeCount() == 0 {
		return
	}
	if err := o.archive.ArchiveGraph(ctx, result.ID, result.Network, result.Graph); err != nil {
		o.logger.Warn("Failed to archive investigation graph",
			zap.String("id", result.ID),
			zap.Error(err))
	}
}
