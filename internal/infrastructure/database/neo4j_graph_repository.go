package database

import (
	"context"
	"fmt"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/domain/repository"
	"crypto-investigation-engine/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4JGraphRepository implements the GraphRepository archive over Neo4J
type Neo4JGraphRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JGraphRepository creates a new Neo4J graph repository
func NewNeo4JGraphRepository(client *Neo4JClient, logger *logger.Logger) repository.GraphRepository {
	return &Neo4JGraphRepository{
		client: client,
		logger: logger.WithComponent("neo4j-graph-repo"),
	}
}

// ArchiveGraph persists the node/edge set of one investigation. Wallet nodes
// merge by address; connection edges merge by pair and accumulate observed
// counts and volumes across investigations.
func (r *Neo4JGraphRepository) ArchiveGraph(ctx context.Context, investigationID string,
	network entity.Network, graph *entity.Graph) error {

	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	nodeQuery := `
		MERGE (w:Wallet {address: $address})
		ON CREATE SET
			w.network = $network,
			w.first_archived = datetime($now)
		SET
			w.balance = $balance,
			w.transaction_count = $transaction_count,
			w.risk_score = $risk_score,
			w.risk_level = $risk_level,
			w.labels = $labels,
			w.last_archived = datetime($now),
			w.last_investigation = $investigation_id
	`

	edgeQuery := `
		MATCH (a:Wallet {address: $source})
		MATCH (b:Wallet {address: $target})
		MERGE (a)-[c:CONNECTED_TO]-(b)
		ON CREATE SET
			c.transaction_count = $transaction_count,
			c.total_volume = $total_volume,
			c.first_tx = datetime($first_tx),
			c.last_tx = datetime($last_tx)
		ON MATCH SET
			c.transaction_count = c.transaction_count + $transaction_count,
			c.total_volume = c.total_volume + $total_volume,
			c.last_tx = datetime($last_tx)
		SET c.last_investigation = $investigation_id
	`

	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range graph.Nodes() {
			labels := node.Wallet.Labels
			if labels == nil {
				labels = []string{}
			}
			params := map[string]interface{}{
				"address":           node.Wallet.Address,
				"network":           string(network),
				"balance":           node.Wallet.Balance,
				"transaction_count": node.Wallet.TransactionCount,
				"risk_score":        node.Wallet.RiskScore,
				"risk_level":        string(node.Wallet.RiskLevel),
				"labels":            labels,
				"now":               now,
				"investigation_id":  investigationID,
			}
			if _, err := tx.Run(ctx, nodeQuery, params); err != nil {
				return nil, err
			}
		}

		for _, edge := range graph.Edges() {
			params := map[string]interface{}{
				"source":            edge.Source,
				"target":            edge.Target,
				"transaction_count": edge.TransactionCount,
				"total_volume":      edge.TotalVolume,
				"first_tx":          edge.FirstTxTime.UTC().Format("2006-01-02T15:04:05.000Z"),
				"last_tx":           edge.LastTxTime.UTC().Format("2006-01-02T15:04:05.000Z"),
				"investigation_id":  investigationID,
			}
			if _, err := tx.Run(ctx, edgeQuery, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("failed to archive graph: %w", err)
	}

	r.logger.Info("Archived investigation graph",
		zap.String("investigation_id", investigationID),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()))
	return nil
}

// GetArchivedConnections returns previously archived connections for an
// address, strongest first by total volume.
func (r *Neo4JGraphRepository) GetArchivedConnections(ctx context.Context, address string, limit int) ([]*entity.Edge, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (w:Wallet {address: $address})-[c:CONNECTED_TO]-(other:Wallet)
		RETURN w.address, other.address, c.transaction_count, c.total_volume, c.first_tx, c.last_tx
		ORDER BY c.total_volume DESC
		LIMIT $limit
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]interface{}{
			"address": address,
			"limit":   limit,
		})
		if err != nil {
			return nil, err
		}

		var edges []*entity.Edge
		for res.Next(ctx) {
			values := res.Record().Values
			edge := &entity.Edge{
				Source:           values[0].(string),
				Target:           values[1].(string),
				TransactionCount: values[2].(int64),
				TotalVolume:      values[3].(float64),
			}
			if t, ok := values[4].(time.Time); ok {
				edge.FirstTxTime = t
			}
			if t, ok := values[5].(time.Time); ok {
				edge.LastTxTime = t
			}
			edges = append(edges, edge)
		}
		return edges, res.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get archived connections: %w", err)
	}
	return result.([]*entity.Edge), nil
}
