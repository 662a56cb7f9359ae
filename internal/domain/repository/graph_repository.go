package repository

import (
	"context"

	"crypto-investigation-engine/internal/domain/entity"
)

// GraphRepository archives the graphs produced by finished investigations.
// Persistence is an optional collaborator; the orchestrator works without it.
type GraphRepository interface {
	// ArchiveGraph persists the node/edge set of one investigation
	ArchiveGraph(ctx context.Context, investigationID string, network entity.Network, graph *entity.Graph) error

	// GetArchivedConnections returns previously archived connections for an
	// address, strongest first
	GetArchivedConnections(ctx context.Context, address string, limit int) ([]*entity.Edge, error)
}
