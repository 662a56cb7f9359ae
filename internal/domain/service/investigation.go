package service

import (
	"context"

	"crypto-investigation-engine/internal/domain/entity"
)

// GraphBuilder performs the resource-bounded breadth-first exploration of
// counter-party addresses around a root wallet.
type GraphBuilder interface {
	// Build explores from root up to maxDepth levels and maxNodes nodes.
	// Root fetch failure is fatal; non-root failures skip the address.
	// Context cancellation returns whatever graph was accumulated.
	Build(ctx context.Context, root string, network entity.Network, maxDepth, maxNodes int) (*entity.Graph, error)
}

// InvestigationService is the top-level entry point composing gateway, graph
// builder, risk classifier and layout into one result per request.
type InvestigationService interface {
	Investigate(ctx context.Context, req entity.InvestigationRequest) (*entity.InvestigationResult, error)
}
