package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-investigation-engine/internal/domain/entity"
)

func layoutGraph() *entity.Graph {
	g := entity.NewGraph()
	g.AddNode(&entity.WalletInfo{Address: "root"}, 0)
	g.AddNode(&entity.WalletInfo{Address: "a"}, 1)
	g.AddNode(&entity.WalletInfo{Address: "b"}, 1)
	g.AddNode(&entity.WalletInfo{Address: "c"}, 2)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.RecordTransfer("root", "a", 1.0, at)
	g.RecordTransfer("root", "b", 2.0, at)
	g.RecordTransfer("a", "c", 0.5, at)
	return g
}

func TestSimulateEmptyGraph(t *testing.T) {
	engine := NewLayoutEngine(DefaultLayoutConfig())
	positions := engine.Simulate(entity.NewGraph(), 0)
	assert.Empty(t, positions)
}

func TestSimulateIsDeterministic(t *testing.T) {
	engine := NewLayoutEngine(DefaultLayoutConfig())

	first := engine.Simulate(layoutGraph(), 0)
	second := engine.Simulate(layoutGraph(), 0)

	require.Len(t, first, 4)
	require.Equal(t, len(first), len(second))
	for addr, pos := range first {
		other, ok := second[addr]
		require.True(t, ok, addr)
		assert.Equal(t, pos.X, other.X, addr)
		assert.Equal(t, pos.Y, other.Y, addr)
	}
}

func TestSimulateWritesPositionsOntoNodes(t *testing.T) {
	engine := NewLayoutEngine(DefaultLayoutConfig())
	graph := layoutGraph()

	positions := engine.Simulate(graph, 50)

	for _, node := range graph.Nodes() {
		pos := positions[node.Address()]
		assert.Equal(t, pos.X, node.X)
		assert.Equal(t, pos.Y, node.Y)
		assert.False(t, math.IsNaN(node.X) || math.IsInf(node.X, 0))
		assert.False(t, math.IsNaN(node.Y) || math.IsInf(node.Y, 0))
	}
}

func TestSimulateSingleNodeDriftsTowardCenter(t *testing.T) {
	cfg := DefaultLayoutConfig()
	engine := NewLayoutEngine(cfg)
	g := entity.NewGraph()
	g.AddNode(&entity.WalletInfo{Address: "only"}, 0)

	positions := engine.Simulate(g, 0)

	pos := positions["only"]
	startDist := cfg.InitRadius
	endDist := math.Hypot(pos.X-cfg.CenterX, pos.Y-cfg.CenterY)
	assert.Less(t, endDist, startDist)
}

func TestSimulateConnectedNodesSitCloser(t *testing.T) {
	engine := NewLayoutEngine(DefaultLayoutConfig())
	g := entity.NewGraph()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.AddNode(&entity.WalletInfo{Address: "hub"}, 0)
	g.AddNode(&entity.WalletInfo{Address: "linked"}, 1)
	g.AddNode(&entity.WalletInfo{Address: "stray"}, 1)
	g.RecordTransfer("hub", "linked", 1.0, at)

	positions := engine.Simulate(g, 0)

	dist := func(a, b string) float64 {
		return math.Hypot(positions[a].X-positions[b].X, positions[a].Y-positions[b].Y)
	}
	assert.Less(t, dist("hub", "linked"), dist("hub", "stray"))
}

func TestNewLayoutEngineFallsBackToDefaults(t *testing.T) {
	engine := NewLayoutEngine(LayoutConfig{})
	g := entity.NewGraph()
	g.AddNode(&entity.WalletInfo{Address: "only"}, 0)

	// zero-value config would divide by zero without the fallback
	positions := engine.Simulate(g, 0)
	require.Len(t, positions, 1)
	pos := positions["only"]
	assert.False(t, math.IsNaN(pos.X))
}
