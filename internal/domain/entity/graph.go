package entity

import (
	"time"
)

// Node wraps a WalletInfo with graph-local state: the BFS level it was
// discovered at and, once layout has run, a 2-D position and velocity.
// Owned by the Graph produced by a single build.
type Node struct {
	Wallet *WalletInfo `json:"wallet"`
	Level  int         `json:"level"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	VX     float64     `json:"-"`
	VY     float64     `json:"-"`
}

// Address is the node's wallet address
func (n *Node) Address() string {
	return n.Wallet.Address
}

// Edge is the aggregated, direction-less relationship between two addresses.
// One edge exists per unordered address pair; repeated transactions between the
// same pair accumulate here instead of creating duplicates.
type Edge struct {
	Source           string    `json:"source"`
	Target           string    `json:"target"`
	TransactionCount int64     `json:"transaction_count"`
	TotalVolume      float64   `json:"total_volume"`
	FirstTxTime      time.Time `json:"first_tx_time"`
	LastTxTime       time.Time `json:"last_tx_time"`
}

// Touches reports whether the edge has the address as either endpoint
func (e *Edge) Touches(address string) bool {
	return e.Source == address || e.Target == address
}

// Other returns the endpoint opposite to the given address
func (e *Edge) Other(address string) string {
	if e.Source == address {
		return e.Target
	}
	return e.Source
}

// Graph is a set of nodes unique by address plus aggregated edges whose
// endpoints both exist in the node set. Iteration order over nodes and edges
// is insertion order, so a build produces a deterministic graph.
type Graph struct {
	nodes     []*Node
	nodeIndex map[string]*Node
	edges     []*Edge
	edgeIndex map[string]*Edge
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[string]*Edge),
	}
}

// AddNode inserts a node for the wallet at the given BFS level. The first
// insertion wins; a duplicate address is ignored.
func (g *Graph) AddNode(wallet *WalletInfo, level int) *Node {
	if existing, ok := g.nodeIndex[wallet.Address]; ok {
		return existing
	}
	node := &Node{Wallet: wallet, Level: level}
	g.nodes = append(g.nodes, node)
	g.nodeIndex[wallet.Address] = node
	return node
}

// Node returns the node for an address, or nil
func (g *Graph) Node(address string) *Node {
	return g.nodeIndex[address]
}

// HasNode reports whether the address is in the node set
func (g *Graph) HasNode(address string) bool {
	_, ok := g.nodeIndex[address]
	return ok
}

// Nodes returns nodes in insertion (BFS discovery) order
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Edges returns edges in creation order
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// EdgeBetween returns the edge for the unordered pair, or nil
func (g *Graph) EdgeBetween(a, b string) *Edge {
	return g.edgeIndex[edgeKey(a, b)]
}

// RecordTransfer accumulates one observed transaction between two addresses
// into their shared edge, creating it on first sight. Both endpoints must
// already be nodes; the call is a no-op otherwise.
func (g *Graph) RecordTransfer(a, b string, value float64, at time.Time) *Edge {
	if !g.HasNode(a) || !g.HasNode(b) {
		return nil
	}

	key := edgeKey(a, b)
	edge, ok := g.edgeIndex[key]
	if !ok {
		edge = &Edge{Source: a, Target: b, FirstTxTime: at, LastTxTime: at}
		g.edges = append(g.edges, edge)
		g.edgeIndex[key] = edge
	}

	edge.TransactionCount++
	edge.TotalVolume += value
	if !at.IsZero() {
		if edge.FirstTxTime.IsZero() || at.Before(edge.FirstTxTime) {
			edge.FirstTxTime = at
		}
		if at.After(edge.LastTxTime) {
			edge.LastTxTime = at
		}
	}
	return edge
}

// edgeKey canonicalizes the unordered pair
func edgeKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
