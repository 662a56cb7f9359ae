package service

import (
	"math"

	"crypto-investigation-engine/internal/domain/entity"
)

// LayoutConfig holds the force-simulation constants. They are configuration,
// not behavior: identical graph + identical config always produces identical
// positions.
type LayoutConfig struct {
	Repulsion     float64 `mapstructure:"repulsion"`
	Attraction    float64 `mapstructure:"attraction"`
	CenterGravity float64 `mapstructure:"center_gravity"`
	Damping       float64 `mapstructure:"damping"`
	Iterations    int     `mapstructure:"iterations"`
	CenterX       float64 `mapstructure:"center_x"`
	CenterY       float64 `mapstructure:"center_y"`
	InitRadius    float64 `mapstructure:"init_radius"`
}

// DefaultLayoutConfig returns the reference constants
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Repulsion:     5000,
		Attraction:    0.01,
		CenterGravity: 0.01,
		Damping:       0.3,
		Iterations:    300,
		CenterX:       500,
		CenterY:       400,
		InitRadius:    250,
	}
}

// Position is a computed 2-D node coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutEngine assigns 2-D coordinates to a graph's nodes with an iterative
// force-directed simulation: pairwise repulsion, spring attraction along
// edges, and gravity toward the canvas center. No randomness anywhere, so the
// simulation is fully deterministic.
type LayoutEngine struct {
	cfg LayoutConfig
}

// NewLayoutEngine creates a layout engine with the given constants
func NewLayoutEngine(cfg LayoutConfig) *LayoutEngine {
	if cfg.Iterations <= 0 {
		cfg = DefaultLayoutConfig()
	}
	return &LayoutEngine{cfg: cfg}
}

// Simulate runs the simulation for the given iteration count (0 means the
// configured default), writes final coordinates onto the graph's nodes, and
// returns them keyed by address.
func (e *LayoutEngine) Simulate(graph *entity.Graph, iterations int) map[string]Position {
	positions := make(map[string]Position)
	nodes := graph.Nodes()
	if len(nodes) == 0 {
		return positions
	}
	if iterations <= 0 {
		iterations = e.cfg.Iterations
	}

	e.placeOnCircle(nodes)

	edges := graph.Edges()
	fx := make([]float64, len(nodes))
	fy := make([]float64, len(nodes))
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.Address()] = i
	}

	for iter := 0; iter < iterations; iter++ {
		for i := range nodes {
			fx[i], fy[i] = 0, 0
		}

		// Pairwise repulsion: k_rep / d², directed away from the other node
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				dx := nodes[i].X - nodes[j].X
				dy := nodes[i].Y - nodes[j].Y
				dist := math.Hypot(dx, dy)
				if dist < 0.01 {
					dist = 0.01
					dx, dy = 0.01, 0
				}
				force := e.cfg.Repulsion / (dist * dist)
				ux, uy := dx/dist, dy/dist
				fx[i] += ux * force
				fy[i] += uy * force
				fx[j] -= ux * force
				fy[j] -= uy * force
			}
		}

		// Spring attraction along edges: d × k_attr toward the neighbor
		for _, edge := range edges {
			si, ok1 := index[edge.Source]
			ti, ok2 := index[edge.Target]
			if !ok1 || !ok2 {
				continue
			}
			dx := nodes[ti].X - nodes[si].X
			dy := nodes[ti].Y - nodes[si].Y
			dist := math.Hypot(dx, dy)
			if dist < 0.01 {
				continue
			}
			force := dist * e.cfg.Attraction
			ux, uy := dx/dist, dy/dist
			fx[si] += ux * force
			fy[si] += uy * force
			fx[ti] -= ux * force
			fy[ti] -= uy * force
		}

		// Center gravity: (center − position) × k_center
		for i, n := range nodes {
			fx[i] += (e.cfg.CenterX - n.X) * e.cfg.CenterGravity
			fy[i] += (e.cfg.CenterY - n.Y) * e.cfg.CenterGravity
		}

		for i, n := range nodes {
			n.VX = (n.VX + fx[i]) * e.cfg.Damping
			n.VY = (n.VY + fy[i]) * e.cfg.Damping
			n.X += n.VX
			n.Y += n.VY
		}
	}

	for _, n := range nodes {
		positions[n.Address()] = Position{X: n.X, Y: n.Y}
	}
	return positions
}

// placeOnCircle seeds initial positions on a fixed-radius circle around the
// canvas center, in node iteration order.
func (e *LayoutEngine) placeOnCircle(nodes []*entity.Node) {
	step := 2 * math.Pi / float64(len(nodes))
	for i, n := range nodes {
		angle := step * float64(i)
		n.X = e.cfg.CenterX + e.cfg.InitRadius*math.Cos(angle)
		n.Y = e.cfg.CenterY + e.cfg.InitRadius*math.Sin(angle)
		n.VX, n.VY = 0, 0
	}
}
