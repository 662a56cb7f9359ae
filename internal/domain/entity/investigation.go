package entity

import (
	"time"
)

// InvestigationOptions controls how much work a single investigation performs.
// GraphDepth and MaxNodes are the primary backpressure limits against the
// upstream explorer APIs.
type InvestigationOptions struct {
	FetchTransactions bool `json:"fetch_transactions"`
	BuildGraph        bool `json:"build_graph"`
	GraphDepth        int  `json:"graph_depth"`
	MaxNodes          int  `json:"max_nodes"`
}

// Normalize clamps the options into their supported ranges
func (o InvestigationOptions) Normalize(defaultDepth, maxDepth, defaultNodes, maxNodes int) InvestigationOptions {
	if o.GraphDepth <= 0 {
		o.GraphDepth = defaultDepth
	}
	if o.GraphDepth > maxDepth {
		o.GraphDepth = maxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = defaultNodes
	}
	if o.MaxNodes > maxNodes {
		o.MaxNodes = maxNodes
	}
	return o
}

// ConnectedWallet is one undirected connection record derived from a graph
// edge. Relationship is always "both": edge aggregation does not track
// direction.
type ConnectedWallet struct {
	Address          string    `json:"address"`
	Relationship     string    `json:"relationship"`
	TransactionCount int64     `json:"transaction_count"`
	TotalVolume      float64   `json:"total_volume"`
	RiskLevel        RiskLevel `json:"risk_level"`
}

// Analysis holds the descriptive classification of a wallet's activity
type Analysis struct {
	BehaviorPattern   string   `json:"behavior_pattern"`
	VolumeAnalysis    string   `json:"volume_analysis"`
	FrequencyAnalysis string   `json:"frequency_analysis"`
	RiskFactors       []string `json:"risk_factors"`
	Recommendations   []string `json:"recommendations"`
}

// InvestigationResult is the complete output of one investigation
type InvestigationResult struct {
	ID               string            `json:"id"`
	Address          string            `json:"address"`
	Network          Network           `json:"network"`
	Wallet           *WalletInfo       `json:"wallet"`
	Transactions     []*Transaction    `json:"transactions"`
	ConnectedWallets []ConnectedWallet `json:"connected_wallets"`
	Graph            *Graph            `json:"-"`
	GraphNodes       []*Node           `json:"graph_nodes"`
	GraphEdges       []*Edge           `json:"graph_edges"`
	ThreatIntel      *ThreatIntel      `json:"threat_intel"`
	Analysis         *Analysis         `json:"analysis"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      time.Time         `json:"completed_at"`
}

// InvestigationRequest is the message shape accepted over NATS and HTTP
type InvestigationRequest struct {
	ID      string               `json:"id"`
	Address string               `json:"address"`
	Network Network              `json:"network"`
	Options InvestigationOptions `json:"options"`
}
