package entity

import (
	"time"
)

// RiskLevel is the ordinal classification derived from a numeric risk score
type RiskLevel string

const (
	RiskLevelSafe     RiskLevel = "safe"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskLevelForScore maps a clamped [0,100] score onto its level band
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score <= 20:
		return RiskLevelSafe
	case score <= 40:
		return RiskLevelLow
	case score <= 60:
		return RiskLevelMedium
	case score <= 80:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// IsHighRisk reports whether the level warrants enhanced scrutiny
func (rl RiskLevel) IsHighRisk() bool {
	return rl == RiskLevelHigh || rl == RiskLevelCritical
}

// WalletInfo is the canonical wallet record produced by the ledger gateway and
// risk classifier. Amounts are in the network base unit (BTC, ETH, TRX, LTC).
// Never mutated after creation; re-investigation builds a fresh instance.
type WalletInfo struct {
	Address          string    `json:"address"`
	Network          Network   `json:"network"`
	Balance          float64   `json:"balance"`
	TotalReceived    float64   `json:"total_received"`
	TotalSent        float64   `json:"total_sent"`
	TransactionCount int64     `json:"transaction_count"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
	Labels           []string  `json:"labels"`
	IsExchange       bool      `json:"is_exchange"`
	IsMixer          bool      `json:"is_mixer"`
	IsRansomware     bool      `json:"is_ransomware"`
	RiskScore        int       `json:"risk_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
}

// ThreatIntel carries the known-threat labels for an address, supplied by the
// threat-label lookup collaborator and consumed by the risk classifier.
type ThreatIntel struct {
	IsKnownThreat bool     `json:"is_known_threat"`
	IsExchange    bool     `json:"is_exchange"`
	IsMixer       bool     `json:"is_mixer"`
	IsRansomware  bool     `json:"is_ransomware"`
	ThreatTypes   []string `json:"threat_types"`
	Labels        []string `json:"labels"`
	AbuseReports  int      `json:"abuse_reports"`
	Sanctioned    bool     `json:"sanctioned"`
	Verified      bool     `json:"verified"`
}
