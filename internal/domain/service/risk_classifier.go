package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"crypto-investigation-engine/internal/domain/entity"
)

// Score adjustments applied additively, then clamped to [0,100].
const (
	scoreRansomware      = 50
	scoreSanctioned      = 45
	scoreMixer           = 40
	scoreDarknetMarket   = 35
	scoreAbuseReports    = 30
	scoreSuspiciousTxns  = 20
	scoreHighVolume      = 15
	scoreYoungWallet     = 10
	scoreRegularCadence  = -10
	scoreLongHistory     = -15
	scoreKnownExchange   = -20
	scoreVerifiedEntity  = -25
	abuseReportThreshold = 10
	highVolumeThreshold  = 100.0
	youngWalletAge       = 30 * 24 * time.Hour
	longHistoryAge       = 5 * 365 * 24 * time.Hour
)

// RiskProfile is the classifier output for one wallet
type RiskProfile struct {
	Score int              `json:"score"`
	Level entity.RiskLevel `json:"level"`
	Tags  []string         `json:"tags"`
}

// RiskClassifierService maps a wallet's attributes and known threat labels to
// a numeric risk score, a risk level, and behavioral-analysis text. All
// methods are pure: same inputs, same outputs, no I/O.
type RiskClassifierService struct{}

// NewRiskClassifierService creates a new risk classifier
func NewRiskClassifierService() *RiskClassifierService {
	return &RiskClassifierService{}
}

// Classify scores a wallet against its threat labels and observed
// transactions. The reference time `at` anchors the age heuristics so the
// function stays deterministic.
func (rc *RiskClassifierService) Classify(wallet *entity.WalletInfo, intel *entity.ThreatIntel,
	txs []*entity.Transaction, at time.Time) RiskProfile {

	score := 0
	var tags []string

	add := func(delta int, tag string) {
		score += delta
		tags = append(tags, tag)
	}

	if intel != nil {
		if intel.IsRansomware || hasLabel(intel, "ransomware") {
			add(scoreRansomware, "ransomware")
		}
		if intel.IsMixer || hasLabel(intel, "mixer") {
			add(scoreMixer, "mixer")
		}
		if hasLabel(intel, "darknet") || hasLabel(intel, "darknet-market") {
			add(scoreDarknetMarket, "darknet_market")
		}
		if intel.Sanctioned {
			add(scoreSanctioned, "sanctioned")
		}
		if intel.AbuseReports > abuseReportThreshold {
			add(scoreAbuseReports, "abuse_reported")
		}
		if intel.IsExchange || hasLabel(intel, "exchange") {
			add(scoreKnownExchange, "exchange")
		}
		if intel.Verified {
			add(scoreVerifiedEntity, "verified")
		}
	}

	if HasSuspiciousPattern(txs) || (intel != nil && hasLabel(intel, "suspicious")) {
		add(scoreSuspiciousTxns, "suspicious_pattern")
	}
	if HasRegularCadence(txs) {
		add(scoreRegularCadence, "regular_cadence")
	}

	if wallet != nil {
		if !wallet.FirstSeen.IsZero() {
			age := at.Sub(wallet.FirstSeen)
			if age < youngWalletAge {
				add(scoreYoungWallet, "new_wallet")
			} else if age > longHistoryAge {
				add(scoreLongHistory, "established")
			}
		}
		if wallet.TotalReceived+wallet.TotalSent > highVolumeThreshold {
			add(scoreHighVolume, "high_volume")
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return RiskProfile{
		Score: score,
		Level: entity.RiskLevelForScore(score),
		Tags:  tags,
	}
}

// BehaviorPattern describes a wallet's activity from its transaction list
func (rc *RiskClassifierService) BehaviorPattern(txs []*entity.Transaction) string {
	if len(txs) == 0 {
		return "No transaction history"
	}

	frequency := len(txs)
	avgValue := totalVolume(txs) / float64(frequency)

	switch {
	case frequency > 100 && avgValue > 1:
		return "high-frequency/high-value"
	case frequency > 50:
		return "active"
	case frequency < 10:
		return "low activity"
	default:
		return "normal"
	}
}

// VolumeAnalysis classifies total observed volume in network base units
func (rc *RiskClassifierService) VolumeAnalysis(txs []*entity.Transaction) string {
	if len(txs) == 0 {
		return "No volume data"
	}

	switch total := totalVolume(txs); {
	case total > 1000:
		return "very high"
	case total > 100:
		return "high"
	case total > 10:
		return "moderate"
	default:
		return "low"
	}
}

// FrequencyAnalysis classifies the average inter-transaction interval
func (rc *RiskClassifierService) FrequencyAnalysis(txs []*entity.Transaction) string {
	if len(txs) < 2 {
		return "insufficient data"
	}

	switch days := averageIntervalDays(txs); {
	case days < 1:
		return "multiple per day"
	case days < 7:
		return "weekly"
	case days < 30:
		return "monthly"
	default:
		return "infrequent"
	}
}

// RiskFactors summarizes what drove a profile, for display alongside the score
func (rc *RiskClassifierService) RiskFactors(profile RiskProfile, intel *entity.ThreatIntel) []string {
	factors := []string{}

	for _, tag := range profile.Tags {
		switch tag {
		case "ransomware":
			factors = append(factors, "Address linked to ransomware payments")
		case "mixer":
			factors = append(factors, "Address linked to a mixing service")
		case "darknet_market":
			factors = append(factors, "Address linked to darknet markets")
		case "sanctioned":
			factors = append(factors, "Sanctioned entity")
		case "abuse_reported":
			if intel != nil {
				factors = append(factors, fmt.Sprintf("%d abuse reports on record", intel.AbuseReports))
			} else {
				factors = append(factors, "Multiple abuse reports on record")
			}
		case "suspicious_pattern":
			factors = append(factors, "Suspicious transaction pattern detected")
		case "new_wallet":
			factors = append(factors, "Wallet created within the last 30 days")
		case "high_volume":
			factors = append(factors, "High total transaction volume")
		}
	}
	return factors
}

// Recommendations returns operator guidance for a risk level
func (rc *RiskClassifierService) Recommendations(level entity.RiskLevel) []string {
	switch level {
	case entity.RiskLevelCritical:
		return []string{"Do not transact with this address", "Report to relevant authorities"}
	case entity.RiskLevelHigh:
		return []string{"Enhanced due diligence required", "Monitor closely"}
	case entity.RiskLevelMedium:
		return []string{"Standard due diligence recommended"}
	default:
		return []string{"Standard monitoring sufficient"}
	}
}

// HasSuspiciousPattern flags structuring-like behavior: ten or more
// transactions where most transfers move near-identical amounts.
func HasSuspiciousPattern(txs []*entity.Transaction) bool {
	if len(txs) < 10 {
		return false
	}

	buckets := make(map[float64]int)
	for _, tx := range txs {
		buckets[math.Round(tx.TotalValue()*100)/100]++
	}
	for _, count := range buckets {
		if float64(count) >= float64(len(txs))*0.8 {
			return true
		}
	}
	return false
}

// HasRegularCadence reports a low-variance transaction interval, typical of
// scheduled payouts rather than ad-hoc activity.
func HasRegularCadence(txs []*entity.Transaction) bool {
	if len(txs) < 3 {
		return false
	}

	intervals := sortedIntervals(txs)
	var mean float64
	for _, iv := range intervals {
		mean += iv
	}
	mean /= float64(len(intervals))
	if mean <= 0 {
		return false
	}

	var variance float64
	for _, iv := range intervals {
		variance += (iv - mean) * (iv - mean)
	}
	variance /= float64(len(intervals))

	// coefficient of variation below 0.25 counts as regular
	return math.Sqrt(variance)/mean < 0.25
}

func hasLabel(intel *entity.ThreatIntel, label string) bool {
	for _, l := range intel.Labels {
		if strings.EqualFold(l, label) || strings.Contains(strings.ToLower(l), label) {
			return true
		}
	}
	for _, t := range intel.ThreatTypes {
		if strings.EqualFold(t, label) || strings.Contains(strings.ToLower(t), label) {
			return true
		}
	}
	return false
}

func totalVolume(txs []*entity.Transaction) float64 {
	var total float64
	for _, tx := range txs {
		total += tx.TotalValue()
	}
	return total
}

func averageIntervalDays(txs []*entity.Transaction) float64 {
	times := make([]time.Time, 0, len(txs))
	for _, tx := range txs {
		if !tx.Timestamp.IsZero() {
			times = append(times, tx.Timestamp)
		}
	}
	if len(times) < 2 {
		return math.Inf(1)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	span := times[len(times)-1].Sub(times[0])
	return span.Hours() / 24 / float64(len(times)-1)
}

func sortedIntervals(txs []*entity.Transaction) []float64 {
	times := make([]time.Time, 0, len(txs))
	for _, tx := range txs {
		if !tx.Timestamp.IsZero() {
			times = append(times, tx.Timestamp)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	intervals := make([]float64, 0, len(times))
	for i := 1; i < len(times); i++ {
		intervals = append(intervals, times[i].Sub(times[i-1]).Seconds())
	}
	return intervals
}
