package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-investigation-engine/internal/domain/entity"
)

var classifyAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func txAt(ts time.Time, value float64) *entity.Transaction {
	return &entity.Transaction{
		Timestamp: ts,
		Outputs:   []entity.TxOutput{{Address: "x", Value: value}},
	}
}

func TestClassifyCleanWalletIsSafe(t *testing.T) {
	rc := NewRiskClassifierService()
	wallet := &entity.WalletInfo{
		Address:   "addr",
		FirstSeen: classifyAt.Add(-6 * 365 * 24 * time.Hour),
	}

	profile := rc.Classify(wallet, &entity.ThreatIntel{}, nil, classifyAt)

	// long history scores negative and clamps to zero
	assert.Equal(t, 0, profile.Score)
	assert.Equal(t, entity.RiskLevelSafe, profile.Level)
	assert.Contains(t, profile.Tags, "established")
}

func TestClassifyRansomwareClampsAtHundred(t *testing.T) {
	rc := NewRiskClassifierService()
	intel := &entity.ThreatIntel{
		IsRansomware: true,
		Sanctioned:   true,
		AbuseReports: 54,
	}

	profile := rc.Classify(&entity.WalletInfo{Address: "addr"}, intel, nil, classifyAt)

	assert.Equal(t, 100, profile.Score)
	assert.Equal(t, entity.RiskLevelCritical, profile.Level)
	assert.Contains(t, profile.Tags, "ransomware")
	assert.Contains(t, profile.Tags, "sanctioned")
	assert.Contains(t, profile.Tags, "abuse_reported")
}

func TestClassifyMixer(t *testing.T) {
	rc := NewRiskClassifierService()
	intel := &entity.ThreatIntel{IsMixer: true}

	profile := rc.Classify(&entity.WalletInfo{Address: "addr"}, intel, nil, classifyAt)

	assert.Equal(t, 40, profile.Score)
	assert.Equal(t, entity.RiskLevelLow, profile.Level)
}

func TestClassifyMixerPlusYoungWallet(t *testing.T) {
	rc := NewRiskClassifierService()
	intel := &entity.ThreatIntel{IsMixer: true}
	wallet := &entity.WalletInfo{
		Address:   "addr",
		FirstSeen: classifyAt.Add(-7 * 24 * time.Hour),
	}

	profile := rc.Classify(wallet, intel, nil, classifyAt)

	assert.Equal(t, 50, profile.Score)
	assert.Equal(t, entity.RiskLevelMedium, profile.Level)
	assert.Contains(t, profile.Tags, "new_wallet")
}

func TestClassifyVerifiedExchangeStaysSafe(t *testing.T) {
	rc := NewRiskClassifierService()
	intel := &entity.ThreatIntel{IsExchange: true, Verified: true}
	wallet := &entity.WalletInfo{
		Address:       "addr",
		TotalReceived: 90,
		TotalSent:     80,
	}

	profile := rc.Classify(wallet, intel, nil, classifyAt)

	// exchange -20, verified -25, high volume +15: clamps to 0
	assert.Equal(t, 0, profile.Score)
	assert.Equal(t, entity.RiskLevelSafe, profile.Level)
	assert.Contains(t, profile.Tags, "high_volume")
}

func TestClassifyIsDeterministic(t *testing.T) {
	rc := NewRiskClassifierService()
	wallet := &entity.WalletInfo{Address: "addr", FirstSeen: classifyAt.Add(-24 * time.Hour)}
	intel := &entity.ThreatIntel{Labels: []string{"darknet-market"}, AbuseReports: 12}
	txs := []*entity.Transaction{
		txAt(classifyAt.Add(-time.Hour), 1.0),
		txAt(classifyAt.Add(-2*time.Hour), 2.0),
	}

	first := rc.Classify(wallet, intel, txs, classifyAt)
	second := rc.Classify(wallet, intel, txs, classifyAt)

	require.Equal(t, first, second)
}

func TestClassifyNilInputs(t *testing.T) {
	rc := NewRiskClassifierService()

	profile := rc.Classify(nil, nil, nil, classifyAt)

	assert.Equal(t, 0, profile.Score)
	assert.Equal(t, entity.RiskLevelSafe, profile.Level)
	assert.Empty(t, profile.Tags)
}

func TestBehaviorPattern(t *testing.T) {
	rc := NewRiskClassifierService()

	assert.Equal(t, "No transaction history", rc.BehaviorPattern(nil))

	few := []*entity.Transaction{txAt(classifyAt, 1)}
	assert.Equal(t, "low activity", rc.BehaviorPattern(few))

	var many []*entity.Transaction
	for i := 0; i < 120; i++ {
		many = append(many, txAt(classifyAt.Add(-time.Duration(i)*time.Hour), 5))
	}
	assert.Equal(t, "high-frequency/high-value", rc.BehaviorPattern(many))

	var active []*entity.Transaction
	for i := 0; i < 60; i++ {
		active = append(active, txAt(classifyAt.Add(-time.Duration(i)*time.Hour), 0.001))
	}
	assert.Equal(t, "active", rc.BehaviorPattern(active))
}

func TestVolumeAnalysis(t *testing.T) {
	rc := NewRiskClassifierService()

	assert.Equal(t, "No volume data", rc.VolumeAnalysis(nil))
	assert.Equal(t, "low", rc.VolumeAnalysis([]*entity.Transaction{txAt(classifyAt, 1)}))
	assert.Equal(t, "moderate", rc.VolumeAnalysis([]*entity.Transaction{txAt(classifyAt, 50)}))
	assert.Equal(t, "high", rc.VolumeAnalysis([]*entity.Transaction{txAt(classifyAt, 500)}))
	assert.Equal(t, "very high", rc.VolumeAnalysis([]*entity.Transaction{txAt(classifyAt, 5000)}))
}

func TestFrequencyAnalysis(t *testing.T) {
	rc := NewRiskClassifierService()

	assert.Equal(t, "insufficient data", rc.FrequencyAnalysis(nil))
	assert.Equal(t, "insufficient data", rc.FrequencyAnalysis([]*entity.Transaction{txAt(classifyAt, 1)}))

	hourly := []*entity.Transaction{
		txAt(classifyAt, 1),
		txAt(classifyAt.Add(-time.Hour), 1),
		txAt(classifyAt.Add(-2*time.Hour), 1),
	}
	assert.Equal(t, "multiple per day", rc.FrequencyAnalysis(hourly))

	weekly := []*entity.Transaction{
		txAt(classifyAt, 1),
		txAt(classifyAt.Add(-3*24*time.Hour), 1),
	}
	assert.Equal(t, "weekly", rc.FrequencyAnalysis(weekly))

	rare := []*entity.Transaction{
		txAt(classifyAt, 1),
		txAt(classifyAt.Add(-200*24*time.Hour), 1),
	}
	assert.Equal(t, "infrequent", rc.FrequencyAnalysis(rare))
}

func TestHasSuspiciousPattern(t *testing.T) {
	var identical []*entity.Transaction
	for i := 0; i < 12; i++ {
		identical = append(identical, txAt(classifyAt.Add(-time.Duration(i)*time.Hour), 0.1))
	}
	assert.True(t, HasSuspiciousPattern(identical))

	var varied []*entity.Transaction
	for i := 0; i < 12; i++ {
		varied = append(varied, txAt(classifyAt.Add(-time.Duration(i)*time.Hour), float64(i)+0.5))
	}
	assert.False(t, HasSuspiciousPattern(varied))

	// below the minimum sample size nothing is flagged
	assert.False(t, HasSuspiciousPattern(identical[:9]))
}

func TestHasRegularCadence(t *testing.T) {
	var daily []*entity.Transaction
	for i := 0; i < 10; i++ {
		daily = append(daily, txAt(classifyAt.Add(-time.Duration(i)*24*time.Hour), 1))
	}
	assert.True(t, HasRegularCadence(daily))

	irregular := []*entity.Transaction{
		txAt(classifyAt, 1),
		txAt(classifyAt.Add(-time.Hour), 1),
		txAt(classifyAt.Add(-40*24*time.Hour), 1),
	}
	assert.False(t, HasRegularCadence(irregular))

	assert.False(t, HasRegularCadence(daily[:2]))
}

func TestRiskFactorsAndRecommendations(t *testing.T) {
	rc := NewRiskClassifierService()
	intel := &entity.ThreatIntel{IsRansomware: true, AbuseReports: 54}
	profile := rc.Classify(&entity.WalletInfo{Address: "addr"}, intel, nil, classifyAt)

	factors := rc.RiskFactors(profile, intel)
	assert.Contains(t, factors, "Address linked to ransomware payments")
	assert.Contains(t, factors, "54 abuse reports on record")

	assert.Contains(t, rc.Recommendations(entity.RiskLevelCritical), "Do not transact with this address")
	assert.Contains(t, rc.Recommendations(entity.RiskLevelHigh), "Enhanced due diligence required")
	assert.Contains(t, rc.Recommendations(entity.RiskLevelSafe), "Standard monitoring sufficient")
}
