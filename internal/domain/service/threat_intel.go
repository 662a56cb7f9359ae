package service

import (
	"strings"
	"sync"

	"crypto-investigation-engine/internal/domain/entity"
)

// threatRecord is one seeded entry in the static dataset
type threatRecord struct {
	labels       []string
	threatTypes  []string
	abuseReports int
	sanctioned   bool
	verified     bool
}

// StaticThreatIntelService is an in-memory threat-label lookup seeded with
// known exchange, mixer, ransomware and sanctioned addresses. In a full
// deployment these sets would be refreshed from external feeds (OFAC,
// abuse databases); the lookup contract stays the same.
type StaticThreatIntelService struct {
	mu      sync.RWMutex
	records map[string]*threatRecord
}

// NewStaticThreatIntelService creates the lookup with the seeded dataset
func NewStaticThreatIntelService() *StaticThreatIntelService {
	s := &StaticThreatIntelService{
		records: make(map[string]*threatRecord),
	}
	s.seedKnownAddresses()
	return s
}

// ClassifyAddress returns the threat labels for an address. Unknown addresses
// yield an empty record, never nil.
func (s *StaticThreatIntelService) ClassifyAddress(address string, network entity.Network) *entity.ThreatIntel {
	s.mu.RLock()
	rec, ok := s.records[strings.ToLower(address)]
	s.mu.RUnlock()

	if !ok {
		return &entity.ThreatIntel{}
	}

	intel := &entity.ThreatIntel{
		ThreatTypes:  append([]string(nil), rec.threatTypes...),
		Labels:       append([]string(nil), rec.labels...),
		AbuseReports: rec.abuseReports,
		Sanctioned:   rec.sanctioned,
		Verified:     rec.verified,
	}
	for _, label := range rec.labels {
		switch label {
		case "exchange":
			intel.IsExchange = true
		case "mixer":
			intel.IsMixer = true
		case "ransomware":
			intel.IsRansomware = true
		}
	}
	intel.IsKnownThreat = intel.IsMixer || intel.IsRansomware || intel.Sanctioned ||
		len(rec.threatTypes) > 0 || rec.abuseReports > 0
	return intel
}

// AddLabel tags an address with an extra label at runtime
func (s *StaticThreatIntelService) AddLabel(address, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(address)
	rec, ok := s.records[key]
	if !ok {
		rec = &threatRecord{}
		s.records[key] = rec
	}
	rec.labels = append(rec.labels, label)
}

// AddSanctioned marks an address as sanctioned
func (s *StaticThreatIntelService) AddSanctioned(address, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(address)
	rec, ok := s.records[key]
	if !ok {
		rec = &threatRecord{}
		s.records[key] = rec
	}
	rec.sanctioned = true
	rec.labels = append(rec.labels, "sanctioned:"+source)
}

// ReportAbuse increments the abuse-report counter for an address
func (s *StaticThreatIntelService) ReportAbuse(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(address)
	rec, ok := s.records[key]
	if !ok {
		rec = &threatRecord{}
		s.records[key] = rec
	}
	rec.abuseReports++
}

// seedKnownAddresses loads the built-in dataset. Addresses here are public
// knowledge (exchange hot wallets, OFAC listings, well-known incident wallets).
func (s *StaticThreatIntelService) seedKnownAddresses() {
	exchanges := map[string]string{
		"0x3f5ce5fbfe3e9af3971dd833d26ba9b5c936f0be": "binance",
		"0x71660c4005ba85c37ccec55d0c4493e66fe775d3": "coinbase",
		"0x2910543af39aba0cd09dbb2d50200b3e800a63d2": "kraken",
		"0xdc76cd25977e0a5ae17155770273ad58648900d3": "huobi",
		"34xp4vrocgjym3xr7ycvpfhocnxv4twseo":         "binance",
		"bc1qgdjqv0av3q56jvd82tkdjpy7gdp9ut8tlqmgrpmv24sq90ecnvqqjwvw97": "bitfinex",
	}
	for addr, name := range exchanges {
		s.records[addr] = &threatRecord{
			labels:   []string{"exchange", name},
			verified: true,
		}
	}

	mixers := []string{
		"0x722122df12d4e14e13ac3b6895a86e84145b6967", // Tornado Cash router
		"0xd90e2f925da726b50c4ed8d0fb90ad053324f31b",
		"bc1qa5wkgaew2dkv56kfvj49j0av5nml45x9ek9hz6", // ChipMixer cluster
	}
	for _, addr := range mixers {
		s.records[addr] = &threatRecord{
			labels:      []string{"mixer"},
			threatTypes: []string{"mixing-service"},
		}
	}

	ransomware := map[string]int{
		"12t9ydpgwuez9nymgw519p7aa8isjr6smw": 54, // WannaCry
		"115p7ummngoj1pmvkphijcrdfjnxj6lrln": 37,
		"0x098b716b8aaf21512996dc57eb0615e2383e2f96": 22, // Ronin bridge exploiter
	}
	for addr, reports := range ransomware {
		s.records[addr] = &threatRecord{
			labels:       []string{"ransomware"},
			threatTypes:  []string{"ransomware"},
			abuseReports: reports,
		}
	}

	sanctioned := []string{
		"0x8589427373d6d84e98730d7795d8f6f8731fda16", // Tornado Cash (OFAC)
		"0x7f367cc41522ce07553e823bf3be79a889debe1b", // Lazarus Group (OFAC)
	}
	for _, addr := range sanctioned {
		rec, ok := s.records[addr]
		if !ok {
			rec = &threatRecord{}
			s.records[addr] = rec
		}
		rec.sanctioned = true
		rec.labels = append(rec.labels, "sanctioned:OFAC")
	}

	darknet := []string{
		"1ajbsfz64epefgu1dcnfwdlw6ljrywjbm9", // Silk Road cluster
	}
	for _, addr := range darknet {
		s.records[addr] = &threatRecord{
			labels:       []string{"darknet-market"},
			threatTypes:  []string{"darknet-market"},
			abuseReports: 12,
		}
	}
}
