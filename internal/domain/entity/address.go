package entity

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
)

// Network identifies the ledger an address belongs to
type Network string

const (
	NetworkBitcoin  Network = "bitcoin"
	NetworkEthereum Network = "ethereum"
	NetworkTron     Network = "tron"
	NetworkLitecoin Network = "litecoin"
	NetworkUnknown  Network = "unknown"
)

// Address is a network-scoped wallet identifier. Immutable once detected.
type Address struct {
	Value   string  `json:"value"`
	Network Network `json:"network"`
}

var (
	tronAddressPattern     = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
	litecoinAddressPattern = regexp.MustCompile(`^(ltc1[a-z0-9]{20,90}|[LM][a-km-zA-HJ-NP-Z1-9]{26,33})$`)
	txHashPattern          = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)
)

// BaseUnit returns the symbol of the network's base unit
func (n Network) BaseUnit() string {
	switch n {
	case NetworkBitcoin:
		return "BTC"
	case NetworkEthereum:
		return "ETH"
	case NetworkTron:
		return "TRX"
	case NetworkLitecoin:
		return "LTC"
	default:
		return ""
	}
}

// Supported reports whether the network is one the engine can investigate
func (n Network) Supported() bool {
	switch n {
	case NetworkBitcoin, NetworkEthereum, NetworkTron, NetworkLitecoin:
		return true
	default:
		return false
	}
}

// DetectNetwork infers the network from the address format alone.
// Returns NetworkUnknown when no supported format matches.
func DetectNetwork(address string) Network {
	address = strings.TrimSpace(address)

	if common.IsHexAddress(address) {
		return NetworkEthereum
	}
	if tronAddressPattern.MatchString(address) {
		return NetworkTron
	}
	if litecoinAddressPattern.MatchString(address) {
		return NetworkLitecoin
	}
	if _, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams); err == nil {
		return NetworkBitcoin
	}
	return NetworkUnknown
}

// NewAddress validates the raw address against the requested network and
// returns the canonical Address. Passing NetworkUnknown auto-detects.
func NewAddress(raw string, network Network) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, &ValidationError{Field: "address", Reason: "empty address"}
	}

	if network == NetworkUnknown || network == "" {
		network = DetectNetwork(raw)
		if network == NetworkUnknown {
			return Address{}, &ValidationError{Field: "address", Reason: "unrecognized address format"}
		}
	}
	if !network.Supported() {
		return Address{}, &ValidationError{Field: "network", Reason: "unsupported network: " + string(network)}
	}

	switch network {
	case NetworkEthereum:
		if !common.IsHexAddress(raw) {
			return Address{}, &ValidationError{Field: "address", Reason: "invalid ethereum address"}
		}
		// Canonical lowercase form; explorers are case-insensitive on hex addresses
		raw = strings.ToLower(common.HexToAddress(raw).Hex())
	case NetworkBitcoin:
		if _, err := btcutil.DecodeAddress(raw, &chaincfg.MainNetParams); err != nil {
			return Address{}, &ValidationError{Field: "address", Reason: "invalid bitcoin address"}
		}
	case NetworkTron:
		if !tronAddressPattern.MatchString(raw) {
			return Address{}, &ValidationError{Field: "address", Reason: "invalid tron address"}
		}
	case NetworkLitecoin:
		if !litecoinAddressPattern.MatchString(raw) {
			return Address{}, &ValidationError{Field: "address", Reason: "invalid litecoin address"}
		}
	}

	return Address{Value: raw, Network: network}, nil
}

// ValidateTxHash checks the transaction hash format shared by the supported chains
func ValidateTxHash(hash string) error {
	if !txHashPattern.MatchString(strings.TrimSpace(hash)) {
		return &ValidationError{Field: "hash", Reason: "invalid transaction hash"}
	}
	return nil
}

// IsPlaceholderAddress reports address values explorers emit for unresolvable
// counterparties (coinbase inputs, contract creation, op_return outputs).
func IsPlaceholderAddress(address string) bool {
	switch strings.ToLower(strings.TrimSpace(address)) {
	case "", "coinbase", "unknown", "nonstandard", "op_return", "nulldata",
		"0x0000000000000000000000000000000000000000":
		return true
	}
	return false
}
