package types

import (
	"fmt"
	"strings"
)

// ExternalChain identifies an EVM-compatible chain assets can move to or from.
type ExternalChain uint8

const (
	ChainUnknown ExternalChain = iota
	Ethereum
	Goerli
	Sepolia
	BSC
	BSCTestnet
	Polygon
)

var chainIDs = map[ExternalChain]uint64{
	Ethereum:   1,
	Goerli:     5,
	Sepolia:    11155111,
	BSC:        56,
	BSCTestnet: 97,
	Polygon:    137,
}

var chainNames = map[ExternalChain]string{
	Ethereum:   "ethereum",
	Goerli:     "goerli",
	Sepolia:    "sepolia",
	BSC:        "bsc",
	BSCTestnet: "bsc-testnet",
	Polygon:    "polygon",
}

// ChainID returns the EIP-155 chain id.
func (c ExternalChain) ChainID() (uint64, bool) {
	id, ok := chainIDs[c]
	return id, ok
}

func (c ExternalChain) String() string {
	if n, ok := chainNames[c]; ok {
		return n
	}
	return fmt.Sprintf("chain(%d)", uint8(c))
}

// Valid reports whether c has a chain id mapping.
func (c ExternalChain) Valid() bool {
	_, ok := chainIDs[c]
	return ok
}

// ParseExternalChain accepts a chain name such as "goerli".
func ParseExternalChain(s string) (ExternalChain, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range chainNames {
		if n == s {
			return c, nil
		}
	}
	return ChainUnknown, fmt.Errorf("unknown external chain %q", s)
}

// ChainFromID maps an EIP-155 chain id back to an ExternalChain.
func ChainFromID(id uint64) (ExternalChain, bool) {
	for c, cid := range chainIDs {
		if cid == id {
			return c, true
		}
	}
	return ChainUnknown, false
}
