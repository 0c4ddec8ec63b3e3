package monitor

import (
	"fmt"
	"strings"
)

// ChainIdToName enumerates the chains the clearing layer settles across.
// Ids outside this map resolve to an "Unknown Chain" placeholder.
var ChainIdToName = map[string]string{
	"1":          "Ethereum",
	"10":         "Optimism",
	"56":         "BNB Chain",
	"100":        "Gnosis",
	"130":        "Unichain",
	"137":        "Polygon",
	"146":        "Sonic",
	"324":        "zkSync Era",
	"1088":       "Metis",
	"1101":       "Polygon zkEVM",
	"2020":       "Ronin",
	"5000":       "Mantle",
	"8453":       "Base",
	"25327":      "Everclear",
	"33139":      "ApeChain",
	"34443":      "Mode",
	"42161":      "Arbitrum One",
	"43114":      "Avalanche",
	"48900":      "Zircuit",
	"59144":      "Linea",
	"80094":      "Berachain",
	"81457":      "Blast",
	"167000":     "Taiko",
	"534352":     "Scroll",
	"7777777":    "Zora",
	"728126428":  "Tron",
	"1399811149": "Solana",
}

// NonEvmChainIds marks registry chains outside the EVM family. Their asset
// entries lose the tie-break in ResolveAsset.
var NonEvmChainIds = map[string]bool{
	"728126428":  true, // tron
	"1399811149": true, // solana
}

type AssetResolution struct {
	Symbol   string
	Decimals int
}

// ResolveChainName returns the display name for a chain id, or a placeholder
// embedding the raw id. Never empty.
func ResolveChainName(snap *Snapshot, id string) string {
	if name, ok := snap.Chains[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Chain (%s)", id)
}

// FormatChain renders "<Name> (<id>)" for known chains and the bare
// placeholder for unknown ones.
func FormatChain(snap *Snapshot, id string) string {
	if name, ok := snap.Chains[id]; ok {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return fmt.Sprintf("Unknown Chain (%s)", id)
}

// ResolveAsset looks up a ticker hash across every chain it is deployed on.
// EVM deployments take precedence; within the chosen set the decimals value
// that occurs most often wins, earliest entry breaking ties. The symbol comes
// from the first entry of the chosen set.
//
// A ticker hash can carry conflicting decimals across chains (non-EVM
// deployments in particular mis-record them), so a single entry can't be
// trusted on its own.
func ResolveAsset(snap *Snapshot, tickerHash string) (AssetResolution, bool) {
	matches := []AssetEntry{}
	for _, asset := range snap.Assets {
		if strings.EqualFold(asset.TickerHash, tickerHash) {
			matches = append(matches, asset)
		}
	}
	if len(matches) == 0 {
		return AssetResolution{}, false
	}

	evmMatches := []AssetEntry{}
	for _, asset := range matches {
		if asset.EvmChain {
			evmMatches = append(evmMatches, asset)
		}
	}
	chosen := matches
	if len(evmMatches) > 0 {
		chosen = evmMatches
	}

	counts := map[int]int{}
	decimals := chosen[0].Decimals
	for _, asset := range chosen {
		counts[asset.Decimals]++
		if counts[asset.Decimals] > counts[decimals] {
			decimals = asset.Decimals
		}
	}

	return AssetResolution{Symbol: chosen[0].Symbol, Decimals: decimals}, true
}

// ResolveAssetName is the fallback when ResolveAsset finds no match.
func ResolveAssetName(tickerHash string) string {
	return fmt.Sprintf("Unknown Token (%s)", tickerHash)
}

// FormatAsset renders "<Symbol> (<tickerHash>)" when the asset is known.
func FormatAsset(symbol string, tickerHash string) string {
	return fmt.Sprintf("%s (%s)", symbol, tickerHash)
}
