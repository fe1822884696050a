package holders

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	newWalletMaxAgeDays   = 14
	activeTraderMinTrades = 4
	activeTraderMinSigs   = 10
)

// ValidMintAddress reports whether s decodes to a 32-byte base58 pubkey.
func ValidMintAddress(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// isOnCurve reports whether a base58 pubkey is a valid ed25519 curve point.
// Program derived addresses are constructed to be off-curve, so an off-curve
// owner is program-controlled rather than a user wallet.
func isOnCurve(pubkey string) bool {
	decoded, err := base58.Decode(pubkey)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}

func isNewWallet(node *holderNode) bool {
	return node.walletAge != nil && *node.walletAge <= newWalletMaxAgeDays
}

// classifySource picks the wallet source label by precedence. index is the
// holder's position in the largest-accounts sample; clustered means the
// holder belongs to a reported connected group.
func classifySource(node *holderNode, index int, clustered bool, configured map[string]string) string {
	if index == 0 {
		// The largest account of a fresh listing is almost always the
		// liquidity pool vault.
		return SourceLPCandidate
	}
	if configured != nil {
		if label, ok := configured[node.owner]; ok && label != "" {
			return label
		}
	}
	if node.owner == node.tokenAccount {
		return SourceTokenAccount
	}
	if clustered {
		if isNewWallet(node) {
			return SourceClusteredNew
		}
		return SourceClustered
	}
	if isNewWallet(node) {
		return SourceNewWallet
	}
	if node.buys+node.sells >= activeTraderMinTrades || node.sigCount >= activeTraderMinSigs {
		return SourceActiveTrader
	}
	if node.owner != "" && !isOnCurve(node.owner) {
		return SourceProgramOwned
	}
	return SourceUnattributed
}
