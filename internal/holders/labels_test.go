package holders

import (
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

func TestValidMintAddress(t *testing.T) {
	// Wrapped SOL mint decodes to exactly 32 bytes.
	if !ValidMintAddress("So11111111111111111111111111111111111111112") {
		t.Error("expected wrapped SOL mint to validate")
	}

	if ValidMintAddress("not-base58-!!") {
		t.Error("expected invalid base58 to fail")
	}

	if ValidMintAddress("abc") {
		t.Error("expected short input to fail")
	}
}

// offCurveKey finds a 32-byte encoding that is not a valid curve point.
func offCurveKey(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 32)
	for b := 0; b < 256; b++ {
		buf[0] = byte(b)
		if _, err := new(edwards25519.Point).SetBytes(buf); err != nil {
			return base58.Encode(buf)
		}
	}
	t.Fatal("no off-curve encoding found")
	return ""
}

func TestIsOnCurve(t *testing.T) {
	onCurve := base58.Encode(edwards25519.NewGeneratorPoint().Bytes())
	if !isOnCurve(onCurve) {
		t.Error("expected generator point to be on curve")
	}

	if isOnCurve(offCurveKey(t)) {
		t.Error("expected off-curve encoding to be rejected")
	}

	if isOnCurve("garbage") {
		t.Error("expected invalid base58 to be rejected")
	}
}

func TestClassifySource_Precedence(t *testing.T) {
	age5 := 5.0
	age100 := 100.0

	onCurve := base58.Encode(edwards25519.NewGeneratorPoint().Bytes())

	tests := []struct {
		name       string
		node       *holderNode
		index      int
		clustered  bool
		configured map[string]string
		want       string
	}{
		{
			name:  "index zero is the pool candidate",
			node:  &holderNode{tokenAccount: "acct", owner: "wallet"},
			index: 0,
			want:  SourceLPCandidate,
		},
		{
			name:       "configured label wins over clustering",
			node:       &holderNode{tokenAccount: "acct", owner: "cex", walletAge: &age5},
			index:      1,
			clustered:  true,
			configured: map[string]string{"cex": "exchange-hot-wallet"},
			want:       "exchange-hot-wallet",
		},
		{
			name:  "unresolved owner",
			node:  &holderNode{tokenAccount: "acct", owner: "acct"},
			index: 1,
			want:  SourceTokenAccount,
		},
		{
			name:      "clustered new wallet",
			node:      &holderNode{tokenAccount: "acct", owner: onCurve, walletAge: &age5},
			index:     1,
			clustered: true,
			want:      SourceClusteredNew,
		},
		{
			name:      "clustered old wallet",
			node:      &holderNode{tokenAccount: "acct", owner: onCurve, walletAge: &age100},
			index:     1,
			clustered: true,
			want:      SourceClustered,
		},
		{
			name:  "new wallet",
			node:  &holderNode{tokenAccount: "acct", owner: onCurve, walletAge: &age5},
			index: 1,
			want:  SourceNewWallet,
		},
		{
			name:  "active trader by trade count",
			node:  &holderNode{tokenAccount: "acct", owner: onCurve, walletAge: &age100, buys: 2, sells: 2},
			index: 1,
			want:  SourceActiveTrader,
		},
		{
			name:  "active trader by signature volume",
			node:  &holderNode{tokenAccount: "acct", owner: onCurve, walletAge: &age100, sigCount: 12},
			index: 1,
			want:  SourceActiveTrader,
		},
		{
			name:  "quiet old wallet",
			node:  &holderNode{tokenAccount: "acct", owner: onCurve, walletAge: &age100},
			index: 1,
			want:  SourceUnattributed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySource(tt.node, tt.index, tt.clustered, tt.configured)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifySource_ProgramOwned(t *testing.T) {
	age100 := 100.0
	node := &holderNode{tokenAccount: "acct", owner: offCurveKey(t), walletAge: &age100}

	got := classifySource(node, 1, false, nil)
	if got != SourceProgramOwned {
		t.Errorf("expected %s, got %s", SourceProgramOwned, got)
	}
}

func TestIsNewWallet_UnknownAgeIsNotNew(t *testing.T) {
	if isNewWallet(&holderNode{}) {
		t.Error("unknown wallet age must not classify as new")
	}
}
