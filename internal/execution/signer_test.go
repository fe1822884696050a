package execution

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	priv := ed25519.NewKeyFromSeed(seed)

	signer, err := NewSignerFromBase58(base58.Encode(priv))
	if err != nil {
		t.Fatalf("NewSignerFromBase58: %v", err)
	}
	return signer
}

// unsignedTransaction builds a serialized transaction with one empty
// signature slot followed by the message bytes.
func unsignedTransaction(message []byte) string {
	raw := make([]byte, 1+ed25519.SignatureSize+len(message))
	raw[0] = 1
	copy(raw[1+ed25519.SignatureSize:], message)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSigner_RejectsBadKeys(t *testing.T) {
	if _, err := NewSignerFromBase58(""); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewSignerFromBase58("!!!not-base58!!!"); err == nil {
		t.Error("expected error for malformed key")
	}
	if _, err := NewSignerFromBase58(base58.Encode([]byte{1, 2, 3})); err == nil {
		t.Error("expected error for short key")
	}
}

func TestSigner_SignTransaction(t *testing.T) {
	signer := testSigner(t)
	message := []byte("transaction message bytes")

	signed, err := signer.SignTransaction(unsignedTransaction(message))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(signed)
	if err != nil {
		t.Fatalf("decode signed tx: %v", err)
	}

	sig := raw[1 : 1+ed25519.SignatureSize]
	pub, err := base58.Decode(signer.PublicKey())
	if err != nil {
		t.Fatalf("decode pubkey: %v", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), message, sig) {
		t.Error("signature does not verify against the message")
	}

	// Message bytes untouched.
	if string(raw[1+ed25519.SignatureSize:]) != string(message) {
		t.Error("message bytes were modified")
	}
}

func TestSigner_SignTransactionTruncated(t *testing.T) {
	signer := testSigner(t)

	raw := []byte{2, 0, 0} // claims 2 signature slots, no room
	if _, err := signer.SignTransaction(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Error("expected error for truncated transaction")
	}
}

func TestDecodeCompactU16(t *testing.T) {
	tests := []struct {
		in      []byte
		value   int
		consume int
	}{
		{[]byte{0x01}, 1, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xff, 0x01}, 255, 2},
	}
	for _, tt := range tests {
		value, consumed, err := decodeCompactU16(tt.in)
		if err != nil {
			t.Errorf("decodeCompactU16(%v): %v", tt.in, err)
			continue
		}
		if value != tt.value || consumed != tt.consume {
			t.Errorf("decodeCompactU16(%v) = (%d, %d), want (%d, %d)", tt.in, value, consumed, tt.value, tt.consume)
		}
	}
}
