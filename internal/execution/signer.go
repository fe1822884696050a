package execution

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// Signer holds the trader keypair and signs serialized transactions.
type Signer struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// NewSignerFromBase58 builds a Signer from a base58-encoded 64-byte secret
// key. An empty or malformed key is a configuration error.
func NewSignerFromBase58(secretKey string) (*Signer, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("missing trader private key")
	}

	raw, err := base58.Decode(secretKey)
	if err != nil {
		return nil, fmt.Errorf("decode trader private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("trader private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{priv: priv, pubkey: base58.Encode(pub)}, nil
}

// PublicKey returns the base58 wallet address.
func (s *Signer) PublicKey() string {
	return s.pubkey
}

// SignTransaction signs a base64 serialized versioned transaction as the fee
// payer and returns the re-serialized base64 transaction.
//
// Wire layout: compact-u16 signature count, then count*64 signature bytes,
// then the message. The fee payer signature is slot 0.
func (s *Signer) SignTransaction(txBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, offset, err := decodeCompactU16(raw)
	if err != nil {
		return "", fmt.Errorf("parse signature count: %w", err)
	}
	if numSigs < 1 {
		return "", fmt.Errorf("transaction reserves no signature slots")
	}

	msgStart := offset + numSigs*ed25519.SignatureSize
	if msgStart > len(raw) {
		return "", fmt.Errorf("transaction truncated: %d signature slots in %d bytes", numSigs, len(raw))
	}

	sig := ed25519.Sign(s.priv, raw[msgStart:])
	copy(raw[offset:offset+ed25519.SignatureSize], sig)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeCompactU16 reads a compact-u16 length prefix, returning the value and
// the number of bytes consumed.
func decodeCompactU16(raw []byte) (int, int, error) {
	value := 0
	for i := 0; i < 3; i++ {
		if i >= len(raw) {
			return 0, 0, fmt.Errorf("unexpected end of input")
		}
		b := int(raw[i])
		value |= (b & 0x7f) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 overflow")
}
