package blendsafe

import (
	"context"
	"encoding/hex"
	"strings"
)

// SigningGateway is the external threshold-signing key service. Both calls
// may block for a long time and may fail transiently, so they accept a
// context that can cancel them.
type SigningGateway interface {
	// PublicKey returns the SEC encoded (compressed or uncompressed)
	// secp256k1 public key held for given derivation path.
	PublicKey(ctx context.Context, path DerivationPath) ([]byte, error)

	// Sign returns a compact 64 byte (r, s) signature of given 32 byte
	// message hash, made with the key held for given derivation path. The
	// recovery identifier is not guaranteed to be present.
	Sign(ctx context.Context, path DerivationPath, hash []byte) ([]byte, error)
}

// DerivationPath selects which key material a wallet uses.
type DerivationPath [][]byte

// String returns a human readable form of the path.
func (p DerivationPath) String() string {
	chunks := make([]string, len(p))
	for i, c := range p {
		chunks[i] = hex.EncodeToString(c)
	}
	return "/" + strings.Join(chunks, "/")
}

// Copy returns a deep copy of the path.
func (p DerivationPath) Copy() DerivationPath {
	res := make(DerivationPath, len(p))
	for i, c := range p {
		res[i] = append([]byte(nil), c...)
	}
	return res
}
