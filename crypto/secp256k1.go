package crypto

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

// CompactLength is the length of an r||s signature without recovery id.
const CompactLength = 64

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// GenPrivKey returns a random new private key.
func GenPrivKey() (*PrivateKey, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cannot generate key: %s", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivKeyFromBytes loads a 32 byte big endian scalar.
func PrivKeyFromBytes(raw []byte) (*PrivateKey, error) {
	if len(raw) != 32 {
		return nil, errors.Wrapf(errors.ErrInput, "private key must be 32 bytes, got %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), raw)
	if key.D.Sign() == 0 || key.D.Cmp(btcec.S256().N) >= 0 {
		return nil, errors.Wrap(errors.ErrInput, "private key out of range")
	}
	return &PrivateKey{key: key}, nil
}

// WrapPrivKey wraps an already loaded btcec key.
func WrapPrivKey(key *btcec.PrivateKey) *PrivateKey {
	return &PrivateKey{key: key}
}

// PublicKey returns the compressed public key.
func (p *PrivateKey) PublicKey() []byte {
	return p.key.PubKey().SerializeCompressed()
}

// Address returns the account address of this key.
func (p *PrivateKey) Address() blendsafe.Address {
	return PubKeyAddress(p.key.PubKey())
}

// Sign returns a deterministic (RFC6979) low-S signature of the hash in
// the compact r||s form.
func (p *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != HashLength {
		return nil, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashLength, len(hash))
	}
	sig, err := p.key.Sign(hash)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cannot sign: %s", err)
	}
	return compact(sig.R, sig.S), nil
}

// SignRecoverable returns r||s||v where v is the raw recovery id (0 or 1).
func (p *PrivateKey) SignRecoverable(hash []byte) ([]byte, error) {
	if len(hash) != HashLength {
		return nil, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashLength, len(hash))
	}
	sig, err := btcec.SignCompact(btcec.S256(), p.key, hash, false)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cannot sign: %s", err)
	}
	// btcec puts 27+recid in front.
	out := make([]byte, 0, CompactLength+1)
	out = append(out, sig[1:]...)
	return append(out, sig[0]-27), nil
}

func compact(r, s *big.Int) []byte {
	out := make([]byte, CompactLength)
	rb, sb := r.Bytes(), s.Bytes()
	copy(out[32-len(rb):32], rb)
	copy(out[64-len(sb):], sb)
	return out
}
