package gateway

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
)

// HDGateway is an in-process signing service. Each derivation path is
// mapped to a chain of hardened BIP32 children of a master key created
// from a seed. Keys are derived once and cached.
type HDGateway struct {
	keyName string
	master  *hdkeychain.ExtendedKey

	mu   sync.Mutex
	keys map[string]*crypto.PrivateKey
}

var _ blendsafe.SigningGateway = (*HDGateway)(nil)

// NewHDGateway creates a gateway from a 16 to 64 byte seed. The key name
// is mixed into every derivation step, so different key names give
// unrelated keys for the same seed.
func NewHDGateway(seed []byte, keyName string) (*HDGateway, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "seed: %s", err)
	}
	return &HDGateway{
		keyName: keyName,
		master:  master,
		keys:    make(map[string]*crypto.PrivateKey),
	}, nil
}

// GenerateSeed returns a random seed of the recommended length.
func GenerateSeed() ([]byte, error) {
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cannot generate seed: %s", err)
	}
	return seed, nil
}

// KeyName returns the name of the key this gateway signs with.
func (g *HDGateway) KeyName() string {
	return g.keyName
}

// PublicKey returns the compressed public key of the path.
func (g *HDGateway) PublicKey(ctx context.Context, path blendsafe.DerivationPath) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	key, err := g.key(path)
	if err != nil {
		return nil, err
	}
	return key.PublicKey(), nil
}

// Sign returns a 64 byte r||s signature of the hash.
func (g *HDGateway) Sign(ctx context.Context, path blendsafe.DerivationPath, hash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, err.Error())
	}
	key, err := g.key(path)
	if err != nil {
		return nil, err
	}
	return key.Sign(hash)
}

func (g *HDGateway) key(path blendsafe.DerivationPath) (*crypto.PrivateKey, error) {
	if len(path) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "derivation path")
	}
	id := path.String()

	g.mu.Lock()
	defer g.mu.Unlock()

	if k, ok := g.keys[id]; ok {
		return k, nil
	}

	ext := g.master
	for _, component := range path {
		child, err := ext.Child(g.childIndex(component))
		if err != nil {
			// ErrInvalidChild has a negligible chance, the caller
			// must pick another path.
			return nil, errors.Wrapf(errors.ErrInput, "derive %s: %s", id, err)
		}
		ext = child
	}
	priv, err := ext.ECPrivKey()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "private key of %s: %s", id, err)
	}
	k := crypto.WrapPrivKey(priv)
	g.keys[id] = k
	return k, nil
}

// childIndex maps a path component to a hardened child index.
func (g *HDGateway) childIndex(component []byte) uint32 {
	h := crypto.Keccak256([]byte(g.keyName), component)
	return binary.BigEndian.Uint32(h[:4]) | hdkeychain.HardenedKeyStart
}
