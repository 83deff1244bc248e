package crypto

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
	"golang.org/x/crypto/sha3"
)

// HashLength is the length of a keccak256 digest.
const HashLength = 32

// Keccak256 returns the legacy (pre NIST) keccak256 digest of all data
// chunks, as used by Ethereum.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		_, _ = h.Write(d)
	}
	return h.Sum(nil)
}

// EthAddress derives the 20 byte account address of a secp256k1 public
// key. Both compressed (33 bytes) and uncompressed (65 bytes) encodings
// are accepted.
func EthAddress(pubkey []byte) (blendsafe.Address, error) {
	pub, err := btcec.ParsePubKey(pubkey, btcec.S256())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "public key: %s", err)
	}
	return PubKeyAddress(pub), nil
}

// PubKeyAddress is keccak256(uncompressed[1:])[12:].
func PubKeyAddress(pub *btcec.PublicKey) blendsafe.Address {
	raw := pub.SerializeUncompressed()
	return blendsafe.Address(Keccak256(raw[1:])[HashLength-blendsafe.AddressLength:])
}
