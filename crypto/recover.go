package crypto

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

// RecoveryConvention names a way of encoding the recovery id after the
// r||s part of a signature.
type RecoveryConvention uint8

const (
	// NoRecoveryID is a bare 64 byte r||s signature. Both recovery ids
	// are tried.
	NoRecoveryID RecoveryConvention = iota
	// RawRecoveryID is r||s||v with v in {0, 1}.
	RawRecoveryID
	// LegacyOffset is r||s||v with v in {27, 28}.
	LegacyOffset
	// EIP155 is r||s||v with a big endian v >= 35 that embeds a chain id.
	EIP155
)

// RecoveryConventions lists every supported convention. Verification tries
// no other.
var RecoveryConventions = []RecoveryConvention{
	NoRecoveryID,
	RawRecoveryID,
	LegacyOffset,
	EIP155,
}

const (
	legacyOffset = 27
	eip155Offset = 35

	// MaxSignatureLength allows a v of up to 8 bytes.
	MaxSignatureLength = CompactLength + 8
)

func (c RecoveryConvention) String() string {
	switch c {
	case NoRecoveryID:
		return "none"
	case RawRecoveryID:
		return "raw"
	case LegacyOffset:
		return "legacy"
	case EIP155:
		return "eip155"
	default:
		return "unknown"
	}
}

// Candidate is a recovery id to try for a signature, together with the
// convention it was decoded with.
type Candidate struct {
	Convention RecoveryConvention
	RecoveryID byte
}

// RecoveryCandidates decodes the recovery part of a signature. It returns
// every recovery id that the signature may have been created with. A
// chainID of zero means that no chain id is configured and any EIP155 v is
// accepted. A signature that matches no convention is an ErrInput.
func RecoveryCandidates(sig []byte, chainID uint64) ([]Candidate, error) {
	switch n := len(sig); {
	case n == CompactLength:
		return []Candidate{
			{Convention: NoRecoveryID, RecoveryID: 0},
			{Convention: NoRecoveryID, RecoveryID: 1},
		}, nil
	case n < CompactLength || n > MaxSignatureLength:
		return nil, errors.Wrapf(errors.ErrInput, "invalid signature length %d", n)
	}

	var v uint64
	for _, b := range sig[CompactLength:] {
		v = v<<8 | uint64(b)
	}

	switch {
	case len(sig) == CompactLength+1 && v <= 1:
		return []Candidate{{Convention: RawRecoveryID, RecoveryID: byte(v)}}, nil
	case len(sig) == CompactLength+1 && (v == legacyOffset || v == legacyOffset+1):
		return []Candidate{{Convention: LegacyOffset, RecoveryID: byte(v - legacyOffset)}}, nil
	case v >= eip155Offset:
		rest := v - eip155Offset
		if chainID == 0 {
			return []Candidate{{Convention: EIP155, RecoveryID: byte(rest % 2)}}, nil
		}
		if rest/2 != chainID {
			return nil, errors.Wrapf(errors.ErrInput, "signature for chain %d, want %d", rest/2, chainID)
		}
		return []Candidate{{Convention: EIP155, RecoveryID: byte(rest - 2*chainID)}}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unsupported recovery value %d", v)
	}
}

// RecoverAddress returns the address of the key that created the r||s
// signature of hash with the given recovery id.
func RecoverAddress(hash, rs []byte, recoveryID byte) (blendsafe.Address, error) {
	if len(hash) != HashLength {
		return nil, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashLength, len(hash))
	}
	if len(rs) < CompactLength {
		return nil, errors.Wrapf(errors.ErrInput, "signature must be at least %d bytes", CompactLength)
	}
	if recoveryID > 3 {
		return nil, errors.Wrapf(errors.ErrInput, "invalid recovery id %d", recoveryID)
	}
	order := btcec.S256().N
	for _, part := range [][]byte{rs[:32], rs[32:CompactLength]} {
		n := new(big.Int).SetBytes(part)
		if n.Sign() == 0 || n.Cmp(order) >= 0 {
			return nil, errors.Wrap(errors.ErrInput, "signature value out of range")
		}
	}
	sig := make([]byte, 0, CompactLength+1)
	sig = append(sig, legacyOffset+recoveryID)
	sig = append(sig, rs[:CompactLength]...)
	pub, _, err := btcec.RecoverCompact(btcec.S256(), sig, hash)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot recover: %s", err)
	}
	return PubKeyAddress(pub), nil
}

// RecoveryID returns the recovery id (0 or 1) for which the r||s
// signature of hash recovers to addr.
func RecoveryID(hash, rs []byte, addr blendsafe.Address) (byte, error) {
	for id := byte(0); id < 2; id++ {
		got, err := RecoverAddress(hash, rs, id)
		if err == nil && got.Equals(addr) {
			return id, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrInput, "signature does not recover to %s", addr)
}

// VerifyAddress returns true if the signature of hash, in any supported
// convention, was created by the key of addr. Malformed signatures are
// never valid.
func VerifyAddress(hash, sig []byte, addr blendsafe.Address, chainID uint64) bool {
	if len(addr) != blendsafe.AddressLength {
		return false
	}
	candidates, err := RecoveryCandidates(sig, chainID)
	if err != nil {
		return false
	}
	for _, c := range candidates {
		got, err := RecoverAddress(hash, sig, c.RecoveryID)
		if err == nil && got.Equals(addr) {
			return true
		}
	}
	return false
}
