package blendsafe

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/blendsafe/errors"
)

// AddressLength is the length of all addresses. It is the length of an
// Ethereum style account address, the last 20 bytes of a keccak digest.
const AddressLength = 20

// Address is the account address derived from a wallet public key.
type Address []byte

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInput, "address length %d", len(a))
	}
	return nil
}

// String returns a 0x prefixed lowercase hex representation.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return "0x" + hex.EncodeToString(a)
}

// MarshalJSON provides a hex representation for JSON,
// to override the standard base64 []byte encoding
func (a Address) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes a hex encoded address. The 0x prefix is optional
// and an empty string decodes into a nil address.
func ParseAddress(enc string) (Address, error) {
	enc = strings.TrimPrefix(strings.TrimPrefix(enc, "0x"), "0X")
	if len(enc) == 0 {
		return nil, nil
	}
	val, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	addr := Address(val)
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
