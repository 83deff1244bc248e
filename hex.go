package blendsafe

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/blendsafe/errors"
)

// HexBytes is a byte slice that is represented as a lowercase hex string
// in JSON, to override the standard base64 []byte encoding.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func (b *HexBytes) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(err, "parse string")
	}
	val, err := DecodeHex(s)
	if err != nil {
		return err
	}
	*b = val
	return nil
}

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// DecodeHex decodes a hex string, accepting an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	val, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "invalid hex encoding")
	}
	return val, nil
}
