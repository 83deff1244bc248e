package blendsafe

import (
	"strings"
	"unicode"

	"github.com/iov-one/blendsafe/errors"
)

// MaxIdentityLength is the longest signer identifier accepted.
const MaxIdentityLength = 128

// Identity is an opaque, globally unique signer identifier. It is issued
// outside of this system (for example a principal or an account handle)
// and never changes.
type Identity string

// Validate returns an error if the identity cannot be used as a signer.
func (i Identity) Validate() error {
	switch n := len(i); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "identity")
	case n > MaxIdentityLength:
		return errors.Wrapf(errors.ErrInput, "identity longer than %d characters", MaxIdentityLength)
	}
	if strings.TrimSpace(string(i)) != string(i) {
		return errors.Wrap(errors.ErrInput, "identity must not be surrounded by whitespace")
	}
	for _, r := range string(i) {
		if !unicode.IsPrint(r) {
			return errors.Wrap(errors.ErrInput, "identity contains non printable characters")
		}
	}
	return nil
}

// Equals checks if two identities are the same.
func (i Identity) Equals(o Identity) bool {
	return i == o
}

func (i Identity) String() string {
	return string(i)
}

// IdentitySet is an ordered set of identities. Insertion order is kept so
// that listings are stable.
type IdentitySet []Identity

// Has returns true if given identity is a member of this set.
func (s IdentitySet) Has(id Identity) bool {
	for _, m := range s {
		if m == id {
			return true
		}
	}
	return false
}

// Add returns a set extended with given identity and a flag telling if the
// identity was not present before.
func (s IdentitySet) Add(id Identity) (IdentitySet, bool) {
	if s.Has(id) {
		return s, false
	}
	return append(s, id), true
}

// Duplicate returns the first identity that is present more than once.
func (s IdentitySet) Duplicate() (Identity, bool) {
	seen := make(map[Identity]struct{}, len(s))
	for _, m := range s {
		if _, ok := seen[m]; ok {
			return m, true
		}
		seen[m] = struct{}{}
	}
	return "", false
}

// Strings returns the set as a slice of plain strings.
func (s IdentitySet) Strings() []string {
	res := make([]string, len(s))
	for i, m := range s {
		res[i] = string(m)
	}
	return res
}

// NewIdentitySet converts plain strings into an identity set. No
// deduplication is done.
func NewIdentitySet(ids []string) IdentitySet {
	res := make(IdentitySet, len(ids))
	for i, id := range ids {
		res[i] = Identity(id)
	}
	return res
}
