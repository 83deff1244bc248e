package wallet

import (
	"unicode"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

const (
	// MaxWalletIDLength is the longest wallet id accepted.
	MaxWalletIDLength = 64

	// DefaultMaxPayload is the largest payload that can be proposed,
	// unless configured otherwise.
	DefaultMaxPayload = 64 * 1024

	// MaxMetadataLength is the longest metadata text of a request.
	MaxMetadataLength = 1024

	// To avoid burning CPU, this is the maximum number of signers
	// allowed to be part of a single wallet.
	maxSignersAllowed = 100
)

// CreateWalletMsg describes a new wallet.
type CreateWalletMsg struct {
	WalletID  string   `json:"wallet_id"`
	Signers   []string `json:"signers"`
	Threshold uint32   `json:"threshold"`
}

// Validate enforces signers and threshold boundaries.
func (m *CreateWalletMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "WalletID", ValidateWalletID(m.WalletID))
	errs = errors.AppendField(errs, "Signers", validateSigners(m.Signers, m.Threshold))
	return errs
}

// ValidateWalletID returns an error if the id cannot be used for a wallet.
func ValidateWalletID(id string) error {
	switch n := len(id); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "wallet id")
	case n > MaxWalletIDLength:
		return errors.Wrapf(errors.ErrInput, "wallet id longer than %d", MaxWalletIDLength)
	}
	for _, r := range id {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return errors.Wrap(errors.ErrInput, "wallet id must be printable without spaces")
		}
	}
	return nil
}

// validateSigners returns an error if the signers and threshold
// configuration is not valid. This check is done on model and messages so
// instead of copying the code it is extracted into this function.
func validateSigners(signers []string, threshold uint32) error {
	switch n := len(signers); {
	case n == 0:
		return errors.Wrap(ErrInvalidThreshold, "no signers")
	case n > maxSignersAllowed:
		return errors.Wrapf(errors.ErrInput, "more than %d signers", maxSignersAllowed)
	}
	set := blendsafe.NewIdentitySet(signers)
	for _, s := range set {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "signer %q", s)
		}
	}
	if dup, ok := set.Duplicate(); ok {
		return errors.Wrapf(ErrInvalidThreshold, "duplicate signer %q", dup)
	}
	if threshold < 1 || int(threshold) > len(signers) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d for %d signers", threshold, len(signers))
	}
	return nil
}

// validatePayload returns ErrInvalidPayload for an empty or too large
// payload.
func validatePayload(payload []byte, max int) error {
	switch n := len(payload); {
	case n == 0:
		return errors.Wrap(ErrInvalidPayload, "empty")
	case n > max:
		return errors.Wrapf(ErrInvalidPayload, "%d bytes, max %d", n, max)
	}
	return nil
}
