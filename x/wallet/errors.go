package wallet

import "github.com/iov-one/blendsafe/errors"

// wallet takes codes 1100-1109
var (
	ErrWalletExists      = errors.Register(1100, "wallet already exists")
	ErrWalletNotFound    = errors.Register(1101, "wallet not found")
	ErrInvalidThreshold  = errors.Register(1102, "invalid threshold")
	ErrNotASigner        = errors.Register(1103, "not a signer")
	ErrRequestNotFound   = errors.Register(1104, "request not found")
	ErrThresholdNotMet   = errors.Register(1105, "threshold not met")
	ErrAlreadySigned     = errors.Register(1106, "already signed")
	ErrSigningInProgress = errors.Register(1107, "signing in progress")
	ErrSigningGateway    = errors.Register(1108, "signing gateway failure")
	ErrInvalidPayload    = errors.Register(1109, "invalid payload")
)

// IsRetryable returns true if the failed operation can be repeated as is.
// This is only the case for signing gateway failures, every other error
// requires a change of input or state first.
func IsRetryable(err error) bool {
	return ErrSigningGateway.Is(err)
}
