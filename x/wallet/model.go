package wallet

import (
	"bytes"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/orm"
)

const (
	// WalletBucketName is where the wallets are stored.
	WalletBucketName = "wallet"
	// RequestBucketName is where the pending requests of all wallets are
	// stored.
	RequestBucketName = "request"

	// derivationDomain is the first component of every wallet path.
	derivationDomain = "blendsafe"
)

// Wallet is the persisted state of a wallet. Signers and Threshold never
// change after creation.
type Wallet struct {
	ID        string
	Signers   []string
	Threshold uint32
	// Path selects the key material of the wallet.
	Path [][]byte
	// Address is set once the public key was resolved.
	Address []byte
	// Queue holds the hashes of all proposed payloads, oldest first.
	Queue [][]byte
}

var _ orm.Model = (*Wallet)(nil)

// NewWallet returns a wallet with the derivation path of the given id.
func NewWallet(id string, signers []string, threshold uint32) *Wallet {
	return &Wallet{
		ID:        id,
		Signers:   signers,
		Threshold: threshold,
		Path:      [][]byte{[]byte(derivationDomain), []byte(id)},
	}
}

func (w *Wallet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, w)
}

// Validate ensures the wallet invariants hold.
func (w *Wallet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ID", ValidateWalletID(w.ID))
	errs = errors.AppendField(errs, "Signers", validateSigners(w.Signers, w.Threshold))
	if len(w.Path) == 0 {
		errs = errors.AppendField(errs, "Path", errors.ErrEmpty)
	}
	if len(w.Address) != 0 {
		errs = errors.AppendField(errs, "Address", blendsafe.Address(w.Address).Validate())
	}
	for i, h := range w.Queue {
		if len(h) != crypto.HashLength {
			errs = errors.AppendField(errs, "Queue", errors.Wrapf(errors.ErrModel, "hash %d length %d", i, len(h)))
		}
	}
	return errs
}

// IsSigner returns true if the identity is one of the wallet signers.
func (w *Wallet) IsSigner(id blendsafe.Identity) bool {
	return blendsafe.NewIdentitySet(w.Signers).Has(id)
}

// DerivationPath returns a copy of the wallet path.
func (w *Wallet) DerivationPath() blendsafe.DerivationPath {
	return blendsafe.DerivationPath(w.Path).Copy()
}

// Enqueue appends the hash to the queue unless it is already present.
func (w *Wallet) Enqueue(hash []byte) bool {
	for _, h := range w.Queue {
		if bytes.Equal(h, hash) {
			return false
		}
	}
	w.Queue = append(w.Queue, hash)
	return true
}

// RequestStatus is the state of a pending request.
type RequestStatus uint32

const (
	// StatusProposed requests collect approvals.
	StatusProposed RequestStatus = iota + 1
	// StatusSigning requests wait for the signing gateway. Approvals are
	// frozen.
	StatusSigning
	// StatusSigned requests carry a signature. This state is final.
	StatusSigned
)

func (s RequestStatus) String() string {
	switch s {
	case StatusProposed:
		return "proposed"
	case StatusSigning:
		return "signing"
	case StatusSigned:
		return "signed"
	default:
		return "unknown"
	}
}

// Validate returns an error for unknown states.
func (s RequestStatus) Validate() error {
	switch s {
	case StatusProposed, StatusSigning, StatusSigned:
		return nil
	default:
		return errors.Wrapf(errors.ErrState, "unknown status %d", s)
	}
}

// PendingRequest is a payload proposed for signing by a wallet.
type PendingRequest struct {
	Payload   []byte
	Approvals []string
	Status    RequestStatus
	Signature []byte
	Metadata  string
}

var _ orm.Model = (*PendingRequest)(nil)

func (r *PendingRequest) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(r)
}

func (r *PendingRequest) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, r)
}

// Validate ensures the request invariants hold.
func (r *PendingRequest) Validate() error {
	var errs error
	if len(r.Payload) == 0 {
		errs = errors.AppendField(errs, "Payload", errors.ErrEmpty)
	}
	if len(r.Approvals) == 0 {
		errs = errors.AppendField(errs, "Approvals", errors.ErrEmpty)
	} else if dup, ok := blendsafe.NewIdentitySet(r.Approvals).Duplicate(); ok {
		errs = errors.AppendField(errs, "Approvals", errors.Wrapf(errors.ErrDuplicate, "%q", dup))
	}
	errs = errors.AppendField(errs, "Status", r.Status.Validate())
	switch {
	case r.Status == StatusSigned && len(r.Signature) == 0:
		errs = errors.AppendField(errs, "Signature", errors.Wrap(errors.ErrEmpty, "signed request"))
	case r.Status != StatusSigned && len(r.Signature) != 0:
		errs = errors.AppendField(errs, "Signature", errors.Wrap(errors.ErrState, "request not signed"))
	}
	if len(r.Metadata) > MaxMetadataLength {
		errs = errors.AppendField(errs, "Metadata", errors.Wrapf(errors.ErrInput, "longer than %d", MaxMetadataLength))
	}
	return errs
}

// Approve adds the identity to the approvals. It returns false if the
// identity already approved.
func (r *PendingRequest) Approve(id blendsafe.Identity) bool {
	set, added := blendsafe.NewIdentitySet(r.Approvals).Add(id)
	r.Approvals = set.Strings()
	return added
}

// QuorumReached returns true if the request has enough approvals.
func (r *PendingRequest) QuorumReached(threshold uint32) bool {
	return uint32(len(r.Approvals)) >= threshold
}

// WalletBucket stores wallets by id.
type WalletBucket struct {
	orm.ModelBucket
}

// NewWalletBucket returns a bucket for wallets.
func NewWalletBucket() WalletBucket {
	return WalletBucket{
		ModelBucket: orm.NewModelBucket(WalletBucketName, func() orm.Model { return &Wallet{} }),
	}
}

// GetWallet returns the wallet or ErrWalletNotFound.
func (b WalletBucket) GetWallet(db blendsafe.ReadOnlyKVStore, id string) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, []byte(id), &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrWalletNotFound, "%q", id)
	default:
		return nil, err
	}
}

// RequestBucket stores the requests of all wallets. The key of a request
// is the wallet id and the payload hash.
type RequestBucket struct {
	orm.ModelBucket
}

// NewRequestBucket returns a bucket for pending requests.
func NewRequestBucket() RequestBucket {
	return RequestBucket{
		ModelBucket: orm.NewModelBucket(RequestBucketName, func() orm.Model { return &PendingRequest{} }),
	}
}

// RequestKey returns the key of the request of the payload hash. Wallet
// ids are printable, so the zero byte separator is never ambiguous.
func RequestKey(walletID string, hash []byte) []byte {
	key := make([]byte, 0, len(walletID)+1+len(hash))
	key = append(key, walletID...)
	key = append(key, 0)
	return append(key, hash...)
}

// SplitRequestKey is the reverse of RequestKey.
func SplitRequestKey(key []byte) (string, []byte, error) {
	i := bytes.IndexByte(key, 0)
	if i < 0 || len(key)-i-1 != crypto.HashLength {
		return "", nil, errors.Wrapf(errors.ErrInput, "malformed request key %q", key)
	}
	return string(key[:i]), key[i+1:], nil
}

// GetRequest returns the request or ErrRequestNotFound.
func (b RequestBucket) GetRequest(db blendsafe.ReadOnlyKVStore, walletID string, hash []byte) (*PendingRequest, error) {
	var r PendingRequest
	switch err := b.One(db, RequestKey(walletID, hash), &r); {
	case err == nil:
		return &r, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrRequestNotFound, "%x", hash)
	default:
		return nil, err
	}
}

// PutRequest saves the request under its payload hash.
func (b RequestBucket) PutRequest(db blendsafe.KVStore, walletID string, r *PendingRequest) error {
	return b.Put(db, RequestKey(walletID, crypto.Keccak256(r.Payload)), r)
}
