package wallet

import (
	"context"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/orm"
	"github.com/iov-one/blendsafe/store"
	"github.com/tendermint/tendermint/libs/log"
)

// Store is the registry of all wallets and the entry point of every wallet
// operation. It is safe for concurrent use.
//
// Operations on the same wallet are serialized. Every operation runs in a
// cache wrap of the database and its changes are written at once when it
// succeeds. The signing gateway is always called with no lock held.
type Store struct {
	db       store.CacheableIterable
	gateway  blendsafe.SigningGateway
	locks    *lockTable
	wallets  WalletBucket
	requests RequestBucket

	logger     log.Logger
	maxPayload int
	chainID    uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for state transitions.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMaxPayload changes the largest payload that can be proposed.
func WithMaxPayload(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPayload = n
		}
	}
}

// WithChainID makes signature verification accept only EIP155 signatures
// of the given chain. Zero accepts any chain.
func WithChainID(id uint64) Option {
	return func(s *Store) {
		s.chainID = id
	}
}

// NewStore returns a store that keeps wallets in db and signs with gw.
// The database must be safe for concurrent use.
func NewStore(db store.CacheableIterable, gw blendsafe.SigningGateway, opts ...Option) *Store {
	s := &Store{
		db:         db,
		gateway:    gw,
		locks:      newLockTable(),
		wallets:    NewWalletBucket(),
		requests:   NewRequestBucket(),
		logger:     log.NewNopLogger(),
		maxPayload: DefaultMaxPayload,
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// MaxPayload returns the largest payload in bytes that can be proposed.
func (s *Store) MaxPayload() int {
	return s.maxPayload
}

// tx runs fn on a cache wrap of the database. Changes are written only if
// fn succeeds.
func (s *Store) tx(fn func(db blendsafe.KVStore) error) error {
	cache := s.db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (s *Store) log(ctx context.Context) log.Logger {
	l := blendsafe.GetLogger(ctx)
	if l == blendsafe.DefaultLogger {
		return s.logger
	}
	return l
}

// callerOf returns the authenticated identity of the request.
func callerOf(ctx context.Context) (blendsafe.Identity, error) {
	caller, ok := blendsafe.GetCaller(ctx)
	if !ok {
		return "", errors.Wrap(errors.ErrUnauthorized, "no caller")
	}
	return caller, nil
}

// CreateWallet registers a new wallet. An id that is taken always yields
// ErrWalletExists, whatever the other arguments are.
func (s *Store) CreateWallet(ctx context.Context, msg *CreateWalletMsg) error {
	unlock := s.locks.Lock(msg.WalletID)
	defer unlock()

	err := s.tx(func(db blendsafe.KVStore) error {
		if exists, err := s.wallets.Has(db, []byte(msg.WalletID)); err != nil {
			return err
		} else if exists {
			return errors.Wrapf(ErrWalletExists, "%q", msg.WalletID)
		}
		if err := msg.Validate(); err != nil {
			return err
		}
		w := NewWallet(msg.WalletID, msg.Signers, msg.Threshold)
		return s.wallets.Put(db, []byte(w.ID), w)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("wallet created", "wallet", msg.WalletID, "signers", len(msg.Signers), "threshold", msg.Threshold)
	return nil
}

// GetWallet returns a snapshot of the wallet. Both values are nil if the
// wallet does not exist.
func (s *Store) GetWallet(ctx context.Context, id string) (*WalletView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	w, err := s.wallets.GetWallet(s.db, id)
	switch {
	case ErrWalletNotFound.Is(err):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return s.view(s.db, w)
}

// loadForSigner loads the wallet and ensures the caller is one of its
// signers.
func (s *Store) loadForSigner(db blendsafe.ReadOnlyKVStore, id string, caller blendsafe.Identity) (*Wallet, error) {
	w, err := s.wallets.GetWallet(db, id)
	if err != nil {
		return nil, err
	}
	if !w.IsSigner(caller) {
		return nil, errors.Wrapf(ErrNotASigner, "%q", caller)
	}
	return w, nil
}

// Propose creates a request for the payload, approved by the caller. If
// the payload was already proposed nothing changes.
func (s *Store) Propose(ctx context.Context, id string, payload []byte) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}
	hash := crypto.Keccak256(payload)

	unlock := s.locks.Lock(id)
	defer unlock()

	created := false
	err = s.tx(func(db blendsafe.KVStore) error {
		w, err := s.loadForSigner(db, id, caller)
		if err != nil {
			return err
		}
		if err := validatePayload(payload, s.maxPayload); err != nil {
			return err
		}
		if ok, err := s.requests.Has(db, RequestKey(id, hash)); err != nil || ok {
			return err
		}
		req := &PendingRequest{
			Payload:   payload,
			Approvals: []string{string(caller)},
			Status:    StatusProposed,
		}
		if err := s.requests.PutRequest(db, id, req); err != nil {
			return err
		}
		w.Enqueue(hash)
		created = true
		return s.wallets.Put(db, []byte(id), w)
	})
	if err != nil {
		return err
	}
	if created {
		s.log(ctx).Info("request proposed", "wallet", id, "hash", blendsafe.HexBytes(hash), "caller", caller)
	}
	return nil
}

// Approve adds the caller approval to the request of the payload. Approving
// twice is not an error. Requests that are being signed or are signed no
// longer accept approvals.
func (s *Store) Approve(ctx context.Context, id string, payload []byte) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}
	hash := crypto.Keccak256(payload)

	unlock := s.locks.Lock(id)
	defer unlock()

	var approvals int
	err = s.tx(func(db blendsafe.KVStore) error {
		if _, err := s.loadForSigner(db, id, caller); err != nil {
			return err
		}
		req, err := s.requests.GetRequest(db, id, hash)
		if err != nil {
			return err
		}
		if req.Status != StatusProposed {
			return errors.Wrapf(ErrAlreadySigned, "request is %s", req.Status)
		}
		approvals = len(req.Approvals)
		if !req.Approve(caller) {
			return nil
		}
		approvals = len(req.Approvals)
		return s.requests.PutRequest(db, id, req)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("request approved", "wallet", id, "hash", blendsafe.HexBytes(hash), "caller", caller, "approvals", approvals)
	return nil
}

// CanSign returns true if the request of the payload can be signed now.
// Unknown payloads cannot be signed.
func (s *Store) CanSign(ctx context.Context, id string, payload []byte) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	w, err := s.wallets.GetWallet(s.db, id)
	if err != nil {
		return false, err
	}
	req, err := s.requests.GetRequest(s.db, id, crypto.Keccak256(payload))
	switch {
	case ErrRequestNotFound.Is(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return req.Status == StatusProposed && req.QuorumReached(w.Threshold), nil
}

// MessagesToSign returns the payloads of all requests that can be signed
// now, oldest first.
func (s *Store) MessagesToSign(ctx context.Context, id string) ([][]byte, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	w, err := s.wallets.GetWallet(s.db, id)
	if err != nil {
		return nil, err
	}
	res := make([][]byte, 0)
	for _, hash := range w.Queue {
		req, err := s.requests.GetRequest(s.db, id, hash)
		if err != nil {
			return nil, err
		}
		if req.Status == StatusProposed && req.QuorumReached(w.Threshold) {
			res = append(res, req.Payload)
		}
	}
	return res, nil
}

// AddMetadata attaches a description to the request of the payload. It
// can be set only once.
func (s *Store) AddMetadata(ctx context.Context, id string, payload []byte, text string) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}
	switch n := len(text); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "metadata")
	case n > MaxMetadataLength:
		return errors.Wrapf(errors.ErrInput, "metadata longer than %d", MaxMetadataLength)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	return s.tx(func(db blendsafe.KVStore) error {
		if _, err := s.loadForSigner(db, id, caller); err != nil {
			return err
		}
		req, err := s.requests.GetRequest(db, id, crypto.Keccak256(payload))
		if err != nil {
			return err
		}
		if req.Metadata != "" {
			return errors.Wrap(errors.ErrDuplicate, "metadata already set")
		}
		req.Metadata = text
		return s.requests.PutRequest(db, id, req)
	})
}

// Metadata returns the description of the request of the payload. Only
// signers can read it.
func (s *Store) Metadata(ctx context.Context, id string, payload []byte) (string, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return "", err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.loadForSigner(s.db, id, caller); err != nil {
		return "", err
	}
	req, err := s.requests.GetRequest(s.db, id, crypto.Keccak256(payload))
	if err != nil {
		return "", err
	}
	return req.Metadata, nil
}

// RecoverInterrupted resets every request that was left in the signing
// state, for example by a crash while waiting for the gateway, back to
// proposed. It returns the number of reset requests. Call it before
// serving any requests.
func (s *Store) RecoverInterrupted(ctx context.Context) (int, error) {
	type stuck struct {
		wallet string
		hash   []byte
	}
	var found []stuck
	err := s.requests.Each(s.db, nil, func(key []byte, m orm.Model) error {
		if m.(*PendingRequest).Status != StatusSigning {
			return nil
		}
		id, hash, err := SplitRequestKey(key)
		if err != nil {
			return err
		}
		found = append(found, stuck{wallet: id, hash: append([]byte(nil), hash...)})
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, st := range found {
		if err := s.finishSigning(st.wallet, st.hash, nil); err != nil {
			return 0, err
		}
		s.log(ctx).Info("interrupted signing reset", "wallet", st.wallet, "hash", blendsafe.HexBytes(st.hash))
	}
	return len(found), nil
}
