package wallet

import (
	"context"
	"time"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Sign requests a signature of the payload from the signing gateway. The
// request must have reached quorum. The returned signature is r||s||v
// with v being the raw recovery id (0 or 1).
//
// A request that is already signed is never signed again: its stored
// signature is returned together with ErrAlreadySigned. If signing fails
// for any reason, including a cancelled context, the request goes back to
// the proposed state and ErrSigningGateway is returned. Such calls can be
// retried.
func (s *Store) Sign(ctx context.Context, id string, payload []byte) (signature []byte, err error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	hash := crypto.Keccak256(payload)

	w, stored, err := s.startSigning(id, hash, caller)
	if err != nil {
		return stored, err
	}
	logger := s.log(ctx).With("wallet", id, "hash", blendsafe.HexBytes(hash))
	logger.Info("signing started", "caller", caller)

	// The request is in the signing state and nothing else can move it
	// out of it, so this must run no matter how the call ends.
	defer func() {
		if r := recover(); r != nil {
			signature = nil
			err = errors.Wrapf(ErrSigningGateway, "panic: %v", r)
		}
		if ferr := s.settleSigning(logger, id, hash, signature); ferr != nil {
			signature = nil
			err = errors.Append(err, ferr)
			return
		}
		if signature == nil {
			logger.Info("signing rolled back", "err", err)
		} else {
			logger.Info("signing finished")
		}
	}()

	addr, err := s.ethAddress(ctx, w)
	if err != nil {
		return nil, err
	}
	rs, err := s.gatewaySign(ctx, w.DerivationPath(), hash)
	if err != nil {
		return nil, err
	}
	recid, err := crypto.RecoveryID(hash, rs, addr)
	if err != nil {
		return nil, errors.Wrap(ErrSigningGateway, err.Error())
	}
	return append(rs, recid), nil
}

// startSigning moves the request into the signing state. For a signed
// request the stored signature is returned with ErrAlreadySigned.
func (s *Store) startSigning(id string, hash []byte, caller blendsafe.Identity) (*Wallet, []byte, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		w      *Wallet
		stored []byte
	)
	err := s.tx(func(db blendsafe.KVStore) error {
		var err error
		w, err = s.loadForSigner(db, id, caller)
		if err != nil {
			return err
		}
		req, err := s.requests.GetRequest(db, id, hash)
		if err != nil {
			return err
		}
		switch req.Status {
		case StatusSigning:
			return errors.Wrap(ErrSigningInProgress, "wait for the running signing to finish")
		case StatusSigned:
			stored = req.Signature
			return errors.Wrap(ErrAlreadySigned, "signature returned")
		}
		if !req.QuorumReached(w.Threshold) {
			return errors.Wrapf(ErrThresholdNotMet, "%d of %d approvals", len(req.Approvals), w.Threshold)
		}
		req.Status = StatusSigning
		return s.requests.PutRequest(db, id, req)
	})
	return w, stored, err
}

// finishSigning stores the signature and marks the request signed. A nil
// signature moves the request back to proposed. It never uses the caller
// context, so a cancelled call still finishes.
func (s *Store) finishSigning(id string, hash, signature []byte) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.tx(func(db blendsafe.KVStore) error {
		req, err := s.requests.GetRequest(db, id, hash)
		if err != nil {
			return err
		}
		if req.Status != StatusSigning {
			return errors.Wrapf(errors.ErrState, "request is %s", req.Status)
		}
		if signature == nil {
			req.Status = StatusProposed
		} else {
			req.Status = StatusSigned
			req.Signature = signature
		}
		return s.requests.PutRequest(db, id, req)
	})
}

const (
	// settleAttempts bounds the writes that move a request out of the
	// signing state before it is left for RecoverInterrupted.
	settleAttempts = 3
	settleBackoff  = 20 * time.Millisecond
)

// settleSigning runs finishSigning, repeating it when the database fails.
// A request that still cannot be written is reported at error level with
// its database key.
func (s *Store) settleSigning(logger log.Logger, id string, hash, signature []byte) error {
	var err error
	for attempt := 1; attempt <= settleAttempts; attempt++ {
		err = s.finishSigning(id, hash, signature)
		if err == nil || !errors.ErrDatabase.Is(err) {
			return err
		}
		logger.Error("cannot finish signing", "attempt", attempt, "err", err)
		if attempt < settleAttempts {
			time.Sleep(time.Duration(attempt) * settleBackoff)
		}
	}
	logger.Error("request left in signing state",
		"key", blendsafe.HexBytes(s.requests.DBKey(RequestKey(id, hash))),
		"signed", signature != nil)
	return err
}

// gatewaySign calls the gateway and returns the r||s part of the
// signature. Every failure is reported as ErrSigningGateway.
func (s *Store) gatewaySign(ctx context.Context, path blendsafe.DerivationPath, hash []byte) (rs []byte, err error) {
	defer asGatewayFailure(&err)
	defer errors.Recover(&err)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrSigningGateway, err.Error())
	}
	sig, err := s.gateway.Sign(ctx, path, hash)
	if err != nil {
		return nil, errors.Wrap(ErrSigningGateway, err.Error())
	}
	if len(sig) < crypto.CompactLength {
		return nil, errors.Wrapf(ErrSigningGateway, "signature of %d bytes", len(sig))
	}
	return append([]byte(nil), sig[:crypto.CompactLength]...), nil
}

// EthAddress returns the address of the wallet. It is resolved through
// the signing gateway on first use and cached afterwards.
func (s *Store) EthAddress(ctx context.Context, id string) (blendsafe.Address, error) {
	unlock := s.locks.Lock(id)
	w, err := s.wallets.GetWallet(s.db, id)
	unlock()
	if err != nil {
		return nil, err
	}
	return s.ethAddress(ctx, w)
}

// ethAddress returns the address of the loaded wallet. The wallet lock
// must not be held.
func (s *Store) ethAddress(ctx context.Context, w *Wallet) (addr blendsafe.Address, err error) {
	if len(w.Address) != 0 {
		return blendsafe.Address(w.Address), nil
	}

	pub, err := s.gatewayPublicKey(ctx, w.DerivationPath())
	if err != nil {
		return nil, err
	}
	addr, err = crypto.EthAddress(pub)
	if err != nil {
		return nil, errors.Wrap(ErrSigningGateway, err.Error())
	}

	unlock := s.locks.Lock(w.ID)
	defer unlock()

	err = s.tx(func(db blendsafe.KVStore) error {
		current, err := s.wallets.GetWallet(db, w.ID)
		if err != nil {
			return err
		}
		// The address is deterministic, whoever stored it first wins.
		if len(current.Address) != 0 {
			addr = current.Address
			return nil
		}
		current.Address = addr
		return s.wallets.Put(db, []byte(current.ID), current)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Debug("address cached", "wallet", w.ID, "address", addr)
	return addr, nil
}

func (s *Store) gatewayPublicKey(ctx context.Context, path blendsafe.DerivationPath) (pub []byte, err error) {
	defer asGatewayFailure(&err)
	defer errors.Recover(&err)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrSigningGateway, err.Error())
	}
	pub, err = s.gateway.PublicKey(ctx, path)
	if err != nil {
		return nil, errors.Wrap(ErrSigningGateway, err.Error())
	}
	return pub, nil
}

// VerifySignature returns true if the signature of the payload was made
// with the wallet key. Malformed signatures are reported as not valid.
func (s *Store) VerifySignature(ctx context.Context, id string, payload, signature []byte) (bool, error) {
	addr, err := s.EthAddress(ctx, id)
	if err != nil {
		return false, err
	}
	return crypto.VerifyAddress(crypto.Keccak256(payload), signature, addr, s.chainID), nil
}

// asGatewayFailure turns a recovered panic of the gateway into a gateway
// failure.
func asGatewayFailure(err *error) {
	if errors.ErrPanic.Is(*err) {
		*err = errors.Wrap(ErrSigningGateway, (*err).Error())
	}
}
