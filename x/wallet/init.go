package wallet

import (
	"fmt"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

// GenesisKey is the app state key holding the initial wallets.
const GenesisKey = "wallet"

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ blendsafe.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial wallets from genesis and save them in the
// database. Wallets that already exist are left untouched, so it is safe
// to run it on every start.
func (*Initializer) FromGenesis(opts blendsafe.Options, kv blendsafe.KVStore) error {
	var wallets []CreateWalletMsg
	if err := opts.ReadOptions(GenesisKey, &wallets); err != nil {
		return err
	}

	bucket := NewWalletBucket()
	for i, msg := range wallets {
		if err := msg.Validate(); err != nil {
			return errors.Field(fmt.Sprintf("%s.%d", GenesisKey, i), err)
		}
		exists, err := bucket.Has(kv, []byte(msg.WalletID))
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		w := NewWallet(msg.WalletID, msg.Signers, msg.Threshold)
		if err := bucket.Put(kv, []byte(w.ID), w); err != nil {
			return errors.Wrapf(err, "cannot save #%d wallet", i)
		}
	}
	return nil
}
