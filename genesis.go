package blendsafe

import (
	"encoding/json"

	"github.com/iov-one/blendsafe/errors"
)

// Options are the app state json in the configuration file.
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot parse %q options: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from the app state of the configuration file
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...Initializer) Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []Initializer
}

// FromGenesis passes the options to every initializer in order, stopping
// at the first failure.
func (c chainInitializer) FromGenesis(opts Options, kv KVStore) error {
	for _, in := range c.inits {
		if err := in.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
