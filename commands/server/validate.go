package server

import (
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/store"
)

// ValidateGenesis loads the app state of the configuration into an empty
// store and returns the first problem found.
func ValidateGenesis(ini blendsafe.Initializer, c Config) error {
	// Use in memory store because we want to discard the result.
	db := store.MemStore()

	if err := ini.FromGenesis(c.AppState, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}

// ValidateCmd checks the configuration file of the home directory.
func ValidateCmd(ini blendsafe.Initializer, home string, args []string) error {
	c, err := LoadConfig(home)
	if err != nil {
		return err
	}
	return ValidateGenesis(ini, c)
}
