package server

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/gateway"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagEnv     = "env"
	flagHTTP    = "http"
	flagGateway = "gateway"
	flagURL     = "url"
	flagDB      = "db"
	flagForce   = "force"
)

type initArgs struct {
	env     string
	http    string
	gateway string
	url     string
	db      string
	force   bool
}

func parseInitFlags(args []string) (initArgs, error) {
	var a initArgs
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.StringVar(&a.env, flagEnv, "local", "deployment environment: production, test or local")
	fs.StringVar(&a.http, flagHTTP, ":8000", "address the API listens on")
	fs.StringVar(&a.gateway, flagGateway, "local", "signing gateway: local or remote")
	fs.StringVar(&a.url, flagURL, "", "address of the remote signing gateway")
	fs.StringVar(&a.db, flagDB, "goleveldb", "database backend: goleveldb or memdb")
	fs.BoolVar(&a.force, flagForce, false, "overwrite an existing configuration")
	err := fs.Parse(args)
	return a, err
}

// InitCmd writes a new configuration file into the home directory. A local
// signing gateway gets a freshly generated seed.
func InitCmd(logger log.Logger, home string, args []string) error {
	a, err := parseInitFlags(args)
	if err != nil {
		return err
	}

	path := filepath.Join(home, ConfigFile)
	if _, err := os.Stat(path); err == nil && !a.force {
		return errors.Wrapf(errors.ErrDuplicate, "configuration %s already exists", path)
	}

	c := DefaultConfig()
	c.Env = a.env
	c.HTTP = a.http
	c.DB.Backend = a.db
	c.Gateway.Kind = a.gateway
	c.Gateway.URL = a.url
	if a.gateway == "local" {
		seed, err := gateway.GenerateSeed()
		if err != nil {
			return err
		}
		c.Gateway.Seed = seed
	}
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if err := SaveConfig(home, c); err != nil {
		return err
	}
	logger.Info("Generated configuration", "path", path, "env", c.Env, "gateway", c.Gateway.Kind)
	return nil
}
