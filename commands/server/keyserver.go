package server

import (
	"flag"
	"net/http"

	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

const flagBind = "bind"

// KeyServerCmd runs the local key service of the configuration as a
// remote signing gateway, so that API instances configured with a remote
// gateway can use it.
func KeyServerCmd(logger log.Logger, home string, args []string) error {
	fs := flag.NewFlagSet("keyserver", flag.ContinueOnError)
	bind := fs.String(flagBind, ":8100", "address the key service listens on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := LoadConfig(home)
	if err != nil {
		return err
	}
	h, err := NewKeyServerHandler(c, logger)
	if err != nil {
		return err
	}
	logger.Info("Starting key service", "bind", *bind, "key", gateway.KeyNameForEnv(c.Env))
	return serve(logger, &http.Server{Addr: *bind, Handler: h})
}

// NewKeyServerHandler returns the HTTP handler of the key service. It
// requires a configuration with a local gateway.
func NewKeyServerHandler(c Config, logger log.Logger) (http.Handler, error) {
	if c.Gateway.Kind != "local" {
		return nil, errors.Wrap(errors.ErrInput, "key service requires a local gateway with a seed")
	}
	logger, err := filterLogger(logger, c.LogLevel)
	if err != nil {
		return nil, err
	}
	keyName := gateway.KeyNameForEnv(c.Env)
	hd, err := gateway.NewHDGateway(c.Gateway.Seed, keyName)
	if err != nil {
		return nil, err
	}
	gw := gateway.Instrument(hd, logger.With("module", "keyserver"), gateway.NewMetrics(prometheus.DefaultRegisterer))
	return gateway.NewHTTPHandler(gw, keyName), nil
}
