package server

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/api"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/gateway"
	"github.com/iov-one/blendsafe/store"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagDebug = "debug"

	// dbName is the name of the database in the data directory.
	dbName = "blendsafe"

	shutdownTimeout = 10 * time.Second
)

// App is a fully wired wallet service.
type App struct {
	Store   *wallet.Store
	Handler http.Handler

	db *store.DBStore
}

// Close releases the database.
func (a *App) Close() {
	a.db.Close()
}

// NewApp opens the database, loads the genesis wallets and wires the
// signing gateway, the wallet store and the HTTP API together. Requests
// left in the signing state by a previous run are reset.
func NewApp(c Config, home string, logger log.Logger) (*App, error) {
	logger, err := filterLogger(logger, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(c.DB.Backend, dbName, c.dbDir(home))
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}

	cache := db.CacheWrap()
	if err := (&wallet.Initializer{}).FromGenesis(c.AppState, cache); err != nil {
		cache.Discard()
		db.Close()
		return nil, errors.Wrap(err, "cannot initialize from genesis")
	}
	if err := cache.Write(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot write genesis")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	gw, err := newGateway(c)
	if err != nil {
		db.Close()
		return nil, err
	}
	gw = gateway.Instrument(gw, logger.With("module", "gateway"), gateway.NewMetrics(reg))

	st := wallet.NewStore(db, gw,
		wallet.WithLogger(logger.With("module", "wallet")),
		wallet.WithMaxPayload(c.MaxPayload),
		wallet.WithChainID(c.ChainID),
	)
	n, err := st.RecoverInterrupted(context.Background())
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot recover interrupted signing")
	}
	if n > 0 {
		logger.Info("Reset interrupted signing", "requests", n)
	}

	auths := []api.Authenticator{api.TokenAuth(c.Auth.Tokens)}
	if c.Auth.Header != "" {
		auths = append(auths, api.HeaderAuth{Header: c.Auth.Header})
	}
	handler := api.NewHandler(api.Config{
		Store:       st,
		Auth:        api.ChainAuth(auths...),
		Logger:      logger.With("module", "api"),
		Registry:    reg,
		CORSOrigins: c.CORSOrigins,
		Debug:       c.Debug,
		MaxPayload:  st.MaxPayload(),
	})
	return &App{Store: st, Handler: handler, db: db}, nil
}

func newGateway(c Config) (blendsafe.SigningGateway, error) {
	keyName := gateway.KeyNameForEnv(c.Env)
	switch c.Gateway.Kind {
	case "local":
		return gateway.NewHDGateway(c.Gateway.Seed, keyName)
	case "remote":
		return gateway.NewHTTPGateway(c.Gateway.URL, keyName, c.gatewayTimeout()), nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown gateway %q", c.Gateway.Kind)
	}
}

// filterLogger limits the logger to the given level. Empty means info.
func filterLogger(logger log.Logger, level string) (log.Logger, error) {
	if level == "" {
		level = "info"
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

// StartCmd loads the configuration of the home directory and serves the
// API until the process is interrupted.
func StartCmd(logger log.Logger, home string, args []string) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	debug := fs.Bool(flagDebug, false, "return internal error details to clients")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := LoadConfig(home)
	if err != nil {
		return err
	}
	if *debug {
		c.Debug = true
	}

	app, err := NewApp(c, home, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("Starting API", "http", c.HTTP, "env", c.Env, "version", blendsafe.Version())
	return serve(logger, &http.Server{Addr: c.HTTP, Handler: app.Handler})
}

// serve runs the server until SIGINT or SIGTERM and then shuts it down,
// letting running requests finish.
func serve(logger log.Logger, srv *http.Server) error {
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-done:
		return errors.Wrap(err, "http server")
	case s := <-sig:
		logger.Info("Shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
