package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/tendermint/tendermint/libs/log"
)

// Config holds everything the HTTP handler needs.
type Config struct {
	Store *wallet.Store
	// Auth identifies callers. Without it every request is anonymous.
	Auth   Authenticator
	Logger log.Logger
	// Registry receives the request metrics and is served on /metrics.
	// A new registry is created if nil.
	Registry *prometheus.Registry
	// CORSOrigins lists the origins allowed to call the API from a
	// browser. Empty disables CORS headers.
	CORSOrigins []string
	// Debug exposes details of internal errors to clients.
	Debug bool
	// MaxPayload is the largest payload in bytes, used to limit request
	// bodies. Zero uses the limit of the store.
	MaxPayload int
}

// NewHandler returns the HTTP handler serving the wallet API.
func NewHandler(c Config) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	reg := c.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	maxPayload := c.MaxPayload
	if maxPayload <= 0 {
		maxPayload = c.Store.MaxPayload()
	}
	h := &walletHandler{
		store:   c.Store,
		logger:  logger,
		debug:   c.Debug,
		maxBody: maxBodySize(maxPayload),
	}

	rt := mux.NewRouter()
	rt.HandleFunc("/info", infoHandler).Methods("GET")
	rt.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	rt.HandleFunc("/wallets", requireCaller(h.createWallet)).Methods("POST")
	rt.HandleFunc("/wallets/{id}", h.getWallet).Methods("GET")
	rt.HandleFunc("/wallets/{id}/eth_address", h.ethAddress).Methods("GET")
	rt.HandleFunc("/wallets/{id}/propose", requireCaller(h.propose)).Methods("POST")
	rt.HandleFunc("/wallets/{id}/approve", requireCaller(h.approve)).Methods("POST")
	rt.HandleFunc("/wallets/{id}/sign", requireCaller(h.sign)).Methods("POST")
	rt.HandleFunc("/wallets/{id}/verify", h.verify).Methods("POST")
	rt.HandleFunc("/wallets/{id}/can_sign", h.canSign).Methods("GET")
	rt.HandleFunc("/wallets/{id}/messages_to_sign", h.messagesToSign).Methods("GET")
	rt.HandleFunc("/wallets/{id}/metadata", requireCaller(h.addMetadata)).Methods("POST")
	rt.HandleFunc("/wallets/{id}/metadata", requireCaller(h.metadata)).Methods("GET")

	rt.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONErr(w, http.StatusNotFound, errors.ErrNotFound.Code(), "path not found")
	})
	rt.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONErr(w, http.StatusMethodNotAllowed, errors.ErrInput.Code(), "method not allowed")
	})
	rt.Use(newRequestMetrics(reg).middleware)

	var handler http.Handler = withCaller(c.Auth, rt)
	if len(c.CORSOrigins) != 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: c.CORSOrigins,
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler(handler)
	}
	return handler
}
