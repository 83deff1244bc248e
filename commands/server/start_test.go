package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestNewApp(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()

	c := localConfig()
	c.DB.Backend = "memdb"
	c.Auth.Tokens = map[string]blendsafe.Identity{"secret": "alice"}
	c.AppState = blendsafe.Options{
		wallet.GenesisKey: json.RawMessage(`[{"wallet_id": "treasury", "signers": ["alice"], "threshold": 1}]`),
	}

	app, err := NewApp(c, home, log.NewNopLogger())
	require.NoError(t, err)
	defer app.Close()

	srv := httptest.NewServer(app.Handler)
	defer srv.Close()

	body, err := json.Marshal(map[string]blendsafe.HexBytes{"payload": []byte("payload")})
	require.NoError(t, err)
	for _, path := range []string{"/wallets/treasury/propose", "/wallets/treasury/sign"} {
		req, err := http.NewRequest("POST", srv.URL+path, bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	view, err := app.Store.GetWallet(context.Background(), "treasury")
	require.NoError(t, err)
	require.Equal(t, "signed", view.MessageQueue[0].Status)
	ok, err := app.Store.VerifySignature(context.Background(), "treasury", []byte("payload"), view.MessageQueue[0].Signature)
	require.NoError(t, err)
	require.True(t, ok)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "blendsafe_gateway_call_duration_seconds")
}

func TestNewAppPersistence(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()

	c := localConfig()
	c.AppState = blendsafe.Options{
		wallet.GenesisKey: json.RawMessage(`[{"wallet_id": "w", "signers": ["alice"], "threshold": 1}]`),
	}

	app, err := NewApp(c, home, log.NewNopLogger())
	require.NoError(t, err)
	ctx := blendsafe.WithCaller(context.Background(), "alice")
	require.NoError(t, app.Store.Propose(ctx, "w", []byte("payload")))
	addr, err := app.Store.EthAddress(ctx, "w")
	require.NoError(t, err)
	app.Close()

	// Restarting with the same seed and database keeps wallets, requests
	// and addresses.
	app, err = NewApp(c, home, log.NewNopLogger())
	require.NoError(t, err)
	defer app.Close()
	view, err := app.Store.GetWallet(ctx, "w")
	require.NoError(t, err)
	require.Len(t, view.MessageQueue, 1)
	require.Equal(t, addr, view.Address)

	sig, err := app.Store.Sign(ctx, "w", []byte("payload"))
	require.NoError(t, err)
	recovered, err := crypto.RecoverAddress(crypto.Keccak256([]byte("payload")), sig[:crypto.CompactLength], sig[crypto.CompactLength])
	require.NoError(t, err)
	require.Equal(t, addr, recovered)
}

func TestNewAppInvalidLogLevel(t *testing.T) {
	c := localConfig()
	c.DB.Backend = "memdb"
	c.LogLevel = "chatty"
	_, err := NewApp(c, "", log.NewNopLogger())
	require.Error(t, err)
}

func TestNewAppInvalidGenesis(t *testing.T) {
	c := localConfig()
	c.DB.Backend = "memdb"
	c.AppState = blendsafe.Options{
		wallet.GenesisKey: json.RawMessage(`[{"wallet_id": "w", "signers": [], "threshold": 1}]`),
	}
	_, err := NewApp(c, "", log.NewNopLogger())
	require.Error(t, err)
	require.Error(t, ValidateGenesis(&wallet.Initializer{}, c))
	require.NoError(t, ValidateGenesis(&wallet.Initializer{}, localConfig()))
}
