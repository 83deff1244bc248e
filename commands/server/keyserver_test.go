package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/blendsafetest/assert"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/gateway"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestKeyServerBacksRemoteGateway(t *testing.T) {
	keys := localConfig()
	keys.Env = "test"
	h, err := NewKeyServerHandler(keys, log.NewNopLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	home, cleanup := tempHome(t)
	defer cleanup()
	c := DefaultConfig()
	c.Env = "test"
	c.DB.Backend = "memdb"
	c.Gateway = GatewayConfig{Kind: "remote", URL: srv.URL, Timeout: "5s"}
	c.AppState = blendsafe.Options{}
	require.NoError(t, c.Validate())

	app, err := NewApp(c, home, log.NewNopLogger())
	require.NoError(t, err)
	defer app.Close()

	ctx := blendsafe.WithCaller(context.Background(), "alice")
	require.NoError(t, app.Store.CreateWallet(ctx, &wallet.CreateWalletMsg{
		WalletID: "w", Signers: []string{"alice"}, Threshold: 1,
	}))
	require.NoError(t, app.Store.Propose(ctx, "w", []byte("payload")))
	sig, err := app.Store.Sign(ctx, "w", []byte("payload"))
	require.NoError(t, err)

	// The remote key is the same as the one of a local gateway with the
	// same seed and environment.
	local, err := gateway.NewHDGateway(keys.Gateway.Seed, gateway.TestKeyName)
	require.NoError(t, err)
	pub, err := local.PublicKey(context.Background(), wallet.NewWallet("w", []string{"alice"}, 1).DerivationPath())
	require.NoError(t, err)
	want, err := crypto.EthAddress(pub)
	require.NoError(t, err)
	require.True(t, crypto.VerifyAddress(crypto.Keccak256([]byte("payload")), sig, want, 0))

	// Another environment uses another key.
	other := gateway.NewHTTPGateway(srv.URL, gateway.ProductionKeyName, time.Second)
	_, err = other.PublicKey(context.Background(), blendsafe.DerivationPath{[]byte("x")})
	assert.IsErr(t, errors.ErrNetwork, err)
}

func TestKeyServerRequiresLocalGateway(t *testing.T) {
	c := DefaultConfig()
	c.Gateway = GatewayConfig{Kind: "remote", URL: "http://localhost:1"}
	_, err := NewKeyServerHandler(c, log.NewNopLogger())
	assert.IsErr(t, errors.ErrInput, err)
}
