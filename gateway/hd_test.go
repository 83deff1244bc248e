package gateway

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
	"github.com/stretchr/testify/require"
)

var testSeed = bytes.Repeat([]byte{0x42}, 32)

func TestHDGatewayDerivation(t *testing.T) {
	ctx := context.Background()
	gw, err := NewHDGateway(testSeed, LocalKeyName)
	require.NoError(t, err)

	p1 := blendsafe.DerivationPath{[]byte("blendsafe"), []byte("w1")}
	p2 := blendsafe.DerivationPath{[]byte("blendsafe"), []byte("w2")}

	a, err := gw.PublicKey(ctx, p1)
	require.NoError(t, err)
	b, err := gw.PublicKey(ctx, p1)
	require.NoError(t, err)
	require.Equal(t, a, b, "same path must give the same key")

	c, err := gw.PublicKey(ctx, p2)
	require.NoError(t, err)
	require.NotEqual(t, a, c, "paths must give different keys")

	// another instance from the same seed knows the same keys
	gw2, err := NewHDGateway(testSeed, LocalKeyName)
	require.NoError(t, err)
	a2, err := gw2.PublicKey(ctx, p1)
	require.NoError(t, err)
	require.Equal(t, a, a2)

	// the key name selects unrelated keys
	other, err := NewHDGateway(testSeed, ProductionKeyName)
	require.NoError(t, err)
	d, err := other.PublicKey(ctx, p1)
	require.NoError(t, err)
	require.NotEqual(t, a, d)
}

func TestHDGatewaySign(t *testing.T) {
	ctx := context.Background()
	gw, err := NewHDGateway(testSeed, TestKeyName)
	require.NoError(t, err)

	path := blendsafe.DerivationPath{[]byte("blendsafe"), []byte("w1")}
	pub, err := gw.PublicKey(ctx, path)
	require.NoError(t, err)
	addr, err := crypto.EthAddress(pub)
	require.NoError(t, err)

	hash := crypto.Keccak256([]byte("pay bob"))
	sig, err := gw.Sign(ctx, path, hash)
	require.NoError(t, err)
	require.Len(t, sig, crypto.CompactLength)
	require.True(t, crypto.VerifyAddress(hash, sig, addr, 0))

	_, err = gw.Sign(ctx, path, []byte("not a hash"))
	require.True(t, errors.ErrInput.Is(err))

	_, err = gw.Sign(ctx, nil, hash)
	require.True(t, errors.ErrEmpty.Is(err))
}

func TestHDGatewayCancelled(t *testing.T) {
	gw, err := NewHDGateway(testSeed, TestKeyName)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gw.Sign(ctx, blendsafe.DerivationPath{[]byte("x")}, make([]byte, 32))
	require.True(t, errors.ErrNetwork.Is(err))
}

func TestNewHDGatewayInvalidSeed(t *testing.T) {
	_, err := NewHDGateway([]byte("short"), TestKeyName)
	require.True(t, errors.ErrInput.Is(err))

	seed, err := GenerateSeed()
	require.NoError(t, err)
	_, err = NewHDGateway(seed, TestKeyName)
	require.NoError(t, err)
}

func TestKeyNameForEnv(t *testing.T) {
	cases := map[string]string{
		"production": "key_1",
		"test":       "test_key_1",
		"local":      "dfx_test_key",
		"":           "dfx_test_key",
	}
	for env, want := range cases {
		if got := KeyNameForEnv(env); got != want {
			t.Errorf("%q: want %q, got %q", env, want, got)
		}
	}
}
