package blendsafetest

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/gateway"
	"github.com/stretchr/testify/mock"
)

// Gateway is a signing gateway with real keys that counts calls and lets
// tests intercept them.
type Gateway struct {
	hd *gateway.HDGateway

	mu        sync.Mutex
	pubCalls  int
	signCalls int

	// BeforePublicKey, if set, is called before a public key is
	// returned. A returned error is returned by PublicKey.
	BeforePublicKey func(ctx context.Context) error

	// BeforeSign, if set, is called before a signature is made. Use it
	// to block the call or to make it fail.
	BeforeSign func(ctx context.Context) error

	// AfterSign, if set, can replace the signature that is returned.
	AfterSign func(sig []byte) []byte
}

var _ blendsafe.SigningGateway = (*Gateway)(nil)

// NewGateway returns a gateway with deterministic keys.
func NewGateway(t testing.TB) *Gateway {
	t.Helper()
	hd, err := gateway.NewHDGateway(bytes.Repeat([]byte{7}, 32), gateway.LocalKeyName)
	if err != nil {
		t.Fatalf("cannot create gateway: %s", err)
	}
	return &Gateway{hd: hd}
}

// PublicKey implements blendsafe.SigningGateway.
func (g *Gateway) PublicKey(ctx context.Context, path blendsafe.DerivationPath) ([]byte, error) {
	g.mu.Lock()
	g.pubCalls++
	hook := g.BeforePublicKey
	g.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	return g.hd.PublicKey(ctx, path)
}

// Sign implements blendsafe.SigningGateway.
func (g *Gateway) Sign(ctx context.Context, path blendsafe.DerivationPath, hash []byte) ([]byte, error) {
	g.mu.Lock()
	g.signCalls++
	before, after := g.BeforeSign, g.AfterSign
	g.mu.Unlock()

	if before != nil {
		if err := before(ctx); err != nil {
			return nil, err
		}
	}
	sig, err := g.hd.Sign(ctx, path, hash)
	if err != nil {
		return nil, err
	}
	if after != nil {
		sig = after(sig)
	}
	return sig, nil
}

// PublicKeyCalls returns how many times PublicKey was called.
func (g *Gateway) PublicKeyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pubCalls
}

// SignCalls returns how many times Sign was called.
func (g *Gateway) SignCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signCalls
}

// MockGateway is a testify mock of the signing gateway.
type MockGateway struct {
	mock.Mock
}

var _ blendsafe.SigningGateway = (*MockGateway)(nil)

func (m *MockGateway) PublicKey(ctx context.Context, path blendsafe.DerivationPath) ([]byte, error) {
	args := m.Called(ctx, path)
	pub, _ := args.Get(0).([]byte)
	return pub, args.Error(1)
}

func (m *MockGateway) Sign(ctx context.Context, path blendsafe.DerivationPath, hash []byte) ([]byte, error) {
	args := m.Called(ctx, path, hash)
	sig, _ := args.Get(0).([]byte)
	return sig, args.Error(1)
}
