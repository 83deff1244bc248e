package blendsafetest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/store"
)

var identitySeq uint64

// NewIdentity returns a new, unique identity.
func NewIdentity() blendsafe.Identity {
	n := atomic.AddUint64(&identitySeq, 1)
	return blendsafe.Identity(fmt.Sprintf("identity-%d", n))
}

// MemStore returns an empty in memory store.
func MemStore() *store.DBStore {
	return store.MemStore()
}

// CallerCtx returns a context authenticated as the given identity.
func CallerCtx(caller blendsafe.Identity) context.Context {
	return blendsafe.WithCaller(context.Background(), caller)
}
