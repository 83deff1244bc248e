package store

import "github.com/iov-one/blendsafe"

// Move references for all storage types into this package
// for shorter names everywhere

type KVStore = blendsafe.KVStore
type ReadOnlyKVStore = blendsafe.ReadOnlyKVStore
type SetDeleter = blendsafe.SetDeleter
type Batch = blendsafe.Batch
type Iterator = blendsafe.Iterator
type IterableKVStore = blendsafe.IterableKVStore
type CacheableKVStore = blendsafe.CacheableKVStore
type KVCacheWrap = blendsafe.KVCacheWrap

// ReadOnlyIterable is what a cache wrap needs from the layer below it.
type ReadOnlyIterable interface {
	ReadOnlyKVStore
	Iterator(start, end []byte) (Iterator, error)
}

// CacheableIterable is a store that can be both iterated and cache wrapped.
// Every store in this package implements it.
type CacheableIterable interface {
	IterableKVStore
	CacheWrap() KVCacheWrap
}
