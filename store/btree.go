package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/blendsafe/errors"
)

// DefaultFreeListSize is the number of btree nodes kept for reuse.
const DefaultFreeListSize = btree.DefaultFreeListSize

// BTreeCacheWrap buffers the writes of one wallet operation. Reads see the
// buffered writes before the store below. Write replays them through the
// batch, so a DBStore commits all of them in one synced batch. Discard
// drops them.
//
// A cache wrap is not safe for concurrent use.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyIterable
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}
var _ CacheableIterable = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over kv that writes into batch. A nil
// free list allocates a new one.
func NewBTreeCacheWrap(kv ReadOnlyIterable, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap returns a nested cache. Its Write lands in this cache, not in
// the database.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, NewNonAtomicBatch(b), b.free)
}

// Write flushes the buffered operations and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard empties the cache without writing.
func (b BTreeCacheWrap) Discard() {
	b.bt.Clear(true)
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	b.bt.ReplaceOrInsert(setItem{bkey{key}, value})
	return b.batch.Set(key, value)
}

// Delete hides the key from reads through this cache. A key that exists
// only below is deleted there on Write.
func (b BTreeCacheWrap) Delete(key []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	b.bt.ReplaceOrInsert(deletedItem{bkey{key}})
	return b.batch.Delete(key)
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	switch value, state, err := b.cached(key); {
	case err != nil:
		return nil, err
	case state == notCached:
		return b.back.Get(key)
	default:
		return value, nil
	}
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	switch _, state, err := b.cached(key); {
	case err != nil:
		return false, err
	case state == notCached:
		return b.back.Has(key)
	default:
		return state == cachedSet, nil
	}
}

// Iterator merges the cached writes over the store below, in ascending key
// order. End is exclusive.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(ascendBtree(b.bt, start, end), parent), nil
}

type cacheState int

const (
	notCached cacheState = iota
	cachedSet
	cachedDelete
)

func (b BTreeCacheWrap) cached(key []byte) ([]byte, cacheState, error) {
	switch it := b.bt.Get(bkey{key}).(type) {
	case nil:
		return nil, notCached, nil
	case setItem:
		return it.value, cachedSet, nil
	case deletedItem:
		return nil, cachedDelete, nil
	default:
		return nil, notCached, errors.Wrapf(errors.ErrDatabase, "unexpected cache entry %T", it)
	}
}

func checkKey(key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrDatabase, "empty key")
	}
	return nil
}

// keyer is implemented by every item of the cache tree.
type keyer interface {
	Key() []byte
}

// bkey orders cache items by key. On its own it is used as a query.
type bkey struct {
	key []byte
}

var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

func (k bkey) Less(item btree.Item) bool {
	return bytes.Compare(k.key, item.(keyer).Key()) < 0
}

// deletedItem marks a key removed in the cache.
type deletedItem struct {
	bkey
}

// setItem holds a value written in the cache.
type setItem struct {
	bkey
	value []byte
}
