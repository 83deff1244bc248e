package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type model struct {
	Key   []byte
	Value []byte
}

func pair(k, v []byte) model {
	return model{Key: k, Value: v}
}

// TestBTreeCacheGetSet does basic sanity checks on our cache
//
// Other tests should handle deletes, setting same value,
// iterating over ranges, and general fuzzing
func TestBTreeCacheGetSet(t *testing.T) {
	base := MemStore()

	// make sure the btree is empty at start but returns results
	// that are writen to it
	k, v := []byte("french"), []byte("fry")
	assertGetHas(t, base, k, nil)
	require.NoError(t, base.Set(k, v))
	assertGetHas(t, base, k, v)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assertGetHas(t, cache, k, v)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assertGetHas(t, cache, k2, nil)
	require.NoError(t, cache.Set(k2, v2))
	assertGetHas(t, cache, k2, v2)
	assertGetHas(t, base, k2, nil)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	assertGetHas(t, base, k, v)
	assertGetHas(t, base, k2, v2)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	assertGetHas(t, c2, k, v)
	assertGetHas(t, c2, k2, v2)
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()

	// and commit another
	c3 := base.CacheWrap()
	assertGetHas(t, c3, k, v)
	assertGetHas(t, c3, k2, v2)
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	// make sure it commits proper
	assertGetHas(t, base, k, nil)
	assertGetHas(t, base, k2, v2)
	assertGetHas(t, base, k3, nil)
}

// TestBTreeCacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func TestBTreeCacheConflicts(t *testing.T) {
	// make 10 keys and 20 values....
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []model // Key is what we query, Value is what we expect
		childQueries  []model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{setOp(ks[1], vs[1]), setOp(ks[2], vs[2])},
			childOps:      []Op{setOp(ks[1], vs[11]), setOp(ks[3], vs[7]), delOp(ks[2])},
			parentQueries: []model{pair(ks[1], vs[1]), pair(ks[2], vs[2]), pair(ks[3], nil)},
			childQueries:  []model{pair(ks[1], vs[11]), pair(ks[2], nil), pair(ks[3], vs[7])},
		},
		"delete and set again": {
			parentOps:     []Op{setOp(ks[4], vs[4])},
			childOps:      []Op{delOp(ks[4]), setOp(ks[4], vs[14])},
			parentQueries: []model{pair(ks[4], vs[4])},
			childQueries:  []model{pair(ks[4], vs[14])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent := MemStore().CacheWrap()
			for _, op := range tc.parentOps {
				require.NoError(t, op.Apply(parent))
			}

			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				require.NoError(t, op.Apply(child))
			}

			// now check the parent is unaffected
			for _, q := range tc.parentQueries {
				assertGetHas(t, parent, q.Key, q.Value)
			}
			// the child shows changes
			for _, q := range tc.childQueries {
				assertGetHas(t, child, q.Key, q.Value)
			}

			// write child to parent and make sure it also shows proper data
			require.NoError(t, child.Write())
			for _, q := range tc.childQueries {
				assertGetHas(t, parent, q.Key, q.Value)
			}
		})
	}
}

// TestBTreeCacheBasicIterator makes sure the basic iterator
// works. Includes random deletes, but not nested iterators.
func TestBTreeCacheBasicIterator(t *testing.T) {
	const Size = 50
	const DeleteCount = 20
	const TotalSize = Size + DeleteCount

	models := make([]model, TotalSize)
	for i := 0; i < TotalSize; i++ {
		models[i] = pair(randBytes(8), randBytes(40))
	}

	base := MemStore().CacheWrap().(CacheableIterable)
	for i := 0; i < TotalSize; i++ {
		require.NoError(t, base.Set(models[i].Key, models[i].Value))
	}
	// delete the first chunk
	for i := 0; i < DeleteCount; i++ {
		require.NoError(t, base.Delete(models[i].Key))
	}
	models = models[DeleteCount:]

	// sort all remaining key/value pairs... this is our expected results
	sort.Slice(models, func(i, j int) bool {
		return bytes.Compare(models[i].Key, models[j].Key) < 0
	})

	verifyIterator(t, models, mustIter(t, base, nil, nil))
	verifyIterator(t, models[10:], mustIter(t, base, models[10].Key, nil))
	verifyIterator(t, models[:Size-8], mustIter(t, base, nil, models[Size-8].Key))
	verifyIterator(t, models[17:28], mustIter(t, base, models[17].Key, models[28].Key))
}

// TestBTreeCacheIterator tests iterating over ranges that
// span both the parent store and the cache, combining different
// values, overwrites, and deletes
func TestBTreeCacheIterator(t *testing.T) {
	db := MemStore()
	require.NoError(t, db.Set([]byte("a"), []byte("1")))
	require.NoError(t, db.Set([]byte("c"), []byte("3")))
	require.NoError(t, db.Set([]byte("e"), []byte("5")))

	cache := db.CacheWrap().(CacheableIterable)
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Set([]byte("c"), []byte("33")))
	require.NoError(t, cache.Delete([]byte("e")))
	require.NoError(t, cache.Set([]byte("f"), []byte("6")))

	want := []model{
		pair([]byte("a"), []byte("1")),
		pair([]byte("b"), []byte("2")),
		pair([]byte("c"), []byte("33")),
		pair([]byte("f"), []byte("6")),
	}
	verifyIterator(t, want, mustIter(t, cache, nil, nil))
	verifyIterator(t, want[1:3], mustIter(t, cache, []byte("b"), []byte("d")))

	// the parent is not changed until written
	verifyIterator(t, []model{
		pair([]byte("a"), []byte("1")),
		pair([]byte("c"), []byte("3")),
		pair([]byte("e"), []byte("5")),
	}, mustIter(t, db, nil, nil))

	require.NoError(t, cache.(KVCacheWrap).Write())
	verifyIterator(t, want, mustIter(t, db, nil, nil))
}

func TestNonAtomicBatch(t *testing.T) {
	db := MemStore()
	b := NewNonAtomicBatch(db)
	require.NoError(t, b.Set([]byte("k"), []byte("v")))
	require.NoError(t, b.Delete([]byte("x")))
	assert.Len(t, b.ShowOps(), 2)
	assertGetHas(t, db, []byte("k"), nil)

	require.NoError(t, b.Write())
	assert.Empty(t, b.ShowOps())
	assertGetHas(t, db, []byte("k"), []byte("v"))
}

func assertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, val, got)
	has, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, val != nil, has)
}

func mustIter(t testing.TB, kv IterableKVStore, start, end []byte) Iterator {
	t.Helper()
	it, err := kv.Iterator(start, end)
	require.NoError(t, err)
	return it
}

func verifyIterator(t testing.TB, models []model, iter Iterator) {
	t.Helper()
	for i := 0; i < len(models); i++ {
		require.True(t, iter.Valid(), "%d", i)
		assert.Equal(t, models[i].Key, iter.Key(), "%d", i)
		assert.Equal(t, models[i].Value, iter.Value(), "%d", i)
		iter.Next()
	}
	assert.False(t, iter.Valid())
	iter.Close()
}

func setOp(key, value []byte) Op {
	return Op{kind: setKind, key: key, value: value}
}

func delOp(key []byte) Op {
	return Op{kind: delKind, key: key}
}

// randKeys returns a slice of count keys, all of length
func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(length)
	}
	return res
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	_, _ = rand.Read(res)
	return res
}
