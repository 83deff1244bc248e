package store

import (
	"github.com/iov-one/blendsafe/errors"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DBStore adapts a tendermint database to the KVStore interfaces. All cache
// wraps created from it are written back in a single synced batch, so a
// committed operation is durable once Write returns.
type DBStore struct {
	db dbm.DB
}

var _ CacheableIterable = (*DBStore)(nil)

// NewDBStore wraps an open database.
func NewDBStore(db dbm.DB) *DBStore {
	return &DBStore{db: db}
}

// MemStore returns a store without persistence. Useful for tests and for
// the "memdb" backend.
func MemStore() *DBStore {
	return NewDBStore(dbm.NewMemDB())
}

// NewGoLevelDBStore opens (or creates) a goleveldb database called name
// inside of the dir directory.
func NewGoLevelDBStore(name, dir string) (*DBStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s in %s: %s", name, dir, err)
	}
	return NewDBStore(db), nil
}

// Open returns a store for the given backend name. Supported backends are
// "memdb" and "goleveldb".
func Open(backend, name, dir string) (*DBStore, error) {
	switch backend {
	case "", "goleveldb":
		return NewGoLevelDBStore(name, dir)
	case "memdb":
		return MemStore(), nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown database backend %q", backend)
	}
}

// Get returns nil if the key does not exist.
func (s *DBStore) Get(key []byte) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return s.db.Get(key), nil
}

// Has returns true if the key is present.
func (s *DBStore) Has(key []byte) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	return s.db.Has(key), nil
}

// Set writes directly to the database without syncing.
func (s *DBStore) Set(key, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.db.Set(key, value)
	return nil
}

// Delete removes the key from the database without syncing.
func (s *DBStore) Delete(key []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.db.Delete(key)
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s *DBStore) Iterator(start, end []byte) (Iterator, error) {
	return s.db.Iterator(start, end), nil
}

// NewBatch returns a batch that is synced to disk on Write.
func (s *DBStore) NewBatch() Batch {
	return &dbBatch{b: s.db.NewBatch()}
}

// CacheWrap returns a BTreeCacheWrap that can be later
// written to this store, or rolled back
func (s *DBStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Close releases the database.
func (s *DBStore) Close() {
	s.db.Close()
}

type dbBatch struct {
	b dbm.Batch
}

var _ Batch = (*dbBatch)(nil)

func (b *dbBatch) Set(key, value []byte) error {
	b.b.Set(key, value)
	return nil
}

func (b *dbBatch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *dbBatch) Write() error {
	b.b.WriteSync()
	return nil
}
