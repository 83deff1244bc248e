package orm

import (
	"regexp"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// ModelBucket stores models of a single type under a common key prefix.
type ModelBucket struct {
	name   string
	prefix []byte
	build  func() Model
}

// NewModelBucket returns a bucket for the given name. Bucket names must be
// unique per store. build must return a new, empty instance of the stored
// model and is used when reading from the database.
func NewModelBucket(name string, build func() Model) ModelBucket {
	if !isBucketName(name) {
		panic("illegal bucket name: " + name)
	}
	return ModelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		build:  build,
	}
}

// Name returns the bucket name.
func (b ModelBucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix.
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b ModelBucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	res := make([]byte, l+len(key))
	copy(res, b.prefix)
	copy(res[l:], key)
	return res
}

// One query the database for a single model instance. Lookup is done by
// the primary key. Result is loaded into given destination model.
// This method returns ErrNotFound if the entity does not exist in the
// database.
func (b ModelBucket) One(db blendsafe.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}

// Has returns true if an entity with the given key exists.
func (b ModelBucket) Has(db blendsafe.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot read from the database")
	}
	return ok, nil
}

// Put saves given model in the database. The model is validated first.
func (b ModelBucket) Put(db blendsafe.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot marshal %T: %s", m, err)
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (b ModelBucket) Delete(db blendsafe.KVStore, key []byte) error {
	ok, err := b.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "cannot delete")
	}
	return db.Delete(b.DBKey(key))
}

// Each calls fn for every model whose key starts with the given prefix, in
// key order. The key passed to fn has the bucket prefix stripped.
func (b ModelBucket) Each(db blendsafe.IterableKVStore, prefix []byte, fn ModelIterator) error {
	start := b.DBKey(prefix)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return errors.Wrap(err, "cannot iterate")
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		m := b.build()
		if err := m.Unmarshal(it.Value()); err != nil {
			return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", m, err)
		}
		key := it.Key()[len(b.prefix):]
		if err := fn(key, m); err != nil {
			return err
		}
	}
	return nil
}

// prefixEnd returns the smallest key that is greater than all keys
// starting with the given prefix. A nil value means there is no upper
// bound.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
