package orm

import "github.com/iov-one/blendsafe"

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	blendsafe.Persistent
	Validate() error
}

// ModelIterator is called for every model found by ModelBucket.Each.
// Returning an error stops the iteration and the error is passed to the
// caller of Each.
type ModelIterator func(key []byte, m Model) error
