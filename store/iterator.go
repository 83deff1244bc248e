package store

import (
	"bytes"

	"github.com/google/btree"
)

// ascendBtree collects all cached items in [start, end). The snapshot is
// taken at creation, so later writes to the cache are not visible.
func ascendBtree(bt *btree.BTree, start, end []byte) []btree.Item {
	var items []btree.Item
	collect := func(item btree.Item) bool {
		items = append(items, item)
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// mergeIterator joins our results with those of the parent,
// taking into consideration overwrites and deletes.
type mergeIterator struct {
	items  []btree.Item
	idx    int
	parent Iterator
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []btree.Item, parent Iterator) *mergeIterator {
	it := &mergeIterator{items: items, parent: parent}
	it.skipDeleted()
	return it
}

// Valid implements Iterator and returns true iff it can be read
func (i *mergeIterator) Valid() bool {
	return i.firstKey() != none
}

// Next moves the iterator to the next sequential key.
//
// If Valid returns false, this method will panic.
func (i *mergeIterator) Next() {
	switch i.firstKey() {
	case us:
		i.idx++
	case both:
		i.idx++
		i.parent.Next()
	case parent:
		i.parent.Next()
	default:
		panic("advanced past the end")
	}
	i.skipDeleted()
}

// Key returns the key of the cursor.
func (i *mergeIterator) Key() []byte {
	switch i.firstKey() {
	case us, both:
		return i.current().Key()
	case parent:
		return i.parent.Key()
	default:
		panic("advanced past the end")
	}
}

// Value returns the value of the cursor.
func (i *mergeIterator) Value() []byte {
	switch i.firstKey() {
	case us, both:
		return i.current().(setItem).value
	case parent:
		return i.parent.Value()
	default:
		panic("advanced past the end")
	}
}

// Close releases the Iterator.
func (i *mergeIterator) Close() {
	i.parent.Close()
	i.items = nil
}

func (i *mergeIterator) current() keyer {
	return i.items[i.idx].(keyer)
}

func (i *mergeIterator) ownValid() bool {
	return i.idx < len(i.items)
}

// skipDeleted jumps over all deleted entries of the cache, together with
// the parent entries they shadow.
func (i *mergeIterator) skipDeleted() {
	for {
		src := i.firstKey()
		if src != us && src != both {
			return
		}
		if _, ok := i.current().(deletedItem); !ok {
			return
		}
		i.idx++
		if src == both {
			i.parent.Next()
		}
	}
}

// firstKey selects the iterator with the lowest key is any
func (i *mergeIterator) firstKey() source {
	parentValid := i.parent != nil && i.parent.Valid()
	if !parentValid {
		if !i.ownValid() {
			return none
		}
		return us
	} else if !i.ownValid() {
		return parent
	}

	switch cmp := bytes.Compare(i.parent.Key(), i.current().Key()); {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}
