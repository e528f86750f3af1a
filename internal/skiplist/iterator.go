package skiplist

// Iterator is a read-only cursor over a SkipList. Each goroutine must use its
// own Iterator; any number of them may run alongside the single writer.
//
// A new Iterator is not valid until one of the Seek methods is called.
type Iterator[K any] struct {
	list *SkipList[K]
	node *node[K]
}

// NewIterator returns an unpositioned iterator over s.
func (s *SkipList[K]) NewIterator() *Iterator[K] {
	return &Iterator[K]{list: s}
}

// Valid reports whether the iterator is positioned at a key.
func (it *Iterator[K]) Valid() bool {
	return it.node != nil
}

// Key returns the key at the current position. It panics if the iterator
// is not valid.
func (it *Iterator[K]) Key() K {
	it.mustBeValid("Key")
	return it.node.key
}

// Next advances to the following key, invalidating the iterator past the
// last one.
func (it *Iterator[K]) Next() {
	it.mustBeValid("Next")
	it.node = it.node.loadNext(0)
}

// Prev moves to the preceding key, invalidating the iterator before the
// first one. There are no backward links, so this searches from the head.
func (it *Iterator[K]) Prev() {
	it.mustBeValid("Prev")
	it.node = it.list.findLessThan(it.node.key)
	if it.node == it.list.head {
		it.node = nil
	}
}

// Seek positions the iterator at the first key >= target.
func (it *Iterator[K]) Seek(target K) {
	it.node = it.list.findGreaterOrEqual(target, nil)
}

// SeekForPrev positions the iterator at the last key <= target.
func (it *Iterator[K]) SeekForPrev(target K) {
	it.Seek(target)
	if !it.Valid() {
		it.SeekToLast()
		return
	}
	if it.list.cmp(it.node.key, target) > 0 {
		it.Prev()
	}
}

// SeekToFirst positions the iterator at the smallest key.
func (it *Iterator[K]) SeekToFirst() {
	it.node = it.list.head.loadNext(0)
}

// SeekToLast positions the iterator at the largest key.
func (it *Iterator[K]) SeekToLast() {
	it.node = it.list.findLast()
	if it.node == it.list.head {
		it.node = nil
	}
}

func (it *Iterator[K]) mustBeValid(op string) {
	if it.node == nil {
		panic("skiplist: " + op + " called on invalid iterator")
	}
}
