package collection

// Iterator walks a CompositeList lazily. Call Next before each Value.
type Iterator[T any] struct {
	lists *CompositeList[T]
	list  int // constituent being visited, -1 before the first Next
	pos   int // position of the current element inside that constituent
}

// Next advances to the following element, moving on to the next non-empty
// constituent when the current one is exhausted.
func (it *Iterator[T]) Next() bool {
	lists := it.lists.lists
	if it.list < 0 {
		it.list, it.pos = 0, -1
	}
	for it.list < len(lists) {
		if it.pos+1 < lists[it.list].Len() {
			it.pos++
			return true
		}
		it.list++
		it.pos = -1
	}
	return false
}

// Value returns the current element, or the zero value when the iterator is
// not positioned on one.
func (it *Iterator[T]) Value() T {
	lists := it.lists.lists
	if it.list < 0 || it.list >= len(lists) || it.pos < 0 || it.pos >= lists[it.list].Len() {
		var zero T
		return zero
	}
	return lists[it.list].At(it.pos)
}

// Reset rewinds the iterator to before the first element.
func (it *Iterator[T]) Reset() {
	it.list = -1
	it.pos = -1
}
