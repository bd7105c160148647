package collection

import (
	"fmt"
	"iter"
	"reflect"
)

// CompositeList presents the concatenation of several backing lists, in the
// order they were attached, as one mutable list. Elements are never copied:
// every operation is routed to the constituent that owns the element.
//
// Index translation is recomputed on every access, so constituents may be
// changed directly by their owners between calls. Changing them during an
// iteration is not supported.
type CompositeList[T any] struct {
	lists     []List[T]
	onAdded   []func(T)
	onRemoved []func(T)
}

// NewCompositeList creates a composite over lists. Nil lists are skipped.
func NewCompositeList[T any](lists ...List[T]) *CompositeList[T] {
	c := &CompositeList[T]{}
	c.AddListRange(lists)
	return c
}

// OnAdded registers fn to be called once for every element that joins the list.
func (c *CompositeList[T]) OnAdded(fn func(item T)) {
	if fn != nil {
		c.onAdded = append(c.onAdded, fn)
	}
}

// OnRemoved registers fn to be called once for every element that leaves the list.
func (c *CompositeList[T]) OnRemoved(fn func(item T)) {
	if fn != nil {
		c.onRemoved = append(c.onRemoved, fn)
	}
}

func (c *CompositeList[T]) itemAdded(item T) {
	for _, fn := range c.onAdded {
		fn(item)
	}
}

func (c *CompositeList[T]) itemRemoved(item T) {
	for _, fn := range c.onRemoved {
		fn(item)
	}
}

// isNil reports whether list is nil, including a nil pointer held in a
// non-nil interface.
func isNil[T any](list List[T]) bool {
	if list == nil {
		return true
	}
	v := reflect.ValueOf(list)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// sameList reports whether a and b are the same constituent. Values of a
// non-comparable type are never the same, since == on them would panic.
func sameList[T any](a, b List[T]) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// AddList attaches list as the last constituent. Nil lists, typed or not,
// are ignored.
func (c *CompositeList[T]) AddList(list List[T]) {
	if isNil(list) {
		return
	}
	c.lists = append(c.lists, list)
	for i := 0; i < list.Len(); i++ {
		c.itemAdded(list.At(i))
	}
}

// RemoveList detaches list, matched by identity. It does nothing if list
// is not attached.
func (c *CompositeList[T]) RemoveList(list List[T]) {
	if isNil(list) {
		return
	}
	for i, l := range c.lists {
		if !sameList(l, list) {
			continue
		}
		c.lists = append(c.lists[:i], c.lists[i+1:]...)
		for j := 0; j < list.Len(); j++ {
			c.itemRemoved(list.At(j))
		}
		return
	}
}

// AddListRange attaches every list in order.
func (c *CompositeList[T]) AddListRange(lists []List[T]) {
	for _, l := range lists {
		c.AddList(l)
	}
}

// Lists returns the attached constituents in attach order.
func (c *CompositeList[T]) Lists() []List[T] {
	out := make([]List[T], len(c.lists))
	copy(out, c.lists)
	return out
}

// IsReadOnly reports whether mutating calls are refused. Composites are
// always writable.
func (c *CompositeList[T]) IsReadOnly() bool { return false }

func (c *CompositeList[T]) checkWritable() error {
	if c.IsReadOnly() {
		return ErrReadOnly
	}
	return nil
}

// listForIndex resolves a global index to its constituent and local index.
// Empty constituents own no index range.
func (c *CompositeList[T]) listForIndex(index int) (List[T], int) {
	if index < 0 {
		return nil, -1
	}
	offset := 0
	for _, l := range c.lists {
		n := l.Len()
		if n == 0 {
			continue
		}
		if index < offset+n {
			return l, index - offset
		}
		offset += n
	}
	return nil, -1
}

// listForItem finds the first constituent holding an element equal to item.
// The returned index is local to that constituent, and global is its
// position in the composite.
func (c *CompositeList[T]) listForItem(item T) (list List[T], local, global int) {
	offset := 0
	for _, l := range c.lists {
		if i := l.IndexOf(item); i >= 0 {
			return l, i, offset + i
		}
		offset += l.Len()
	}
	return nil, -1, -1
}

// Count returns the number of elements across all constituents.
func (c *CompositeList[T]) Count() int {
	n := 0
	for _, l := range c.lists {
		n += l.Len()
	}
	return n
}

// Get returns the element at index.
func (c *CompositeList[T]) Get(index int) (T, error) {
	l, i := c.listForIndex(index)
	if l == nil {
		var zero T
		return zero, fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, index, c.Count())
	}
	return l.At(i), nil
}

// Set replaces the element at index, notifying the removal of the old value
// before the addition of the new one.
func (c *CompositeList[T]) Set(index int, item T) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	l, i := c.listForIndex(index)
	if l == nil {
		return fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, index, c.Count())
	}
	old := l.At(i)
	l.Set(i, item)
	c.itemRemoved(old)
	c.itemAdded(item)
	return nil
}

// Insert places item at index inside the constituent that owns index.
// Inserting at Count appends to the last constituent, like Add.
func (c *CompositeList[T]) Insert(index int, item T) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	count := c.Count()
	if index == count {
		return c.Add(item)
	}
	if err := checkIndex(index, count); err != nil {
		return err
	}
	l, i := c.listForIndex(index)
	l.Insert(i, item)
	c.itemAdded(item)
	return nil
}

// Add appends item to the last attached constituent. With no constituents
// attached there is nowhere to put it and the call does nothing.
func (c *CompositeList[T]) Add(item T) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if len(c.lists) == 0 {
		return nil
	}
	c.lists[len(c.lists)-1].Append(item)
	c.itemAdded(item)
	return nil
}

// Remove deletes the first element equal to item and reports whether one was found.
func (c *CompositeList[T]) Remove(item T) (bool, error) {
	if err := c.checkWritable(); err != nil {
		return false, err
	}
	l, i, _ := c.listForItem(item)
	if l == nil {
		return false, nil
	}
	removed := l.At(i)
	l.RemoveAt(i)
	c.itemRemoved(removed)
	return true, nil
}

// RemoveAt deletes the element at index.
func (c *CompositeList[T]) RemoveAt(index int) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if err := checkIndex(index, c.Count()); err != nil {
		return err
	}
	l, i := c.listForIndex(index)
	item := l.At(i)
	l.RemoveAt(i)
	c.itemRemoved(item)
	return nil
}

// Clear empties every constituent. Removal notifications are delivered once
// all constituents are empty.
func (c *CompositeList[T]) Clear() error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	var removed []T
	for _, l := range c.lists {
		for i := 0; i < l.Len(); i++ {
			removed = append(removed, l.At(i))
		}
		l.Clear()
	}
	for _, item := range removed {
		c.itemRemoved(item)
	}
	return nil
}

// IndexOf returns the global index of the first element equal to item, or -1.
func (c *CompositeList[T]) IndexOf(item T) int {
	_, _, global := c.listForItem(item)
	return global
}

// Contains reports whether any constituent holds an element equal to item.
func (c *CompositeList[T]) Contains(item T) bool {
	return c.IndexOf(item) >= 0
}

// CopyTo copies every element into dst starting at offset. When dst cannot
// hold all elements past offset nothing is copied.
func (c *CompositeList[T]) CopyTo(dst []T, offset int) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, offset)
	}
	if len(dst) > 0 && offset >= len(dst) {
		return fmt.Errorf("%w: offset %d past end of destination of length %d", ErrInvalidArgument, offset, len(dst))
	}
	if len(dst)-offset < c.Count() {
		return nil
	}
	i := offset
	for _, l := range c.lists {
		for j := 0; j < l.Len(); j++ {
			dst[i] = l.At(j)
			i++
		}
	}
	return nil
}

// Iterator returns a forward-only cursor over the composite.
func (c *CompositeList[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{lists: c, list: -1}
}

// All yields every element in attach order, then constituent order.
func (c *CompositeList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		it := c.Iterator()
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}
