// Package collection provides the ordered-collection primitives used to
// present period lists coming from several evaluators as a single list.
package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when an index does not address an element
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidArgument is returned for arguments that can never be valid, such as a negative offset
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrReadOnly is returned when a mutating call is made on a read-only list
	ErrReadOnly = errors.New("list is read-only")
)

// List is an ordered collection that can back a CompositeList.
// Implementations define their own element equality through IndexOf.
// Index arguments are assumed valid; range checks belong to the caller.
//
// Composites compare constituents by identity, so implementations must be
// pointer types.
type List[T any] interface {
	Len() int
	At(i int) T
	Set(i int, v T)
	Insert(i int, v T)
	Append(v T)
	RemoveAt(i int)
	Clear()
	// IndexOf returns the index of the first element equal to v, or -1.
	IndexOf(v T) int
}

// SliceList is a List backed by a Go slice.
type SliceList[T any] struct {
	items []T
	equal func(a, b T) bool
}

// NewSliceList creates a list comparing elements with ==.
func NewSliceList[T comparable](items ...T) *SliceList[T] {
	return NewSliceListFunc(func(a, b T) bool { return a == b }, items...)
}

// NewSliceListFunc creates a list comparing elements with equal.
func NewSliceListFunc[T any](equal func(a, b T) bool, items ...T) *SliceList[T] {
	if equal == nil {
		panic("collection: NewSliceListFunc requires an equality function")
	}
	l := &SliceList[T]{equal: equal}
	l.items = append(l.items, items...)
	return l
}

func (l *SliceList[T]) Len() int { return len(l.items) }

func (l *SliceList[T]) At(i int) T { return l.items[i] }

func (l *SliceList[T]) Set(i int, v T) { l.items[i] = v }

func (l *SliceList[T]) Insert(i int, v T) {
	var zero T
	l.items = append(l.items, zero)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
}

func (l *SliceList[T]) Append(v T) { l.items = append(l.items, v) }

func (l *SliceList[T]) RemoveAt(i int) {
	copy(l.items[i:], l.items[i+1:])
	var zero T
	l.items[len(l.items)-1] = zero
	l.items = l.items[:len(l.items)-1]
}

func (l *SliceList[T]) Clear() {
	clear(l.items)
	l.items = l.items[:0]
}

func (l *SliceList[T]) IndexOf(v T) int {
	for i, item := range l.items {
		if l.equal(item, v) {
			return i
		}
	}
	return -1
}

// Items returns a copy of the list contents.
func (l *SliceList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Replace swaps the whole contents of the list while keeping its identity,
// so composites holding the list observe the new elements.
func (l *SliceList[T]) Replace(items []T) {
	clear(l.items)
	l.items = append(l.items[:0], items...)
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, index, count)
	}
	return nil
}
