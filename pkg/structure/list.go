package structure

import "iter"

// Sequence is an indexed read-only view.
type Sequence[T any] interface {
	Len() int
	At(i int) T
}

// Enumerable is an iterable view.
type Enumerable[T any] interface {
	All() iter.Seq[T]
}

// ReadOnlyList is the combined indexed and iterable view.
type ReadOnlyList[T any] interface {
	Sequence[T]
	Enumerable[T]
}

// Slicer exposes the backing slice.
type Slicer[T any] interface {
	Slice() []T
}

// List is a materialized, insertion-ordered sequence of records. A nil *List
// behaves as an empty list.
type List[T any] struct {
	items []T
}

// NewList wraps items without copying.
func NewList[T any](items []T) *List[T] {
	return &List[T]{items: items}
}

func newListCap[T any](capacity int) *List[T] {
	return &List[T]{items: make([]T, 0, capacity)}
}

func (l *List[T]) append(v T) {
	l.items = append(l.items, v)
}

// Len returns the number of records.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns record i; it panics when i is out of range.
func (l *List[T]) At(i int) T {
	return l.items[i]
}

// All yields the records in fetch order.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if l == nil {
			return
		}
		for _, v := range l.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Backward yields index and record from last to first.
func (l *List[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if l == nil {
			return
		}
		for i := len(l.items) - 1; i >= 0; i-- {
			if !yield(i, l.items[i]) {
				return
			}
		}
	}
}

// Slice returns the backing slice. Callers must not append to it while the
// list is shared.
func (l *List[T]) Slice() []T {
	if l == nil {
		return nil
	}
	return l.items
}
