package structure

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ajitpratap0/rowmap/pkg/errors"
)

// Adapter presents the lists of a ListReader[T] as the contract type C, which
// *List[T] must implement (or be). The list is cast, never copied.
type Adapter[C any, T any] struct {
	reader *ListReader[T]
}

// NewAdapter wraps reader. It fails when *List[T] is not assignable to C.
func NewAdapter[C any, T any](reader *ListReader[T]) (*Adapter[C, T], error) {
	if reader == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "adapter needs a reader")
	}
	list, contract := TypeOf[*List[T]](), TypeOf[C]()
	if !list.AssignableTo(contract) {
		return nil, errors.New(errors.ErrorTypeValidation,
			fmt.Sprintf("%s does not implement %s", list, contract))
	}
	return &Adapter[C, T]{reader: reader}, nil
}

func (a *Adapter[C, T]) cast(l *List[T]) C {
	if l == nil {
		var zero C
		return zero
	}
	return interface{}(l).(C)
}

func (a *Adapter[C, T]) narrow(l *List[T], err error) (C, error) {
	return a.cast(l), err
}

// Reader returns the wrapped reader.
func (a *Adapter[C, T]) Reader() *ListReader[T] {
	return a.reader
}

// Arity returns the number of components per row.
func (a *Adapter[C, T]) Arity() int {
	return a.reader.Arity()
}

// ReturnType is always C.
func (a *Adapter[C, T]) ReturnType() reflect.Type {
	return TypeOf[C]()
}

// Read materializes cur and returns the list as C.
func (a *Adapter[C, T]) Read(cur Cursor) (C, error) {
	return a.narrow(a.reader.Read(cur))
}

// ReadContext materializes cur honouring ctx. A cancelled read returns the
// partial list as C.
func (a *Adapter[C, T]) ReadContext(ctx context.Context, cur Cursor) (C, error) {
	return a.narrow(a.reader.ReadContext(ctx, cur))
}

// ReadAsync narrows the reader's future on its completing goroutine.
func (a *Adapter[C, T]) ReadAsync(ctx context.Context, cur Cursor) *Future[C] {
	return thenSync(a.reader.ReadAsync(ctx, cur), a.narrow)
}

// ReadAny implements QueryReader.
func (a *Adapter[C, T]) ReadAny(cur Cursor) (interface{}, error) {
	return boxList(a.reader.Read(cur))
}

// ReadAnyAsync implements QueryReader.
func (a *Adapter[C, T]) ReadAnyAsync(ctx context.Context, cur Cursor) *Future[interface{}] {
	return thenSync(a.reader.ReadAsync(ctx, cur), boxList[T])
}
