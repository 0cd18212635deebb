package structure

import (
	"fmt"
	"reflect"

	"github.com/ajitpratap0/rowmap/pkg/errors"
)

// MaxArity is the largest number of component types one reader composes.
const MaxArity = 16

// Composer decodes the N components of a row and merges them into the
// primary record. A Composer is immutable and safe for concurrent use.
type Composer struct {
	types  []reflect.Type
	merger Merger
}

// NewComposer validates the type tuple. A nil merger means AssignByType.
func NewComposer(types []reflect.Type, merger Merger) (*Composer, error) {
	if len(types) < 1 || len(types) > MaxArity {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"arity %d is outside 1..%d", len(types), MaxArity)
	}
	for i, t := range types {
		if t == nil {
			return nil, errors.New(errors.ErrorTypeValidation, "component type is nil").
				WithDetail(errors.DetailComponent, i)
		}
	}
	if merger == nil {
		merger = AssignByType
	}
	return &Composer{
		types:  append([]reflect.Type(nil), types...),
		merger: merger,
	}, nil
}

// Arity returns the number of components per row.
func (c *Composer) Arity() int {
	return len(c.types)
}

// Types returns a copy of the component type tuple.
func (c *Composer) Types() []reflect.Type {
	return append([]reflect.Type(nil), c.types...)
}

// Compose decodes every component of row in declared order, then merges them
// once. It returns the primary component, or an error and no record.
func (c *Composer) Compose(b Binding, row Row) (interface{}, error) {
	var buf [MaxArity]interface{}
	components := buf[:len(c.types)]

	for i, t := range c.types {
		v, err := b.Decode(row, i)
		if err != nil {
			return nil, decodeError(err, row.Index, i, t)
		}
		if v != nil && !reflect.TypeOf(v).AssignableTo(t) {
			return nil, decodeError(
				fmt.Errorf("decoder returned %T", v), row.Index, i, t)
		}
		components[i] = v
	}

	if len(components) > 1 {
		if err := c.merger.Merge(components); err != nil {
			return nil, mergeError(err, row.Index)
		}
	}
	return components[0], nil
}

func decodeError(err error, row, component int, t reflect.Type) error {
	e := errors.Wrap(err, errors.ErrorTypeDecode, "cannot decode component")
	if errors.IsDecode(err) {
		var inner *errors.Error
		errors.As(err, &inner)
		e.Message = inner.Message
		for k, v := range inner.Details {
			e.WithDetail(k, v)
		}
		e.Cause = inner.Cause
	}
	return e.WithDetail(errors.DetailRow, row).
		WithDetail(errors.DetailComponent, component).
		WithDetail(errors.DetailType, t.String())
}

func mergeError(err error, row int) error {
	var inner *errors.Error
	if errors.As(err, &inner) && inner.Type == errors.ErrorTypeMerge {
		// merge plans cache their errors; annotate a copy
		e := *inner
		e.Details = make(map[string]interface{}, len(inner.Details)+1)
		for k, v := range inner.Details {
			e.Details[k] = v
		}
		return e.WithDetail(errors.DetailRow, row)
	}
	return errors.Wrap(err, errors.ErrorTypeMerge, "cannot merge components").
		WithDetail(errors.DetailRow, row)
}
