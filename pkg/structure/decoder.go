package structure

import (
	"reflect"

	"github.com/ajitpratap0/rowmap/pkg/binder"
)

// Decoder prepares the per-row decoding of a type tuple for one column set.
type Decoder interface {
	Bind(columns []string, types []reflect.Type) (Binding, error)
}

// Binding decodes component i of a row into an instance of the i-th type.
// It must not modify the row.
type Binding interface {
	Decode(row Row, component int) (interface{}, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(columns []string, types []reflect.Type) (Binding, error)

// Bind calls f.
func (f DecoderFunc) Bind(columns []string, types []reflect.Type) (Binding, error) {
	return f(columns, types)
}

// BindingFunc adapts a function to Binding.
type BindingFunc func(row Row, component int) (interface{}, error)

// Decode calls f.
func (f BindingFunc) Decode(row Row, component int) (interface{}, error) {
	return f(row, component)
}

// structDecoder decodes components with a field binder.
type structDecoder struct {
	b *binder.Binder
}

// NewStructDecoder returns the default Decoder, binding columns to struct
// fields by tag or name.
func NewStructDecoder(opts binder.Options) Decoder {
	return structDecoder{b: binder.New(opts)}
}

func (d structDecoder) Bind(columns []string, types []reflect.Type) (Binding, error) {
	plan, err := d.b.Bind(columns, types)
	if err != nil {
		return nil, err
	}
	return planBinding{plan: plan}, nil
}

type planBinding struct {
	plan *binder.Plan
}

func (p planBinding) Decode(row Row, component int) (interface{}, error) {
	return p.plan.Decode(row.Values, component)
}

var defaultDecoder = NewStructDecoder(binder.Options{})
