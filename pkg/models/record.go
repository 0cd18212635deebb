// Package models provides the dynamic record type used when component
// shapes are not known at compile time, such as in the rowmap CLI.
package models

import (
	"github.com/ajitpratap0/rowmap/pkg/json"
)

// Record is an ordered column/value map. Columns keep the order in which
// they were set, so JSON output follows the cursor's column order.
type Record struct {
	columns []string
	values  map[string]interface{}

	// Children holds components attached by AttachChildren, in declared order.
	Children []*Record
}

// NewRecord creates an empty record sized for n columns.
func NewRecord(n int) *Record {
	return &Record{
		columns: make([]string, 0, n),
		values:  make(map[string]interface{}, n),
	}
}

// Set stores value under column. Setting an existing column keeps its position.
func (r *Record) Set(column string, value interface{}) {
	if _, exists := r.values[column]; !exists {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value stored under column.
func (r *Record) Get(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in insertion order.
func (r *Record) Columns() []string {
	return r.columns
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.columns)
}

// MarshalJSON encodes the columns in order, followed by a "children" array
// when components were attached.
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := json.GetBuffer()
	defer json.PutBuffer(buf)

	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	if len(r.Children) > 0 {
		if len(r.columns) > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"children":`)
		children, err := json.Marshal(r.Children)
		if err != nil {
			return nil, err
		}
		buf.Write(children)
	}
	buf.WriteByte('}')

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// AttachChildren is a merge policy for dynamic records: components 2..N are
// appended to the primary's Children. Nil components are kept as nil so
// positions stay aligned with the declared component order.
func AttachChildren(components []interface{}) error {
	if len(components) < 2 {
		return nil
	}
	primary, ok := components[0].(*Record)
	if !ok || primary == nil {
		return errNotRecord(0, components[0])
	}
	for i, c := range components[1:] {
		if c == nil {
			primary.Children = append(primary.Children, nil)
			continue
		}
		child, ok := c.(*Record)
		if !ok {
			return errNotRecord(i+1, c)
		}
		primary.Children = append(primary.Children, child)
	}
	return nil
}
