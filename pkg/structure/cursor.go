package structure

import "strings"

// Cursor is a forward-only, single-pass sequence of rows owned by the caller.
// *sql.Rows-like sources are adapted by package cursor. The materializer
// never closes or rewinds a cursor, and a cursor must not be driven by two
// materializations at once.
type Cursor interface {
	// Columns returns the column names of every row.
	Columns() ([]string, error)
	// Next advances to the next row, reporting false when the cursor is
	// exhausted or failed; Err distinguishes the two.
	Next() bool
	// Values returns the current row. The slice is owned by the caller
	// until the next call to Next.
	Values() ([]interface{}, error)
	// Err returns the error that stopped iteration, if any.
	Err() error
}

// Row is one fetched cursor position. It is read-only and valid until the
// next fetch.
type Row struct {
	// Index is the zero-based fetch ordinal of the row.
	Index   int
	Columns []string
	Values  []interface{}
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.Values)
}

// At returns the value at ordinal i.
func (r Row) At(i int) interface{} {
	return r.Values[i]
}

// Lookup returns the first value whose column matches name case-insensitively.
func (r Row) Lookup(name string) (interface{}, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return r.Values[i], true
		}
	}
	return nil, false
}
