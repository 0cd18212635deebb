package cursor

import "database/sql"

// SQLRows is the part of *sql.Rows a cursor needs.
type SQLRows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

var _ SQLRows = (*sql.Rows)(nil)

// SQL adapts database/sql rows. Scanning into *interface{} makes the driver
// copy byte slices, so values stay valid after the next fetch.
type SQL struct {
	rows    SQLRows
	columns []string
	current []interface{}
	ptrs    []interface{}
}

// FromSQL wraps rows, usually a *sql.Rows.
func FromSQL(rows SQLRows) *SQL {
	return &SQL{rows: rows}
}

// Columns implements the cursor.
func (s *SQL) Columns() ([]string, error) {
	if s.columns != nil {
		return s.columns, nil
	}
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, err
	}
	s.columns = cols
	return cols, nil
}

// Next implements the cursor.
func (s *SQL) Next() bool {
	return s.rows.Next()
}

// Values scans the current row. The returned slice is reused by the next
// call.
func (s *SQL) Values() ([]interface{}, error) {
	if s.current == nil {
		cols, err := s.Columns()
		if err != nil {
			return nil, err
		}
		s.current = make([]interface{}, len(cols))
		s.ptrs = make([]interface{}, len(cols))
	}
	for i := range s.current {
		s.current[i] = nil
		s.ptrs[i] = &s.current[i]
	}
	if err := s.rows.Scan(s.ptrs...); err != nil {
		return nil, err
	}
	return s.current, nil
}

// Err implements the cursor.
func (s *SQL) Err() error {
	return s.rows.Err()
}
