package cursor

import "sync/atomic"

// Memory is an in-memory cursor over fixed rows.
type Memory struct {
	columns []string
	rows    [][]interface{}
	pos     int
	fetched atomic.Int64
	err     error

	failAt    int
	failErr   error
	valuesAt  int
	valuesErr error
	columnErr error
	onNext    func(fetched int)
}

// MemoryOption configures a Memory cursor.
type MemoryOption func(*Memory)

// FailAt makes fetch number n (zero-based) fail with err.
func FailAt(n int, err error) MemoryOption {
	return func(m *Memory) {
		m.failAt, m.failErr = n, err
	}
}

// FailValuesAt makes Values fail with err on row n.
func FailValuesAt(n int, err error) MemoryOption {
	return func(m *Memory) {
		m.valuesAt, m.valuesErr = n, err
	}
}

// FailColumns makes Columns fail with err.
func FailColumns(err error) MemoryOption {
	return func(m *Memory) {
		m.columnErr = err
	}
}

// OnNext registers fn, called after every successful fetch with the number
// of rows fetched so far.
func OnNext(fn func(fetched int)) MemoryOption {
	return func(m *Memory) {
		m.onNext = fn
	}
}

// FromRows returns a cursor over rows. Every row must have one value per
// column.
func FromRows(columns []string, rows [][]interface{}, opts ...MemoryOption) *Memory {
	m := &Memory{
		columns:  columns,
		rows:     rows,
		pos:      -1,
		failAt:   -1,
		valuesAt: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Columns implements the cursor.
func (m *Memory) Columns() ([]string, error) {
	if m.columnErr != nil {
		return nil, m.columnErr
	}
	return m.columns, nil
}

// Next implements the cursor.
func (m *Memory) Next() bool {
	if m.err != nil || m.pos >= len(m.rows) {
		return false
	}
	next := m.pos + 1
	if next == m.failAt {
		m.err = m.failErr
		return false
	}
	m.pos = next
	if m.pos >= len(m.rows) {
		return false
	}
	n := int(m.fetched.Add(1))
	if m.onNext != nil {
		m.onNext(n)
	}
	return true
}

// Values implements the cursor.
func (m *Memory) Values() ([]interface{}, error) {
	if m.pos == m.valuesAt {
		return nil, m.valuesErr
	}
	return m.rows[m.pos], nil
}

// Err implements the cursor.
func (m *Memory) Err() error {
	return m.err
}

// Fetched returns the number of rows fetched so far.
func (m *Memory) Fetched() int {
	return int(m.fetched.Load())
}
