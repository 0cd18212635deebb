package cursor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticConnector serves one fixed result set for every query.
type staticConnector struct {
	columns []string
	rows    [][]driver.Value
}

func (c *staticConnector) Connect(context.Context) (driver.Conn, error) { return &staticConn{c}, nil }
func (c *staticConnector) Driver() driver.Driver                        { return nil }

type staticConn struct{ c *staticConnector }

func (c *staticConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *staticConn) Close() error                        { return nil }
func (c *staticConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *staticConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return &staticRows{columns: c.c.columns, rows: c.c.rows}, nil
}

type staticRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *staticRows) Columns() []string { return r.columns }
func (r *staticRows) Close() error      { return nil }

func (r *staticRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func TestSQLCursor(t *testing.T) {
	db := sql.OpenDB(&staticConnector{
		columns: []string{"id", "name", "note"},
		rows: [][]driver.Value{
			{int64(1), []byte("ada"), nil},
			{int64(2), []byte("grace"), "x"},
		},
	})
	defer db.Close()

	rows, err := db.QueryContext(context.Background(), "SELECT id, name, note FROM people")
	require.NoError(t, err)
	defer rows.Close()

	cur := FromSQL(rows)
	require.True(t, cur.Next())
	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "note"}, cols)

	first, err := cur.Values()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), []byte("ada"), nil}, first)
	kept := first[1].([]byte)

	require.True(t, cur.Next())
	second, err := cur.Values()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2), []byte("grace"), "x"}, second)
	assert.Equal(t, []byte("ada"), kept)

	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())
}
