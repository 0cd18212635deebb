package cursor

import (
	"github.com/jackc/pgx/v5"
)

// Pgx adapts pgx rows. Values are decoded by pgx into Go types (int64,
// string, time.Time, pgtype values).
type Pgx struct {
	rows    pgx.Rows
	columns []string
}

// FromPgx wraps rows.
func FromPgx(rows pgx.Rows) *Pgx {
	return &Pgx{rows: rows}
}

// Columns implements the cursor.
func (p *Pgx) Columns() ([]string, error) {
	if p.columns == nil {
		fields := p.rows.FieldDescriptions()
		p.columns = make([]string, len(fields))
		for i, f := range fields {
			p.columns[i] = f.Name
		}
	}
	return p.columns, nil
}

// Next implements the cursor.
func (p *Pgx) Next() bool {
	return p.rows.Next()
}

// Values implements the cursor.
func (p *Pgx) Values() ([]interface{}, error) {
	return p.rows.Values()
}

// Err implements the cursor.
func (p *Pgx) Err() error {
	return p.rows.Err()
}
