package cursor

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Arrow iterates the rows of one record batch. The caller keeps ownership of
// the record and must not release it before the read finishes.
type Arrow struct {
	rec     arrow.Record
	columns []string
	row     int
}

// FromArrow wraps rec.
func FromArrow(rec arrow.Record) *Arrow {
	fields := rec.Schema().Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return &Arrow{rec: rec, columns: columns, row: -1}
}

// Columns implements the cursor.
func (a *Arrow) Columns() ([]string, error) {
	return a.columns, nil
}

// Next implements the cursor.
func (a *Arrow) Next() bool {
	if int64(a.row+1) >= a.rec.NumRows() {
		a.row = int(a.rec.NumRows())
		return false
	}
	a.row++
	return true
}

// Values implements the cursor.
func (a *Arrow) Values() ([]interface{}, error) {
	values := make([]interface{}, a.rec.NumCols())
	for i := range values {
		values[i] = arrowValue(a.rec.Column(i), a.row)
	}
	return values, nil
}

// Err implements the cursor; a record batch cannot fail mid-read.
func (a *Arrow) Err() error {
	return nil
}

func arrowValue(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return a.Value(i)
	case *array.Int16:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return a.Value(i)
	case *array.Uint16:
		return a.Value(i)
	case *array.Uint32:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return append([]byte(nil), a.Value(i)...)
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Date64:
		return a.Value(i).ToTime()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit)
	case *array.Duration:
		unit := a.DataType().(*arrow.DurationType).Unit
		return time.Duration(a.Value(i)) * unit.Multiplier()
	default:
		return arr.ValueStr(i)
	}
}
