package cursor

import (
	"bufio"
	"bytes"
	"io"
	"sort"

	"github.com/ajitpratap0/rowmap/pkg/json"
)

const maxLineSize = 16 << 20

// JSONLines reads newline-delimited JSON objects. Blank lines are skipped
// and numbers decode as json.Number, keeping large integers exact.
type JSONLines struct {
	scanner *bufio.Scanner
	columns []string
	current map[string]interface{}
	err     error
}

// FromJSONLines reads objects from r. Without columns, the sorted keys of
// the first object become the columns; keys missing from later objects are
// NULL.
func FromJSONLines(r io.Reader, columns ...string) *JSONLines {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &JSONLines{scanner: s, columns: columns}
}

// Columns implements the cursor.
func (j *JSONLines) Columns() ([]string, error) {
	if j.columns == nil && j.current != nil {
		cols := make([]string, 0, len(j.current))
		for k := range j.current {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		j.columns = cols
	}
	return j.columns, nil
}

// Next implements the cursor.
func (j *JSONLines) Next() bool {
	if j.err != nil {
		return false
	}
	for j.scanner.Scan() {
		line := bytes.TrimSpace(j.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		obj := make(map[string]interface{})
		if err := json.UnmarshalUseNumber(line, &obj); err != nil {
			j.err = err
			return false
		}
		j.current = obj
		return true
	}
	j.err = j.scanner.Err()
	return false
}

// Values implements the cursor.
func (j *JSONLines) Values() ([]interface{}, error) {
	cols, err := j.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = j.current[c]
	}
	return values, nil
}

// Err implements the cursor.
func (j *JSONLines) Err() error {
	return j.err
}
