package cursor

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo projects the documents of a MongoDB cursor onto columns. A field
// may be a dotted path into nested documents; missing fields and BSON null
// are NULL.
type Mongo struct {
	ctx    context.Context
	cur    *mongo.Cursor
	fields []string
	paths  [][]string
}

// FromMongo wraps cur. Without fields the top-level keys of the first
// document become the columns. Next uses ctx for every batch fetch.
func FromMongo(ctx context.Context, cur *mongo.Cursor, fields ...string) *Mongo {
	m := &Mongo{ctx: ctx, cur: cur}
	if len(fields) > 0 {
		m.setFields(fields)
	}
	return m
}

func (m *Mongo) setFields(fields []string) {
	m.fields = fields
	m.paths = make([][]string, len(fields))
	for i, f := range fields {
		m.paths[i] = strings.Split(f, ".")
	}
}

// Columns implements the cursor. Without declared fields it is empty until
// the first document is fetched.
func (m *Mongo) Columns() ([]string, error) {
	if m.fields == nil && m.cur.Current != nil {
		elems, err := m.cur.Current.Elements()
		if err != nil {
			return nil, err
		}
		fields := make([]string, len(elems))
		for i, e := range elems {
			fields[i] = e.Key()
		}
		m.setFields(fields)
	}
	return m.fields, nil
}

// Next implements the cursor.
func (m *Mongo) Next() bool {
	return m.cur.Next(m.ctx)
}

// Values implements the cursor.
func (m *Mongo) Values() ([]interface{}, error) {
	if _, err := m.Columns(); err != nil {
		return nil, err
	}
	doc := m.cur.Current
	values := make([]interface{}, len(m.paths))
	for i, path := range m.paths {
		rv, err := doc.LookupErr(path...)
		if err != nil || rv.Type == bson.TypeNull {
			continue
		}
		var v interface{}
		if err := rv.Unmarshal(&v); err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Err implements the cursor.
func (m *Mongo) Err() error {
	return m.cur.Err()
}
