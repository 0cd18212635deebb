package cursor

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ajitpratap0/rowmap/pkg/json"
)

// fakePgxRows implements the pgx.Rows methods a cursor uses.
type fakePgxRows struct {
	pgx.Rows
	fields []pgconn.FieldDescription
	rows   [][]interface{}
	pos    int
	err    error
}

func (r *fakePgxRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakePgxRows) Err() error                                   { return r.err }

func (r *fakePgxRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakePgxRows) Values() ([]interface{}, error) {
	return r.rows[r.pos-1], nil
}

func TestPgxCursor(t *testing.T) {
	rows := &fakePgxRows{
		fields: []pgconn.FieldDescription{{Name: "id"}, {Name: "email"}},
		rows:   [][]interface{}{{int64(1), "a@example.com"}, {int64(2), nil}},
	}
	cur := FromPgx(rows)

	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, cols)
	assert.Equal(t, [][]interface{}{{int64(1), "a@example.com"}, {int64(2), nil}}, drain(t, cur))

	rows = &fakePgxRows{err: fmt.Errorf("conn closed")}
	cur = FromPgx(rows)
	assert.False(t, cur.Next())
	assert.EqualError(t, cur.Err(), "conn closed")
}

func TestMongoCursorProjectsFields(t *testing.T) {
	docs := []interface{}{
		bson.D{{Key: "_id", Value: int32(1)}, {Key: "name", Value: "ada"}, {Key: "address", Value: bson.D{{Key: "city", Value: "London"}}}},
		bson.D{{Key: "_id", Value: int32(2)}, {Key: "name", Value: nil}},
	}
	mc, err := mongo.NewCursorFromDocuments(docs, nil, nil)
	require.NoError(t, err)

	cur := FromMongo(context.Background(), mc, "_id", "name", "address.city")
	got := drain(t, cur)
	assert.Equal(t, [][]interface{}{
		{int32(1), "ada", "London"},
		{int32(2), nil, nil},
	}, got)
}

func TestMongoCursorColumnsFromFirstDocument(t *testing.T) {
	docs := []interface{}{
		bson.D{{Key: "b", Value: "x"}, {Key: "a", Value: int64(7)}},
	}
	mc, err := mongo.NewCursorFromDocuments(docs, nil, nil)
	require.NoError(t, err)

	cur := FromMongo(context.Background(), mc)
	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Empty(t, cols)

	require.True(t, cur.Next())
	cols, err = cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, cols)

	values, err := cur.Values()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x", int64(7)}, values)
}

func TestArrowCursor(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "at", Type: &arrow.TimestampType{Unit: arrow.Second}},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"ada", ""}, []bool{true, false})
	b.Field(2).(*array.TimestampBuilder).AppendValues([]arrow.Timestamp{0, 60}, nil)

	rec := b.NewRecord()
	defer rec.Release()

	cur := FromArrow(rec)
	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "at"}, cols)

	got := drain(t, cur)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0][0])
	assert.Equal(t, "ada", got[0][1])
	assert.True(t, time.Unix(0, 0).Equal(got[0][2].(time.Time)))
	assert.Nil(t, got[1][1])
	assert.True(t, time.Unix(60, 0).Equal(got[1][2].(time.Time)))
	assert.False(t, cur.Next())
}

func TestJSONLinesCursor(t *testing.T) {
	input := `{"name":"ada","id":1}

{"id":2,"extra":true}
`
	cur := FromJSONLines(strings.NewReader(input))
	require.True(t, cur.Next())
	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	v, err := cur.Values()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{json.Number("1"), "ada"}, v)

	require.True(t, cur.Next())
	v, err = cur.Values()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{json.Number("2"), nil}, v)

	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())
}

func TestJSONLinesCursorDeclaredColumnsAndBadLine(t *testing.T) {
	cur := FromJSONLines(strings.NewReader("{\"a\":1}\nnot json\n"), "a")
	got := []interface{}{}
	for cur.Next() {
		v, err := cur.Values()
		require.NoError(t, err)
		got = append(got, v[0])
	}
	assert.Equal(t, []interface{}{json.Number("1")}, got)
	assert.Error(t, cur.Err())
}

func TestJSONLinesCursorKeepsLargeIntegers(t *testing.T) {
	cur := FromJSONLines(strings.NewReader(`{"id":9007199254740993}`))
	require.True(t, cur.Next())
	v, err := cur.Values()
	require.NoError(t, err)

	id, ok := v[0].(json.Number)
	require.True(t, ok, "got %T", v[0])
	n, err := id.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), n)
}
