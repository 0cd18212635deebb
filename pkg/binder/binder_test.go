package binder

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/json"
	"github.com/ajitpratap0/rowmap/pkg/models"
)

type Timestamps struct {
	CreatedAt time.Time `db:"created_at"`
}

type Account struct {
	Timestamps
	ID       uuid.UUID       `db:"id"`
	Balance  decimal.Decimal `db:"balance"`
	Nickname *string         `db:"nickname"`
	Secret   string          `db:"-"`
	Level    int8
}

type Owner struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func typesOf(vs ...interface{}) []reflect.Type {
	out := make([]reflect.Type, len(vs))
	for i, v := range vs {
		out[i] = reflect.TypeOf(v)
	}
	return out
}

func TestGreedySplitOnRepeatedColumn(t *testing.T) {
	b := New(Options{})
	plan, err := b.Bind([]string{"id", "balance", "id", "name"}, typesOf(&Account{}, Owner{}))
	require.NoError(t, err)
	require.Equal(t, 2, plan.Arity())

	start, end := plan.Segment(0)
	assert.Equal(t, [2]int{0, 2}, [2]int{start, end})
	start, end = plan.Segment(1)
	assert.Equal(t, [2]int{2, 4}, [2]int{start, end})

	id := uuid.New()
	row := []interface{}{id.String(), "12.50", int64(7), []byte("ada")}

	acc, err := plan.Decode(row, 0)
	require.NoError(t, err)
	a := acc.(*Account)
	assert.Equal(t, id, a.ID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(a.Balance))

	owner, err := plan.Decode(row, 1)
	require.NoError(t, err)
	assert.Equal(t, Owner{ID: 7, Name: "ada"}, owner)
}

func TestBindIsCached(t *testing.T) {
	b := New(Options{})
	cols := []string{"id", "name"}
	p1, err := b.Bind(cols, typesOf(Owner{}))
	require.NoError(t, err)
	p2, err := b.Bind(cols, typesOf(Owner{}))
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestExplicitSplitOn(t *testing.T) {
	b := New(Options{SplitOn: []string{"owner_id"}})
	cols := []string{"id", "nickname", "owner_id", "name"}

	type ownerRef struct {
		OwnerID int    `db:"owner_id"`
		Name    string `db:"name"`
	}
	plan, err := b.Bind(cols, typesOf(&Account{}, &ownerRef{}))
	require.NoError(t, err)

	start, _ := plan.Segment(1)
	assert.Equal(t, 2, start)

	row := []interface{}{uuid.New().String(), nil, "9", "grace"}
	acc, err := plan.Decode(row, 0)
	require.NoError(t, err)
	assert.Nil(t, acc.(*Account).Nickname)

	ref, err := plan.Decode(row, 1)
	require.NoError(t, err)
	assert.Equal(t, &ownerRef{OwnerID: 9, Name: "grace"}, ref)
}

func TestSplitOnMissingColumn(t *testing.T) {
	b := New(Options{SplitOn: []string{"missing"}})
	_, err := b.Bind([]string{"id", "name"}, typesOf(Owner{}, Owner{}))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestStrictColumns(t *testing.T) {
	b := New(Options{StrictColumns: true})
	_, err := b.Bind([]string{"id", "name", "unknown"}, typesOf(Owner{}))
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))

	lenient := New(Options{})
	plan, err := lenient.Bind([]string{"id", "name", "unknown"}, typesOf(Owner{}))
	require.NoError(t, err)
	v, err := plan.Decode([]interface{}{1, "x", "ignored"}, 0)
	require.NoError(t, err)
	assert.Equal(t, Owner{ID: 1, Name: "x"}, v)
}

func TestMapComponentNeedsSplitWhenNotLast(t *testing.T) {
	b := New(Options{})
	_, err := b.Bind([]string{"a", "b"}, typesOf(map[string]interface{}{}, Owner{}))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	plan, err := b.Bind([]string{"id", "name", "extra", "more"}, typesOf(Owner{}, map[string]interface{}{}))
	require.NoError(t, err)
	m, err := plan.Decode([]interface{}{1, "x", 2.5, nil}, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"extra": 2.5, "more": nil}, m)
}

func TestRecordAndScalarComponents(t *testing.T) {
	b := New(Options{SplitOn: []string{"a"}})
	plan, err := b.Bind([]string{"n", "a", "b"}, typesOf(int(0), &models.Record{}))
	require.NoError(t, err)

	row := []interface{}{"42", "x", int64(3)}
	n, err := plan.Decode(row, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	rec, err := plan.Decode(row, 1)
	require.NoError(t, err)
	r := rec.(*models.Record)
	assert.Equal(t, []string{"a", "b"}, r.Columns())
	v, ok := r.Get("b")
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)
}

func TestNoColumnsLeftForComponent(t *testing.T) {
	b := New(Options{})
	_, err := b.Bind([]string{"id", "name"}, typesOf(Owner{}, Owner{}))
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))
}

func TestConversions(t *testing.T) {
	b := New(Options{})
	cols := []string{"created_at", "nickname", "level", "secret"}
	plan, err := b.Bind(cols, typesOf(Account{}))
	require.NoError(t, err)

	v, err := plan.Decode([]interface{}{"2024-01-02T03:04:05Z", []byte("neo"), "12", "s3cret"}, 0)
	require.NoError(t, err)
	a := v.(Account)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), a.CreatedAt.UTC())
	require.NotNil(t, a.Nickname)
	assert.Equal(t, "neo", *a.Nickname)
	assert.Equal(t, int8(12), a.Level)
	assert.Empty(t, a.Secret)
}

func TestIntegerTextIsDecimal(t *testing.T) {
	type code struct {
		Code  int    `db:"code"`
		Count uint16 `db:"count"`
	}
	b := New(Options{})
	plan, err := b.Bind([]string{"code", "count"}, typesOf(code{}))
	require.NoError(t, err)

	tests := []struct {
		name  string
		code  interface{}
		count interface{}
		want  code
	}{
		{"leading zero", "010", "007", code{Code: 10, Count: 7}},
		{"mysql text protocol", []byte("010"), []byte("42"), code{Code: 10, Count: 42}},
		{"padded", " 12 ", "3", code{Code: 12, Count: 3}},
		{"negative", "-5", "0", code{Code: -5}},
		{"native ints", int64(9), int32(8), code{Code: 9, Count: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := plan.Decode([]interface{}{tt.code, tt.count}, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	_, err = plan.Decode([]interface{}{"1", "-1"}, 0)
	assert.True(t, errors.IsDecode(err))
}

func TestJSONNumbers(t *testing.T) {
	type measurement struct {
		ID     int64           `db:"id"`
		Ratio  float64         `db:"ratio"`
		Amount decimal.Decimal `db:"amount"`
		Raw    interface{}     `db:"raw"`
	}
	b := New(Options{})
	plan, err := b.Bind([]string{"id", "ratio", "amount", "raw"}, typesOf(measurement{}))
	require.NoError(t, err)

	v, err := plan.Decode([]interface{}{
		json.Number("9007199254740993"), json.Number("0.25"), json.Number("19.99"), json.Number("7"),
	}, 0)
	require.NoError(t, err)
	m := v.(measurement)
	assert.Equal(t, int64(9007199254740993), m.ID)
	assert.Equal(t, 0.25, m.Ratio)
	assert.True(t, decimal.RequireFromString("19.99").Equal(m.Amount))
	assert.Equal(t, json.Number("7"), m.Raw)
}

func TestConversionFailures(t *testing.T) {
	b := New(Options{})
	plan, err := b.Bind([]string{"level"}, typesOf(Account{}))
	require.NoError(t, err)

	tests := []struct {
		name  string
		value interface{}
	}{
		{"overflow", int64(1000)},
		{"not a number", "abc"},
		{"hex text", "0x1F"},
		{"binary text", "0b11"},
		{"text overflow", "300"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan.Decode([]interface{}{tt.value}, 0)
			require.Error(t, err)
			assert.True(t, errors.IsDecode(err))

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			col, _ := e.Detail(errors.DetailColumn)
			assert.Equal(t, "level", col)
		})
	}
}

func TestNullBecomesZeroValue(t *testing.T) {
	b := New(Options{})
	plan, err := b.Bind([]string{"id", "name"}, typesOf(Owner{}))
	require.NoError(t, err)
	v, err := plan.Decode([]interface{}{nil, nil}, 0)
	require.NoError(t, err)
	assert.Equal(t, Owner{}, v)
}

func TestBytesAreCopied(t *testing.T) {
	type blob struct {
		Data []byte `db:"data"`
	}
	b := New(Options{})
	plan, err := b.Bind([]string{"data"}, typesOf(blob{}))
	require.NoError(t, err)

	buf := []byte("abc")
	v, err := plan.Decode([]interface{}{buf}, 0)
	require.NoError(t, err)
	buf[0] = 'z'
	assert.Equal(t, []byte("abc"), v.(blob).Data)
}

func TestDecodeArityMismatch(t *testing.T) {
	b := New(Options{})
	plan, err := b.Bind([]string{"id", "name"}, typesOf(Owner{}))
	require.NoError(t, err)

	_, err = plan.Decode([]interface{}{1}, 0)
	assert.True(t, errors.IsDecode(err))
	_, err = plan.Decode([]interface{}{1, "x"}, 3)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestScannerStructIsScalar(t *testing.T) {
	b := New(Options{SplitOn: []string{"amount"}})
	plan, err := b.Bind([]string{"id", "amount"}, typesOf(Owner{}, decimal.Decimal{}))
	require.NoError(t, err)
	v, err := plan.Decode([]interface{}{1, "3.25"}, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.25").Equal(v.(decimal.Decimal)))
}
