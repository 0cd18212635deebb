package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListViews(t *testing.T) {
	l := NewList([]string{"a", "b", "c"})

	var seq ReadOnlyList[string] = l
	assert.Equal(t, 3, seq.Len())
	assert.Equal(t, "b", seq.At(1))

	var forward []string
	for v := range l.All() {
		forward = append(forward, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, forward)

	var backward []int
	for i, v := range l.Backward() {
		backward = append(backward, i)
		if v == "b" {
			break
		}
	}
	assert.Equal(t, []int{2, 1}, backward)

	var slicer Slicer[string] = l
	assert.Equal(t, []string{"a", "b", "c"}, slicer.Slice())
}

func TestNilList(t *testing.T) {
	var l *List[int]
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Slice())
	for range l.All() {
		t.Fatal("nil list yielded")
	}
	for range l.Backward() {
		t.Fatal("nil list yielded")
	}
}

func TestRowLookup(t *testing.T) {
	row := Row{Index: 3, Columns: []string{"ID", "Name"}, Values: []interface{}{7, "x"}}
	v, ok := row.Lookup("name")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = row.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, row.Len())
	assert.Equal(t, 7, row.At(0))
}
