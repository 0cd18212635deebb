package structure

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/ajitpratap0/rowmap/pkg/errors"
)

// Merger attaches components[1:] to the primary components[0]. It runs once
// per row, after every component decoded, and only when the arity is at
// least two. Nil components are untyped NULL decodes.
type Merger interface {
	Merge(components []interface{}) error
}

// MergeFunc adapts a function to Merger.
type MergeFunc func(components []interface{}) error

// Merge calls f.
func (f MergeFunc) Merge(components []interface{}) error {
	return f(components)
}

// NoMerge leaves the secondary components unattached.
var NoMerge Merger = MergeFunc(func([]interface{}) error { return nil })

// AssignByType stores each secondary component in an exported field of the
// primary. A field of exactly the component's type is preferred; otherwise
// the first field the component is assignable to, such as an interface
// field, is used. Fields are taken in declaration order, value-embedded
// structs included both as a whole and through their promoted fields, and
// each field is filled at most once, so two components of the same type land
// in two consecutive matching fields. Filling an embedded struct uses up its
// promoted fields and the reverse. A component with no free field is a merge
// error. The primary must be a non-nil pointer to a struct.
var AssignByType Merger = &typeMerger{}

type mergeKey struct {
	primary reflect.Type
	comps   [MaxArity]reflect.Type
}

// mergeSlot is the field index that receives one component; nil skips it.
type mergeSlot []int

type mergePlan struct {
	slots []mergeSlot
	err   error
}

type typeMerger struct {
	plans sync.Map // mergeKey -> *mergePlan
}

func (m *typeMerger) Merge(components []interface{}) error {
	if len(components) < 2 {
		return nil
	}
	primary := reflect.ValueOf(components[0])
	if primary.Kind() != reflect.Ptr || primary.IsNil() || primary.Elem().Kind() != reflect.Struct {
		return errors.New(errors.ErrorTypeMerge,
			fmt.Sprintf("primary component is %T, want a non-nil pointer to struct", components[0])).
			WithDetail(errors.DetailComponent, 0)
	}

	key := mergeKey{primary: primary.Type()}
	for i, c := range components[1:] {
		if c != nil {
			key.comps[i] = reflect.TypeOf(c)
		}
	}

	plan := m.plan(key, len(components)-1)
	if plan.err != nil {
		return plan.err
	}

	dst := primary.Elem()
	for i, slot := range plan.slots {
		if slot == nil {
			continue
		}
		dst.FieldByIndex(slot).Set(reflect.ValueOf(components[i+1]))
	}
	return nil
}

func (m *typeMerger) plan(key mergeKey, n int) *mergePlan {
	if v, ok := m.plans.Load(key); ok {
		return v.(*mergePlan)
	}
	p := buildMergePlan(key, n)
	actual, _ := m.plans.LoadOrStore(key, p)
	return actual.(*mergePlan)
}

func buildMergePlan(key mergeKey, n int) *mergePlan {
	fields := mergeFields(key.primary.Elem(), nil)
	var used [][]int
	p := &mergePlan{slots: make([]mergeSlot, n)}

	free := func(f reflect.StructField) bool {
		for _, u := range used {
			if overlaps(u, f.Index) {
				return false
			}
		}
		return true
	}

	for i := 0; i < n; i++ {
		t := key.comps[i]
		if t == nil {
			continue
		}
		slot := -1
		for j, f := range fields {
			if f.Type == t && free(f) {
				slot = j
				break
			}
		}
		if slot < 0 {
			for j, f := range fields {
				if t.AssignableTo(f.Type) && free(f) {
					slot = j
					break
				}
			}
		}
		if slot < 0 {
			p.err = errors.New(errors.ErrorTypeMerge,
				fmt.Sprintf("%s has no free field for %s", key.primary, t)).
				WithDetail(errors.DetailComponent, i+1).
				WithDetail(errors.DetailType, t.String())
			return p
		}
		used = append(used, fields[slot].Index)
		p.slots[i] = fields[slot].Index
	}
	return p
}

// overlaps reports whether one field path contains the other, as an embedded
// struct contains its promoted fields.
func overlaps(a, b []int) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mergeFields lists settable fields with full index paths. An exported
// value-embedded struct is listed before its promoted fields.
func mergeFields(t reflect.Type, parent []int) []reflect.StructField {
	var out []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if sf.IsExported() {
				sf.Index = index
				out = append(out, sf)
			}
			out = append(out, mergeFields(sf.Type, index)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		sf.Index = index
		out = append(out, sf)
	}
	return out
}
