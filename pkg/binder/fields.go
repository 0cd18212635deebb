package binder

import (
	"reflect"
	"strings"
	"sync"
)

// fieldInfo describes one bindable struct field.
type fieldInfo struct {
	name  string
	index []int
	typ   reflect.Type
}

// typeInfo is the cached column map for one struct type. Keys are lower case.
type typeInfo struct {
	fields map[string]*fieldInfo
}

func (ti *typeInfo) lookup(column string) (*fieldInfo, bool) {
	f, ok := ti.fields[strings.ToLower(column)]
	return f, ok
}

// fieldCache memoizes typeInfo per (tag, struct type).
type fieldCache struct {
	tag   string
	types sync.Map // reflect.Type -> *typeInfo
}

func (c *fieldCache) info(t reflect.Type) *typeInfo {
	if v, ok := c.types.Load(t); ok {
		return v.(*typeInfo)
	}
	ti := &typeInfo{fields: make(map[string]*fieldInfo)}
	c.collect(t, nil, ti)
	actual, _ := c.types.LoadOrStore(t, ti)
	return actual.(*typeInfo)
}

// collect walks exported fields, flattening untagged embedded structs.
// Shallower fields win over promoted ones with the same column name.
func (c *fieldCache) collect(t reflect.Type, parent []int, ti *typeInfo) {
	var embedded []reflect.StructField

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup(c.tag)
		if tag == "-" {
			continue
		}
		if sf.Anonymous && !hasTag && sf.Type.Kind() == reflect.Struct {
			embedded = append(embedded, sf)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		if hasTag {
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		key := strings.ToLower(name)
		if _, exists := ti.fields[key]; exists {
			continue
		}
		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i
		ti.fields[key] = &fieldInfo{name: name, index: index, typ: sf.Type}
	}

	for _, sf := range embedded {
		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = sf.Index[0]
		c.collect(sf.Type, index, ti)
	}
}
