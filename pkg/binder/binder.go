// Package binder maps cursor columns onto the fields of component types.
//
// A Binder caches two things: the column map of every struct type it has
// seen, and the binding Plan for every (column list, type tuple) pair. A Plan
// splits the columns of a row into one contiguous segment per component and
// knows which field each column fills, so decoding a row is a straight walk
// over precomputed indexes.
//
// Segments are found either from explicit split columns (Options.SplitOn,
// naming the first column of components 2..N) or greedily: a column moves
// decoding on to the next component when the current component has no free
// field for it and the next component does. The greedy rule handles the
// common "SELECT o.*, c.*" shape where each table starts with its own id.
package binder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/models"
)

// Options control how columns are bound.
type Options struct {
	// TagName is the struct tag holding column names; defaults to "db"
	TagName string
	// StrictColumns fails binding when a column fills no field
	StrictColumns bool
	// SplitOn names the first column of components 2..N
	SplitOn []string
}

// Binder builds and caches Plans. It is safe for concurrent use.
type Binder struct {
	opts   Options
	fields *fieldCache
	plans  sync.Map // string -> *Plan
}

// New creates a Binder.
func New(opts Options) *Binder {
	if opts.TagName == "" {
		opts.TagName = "db"
	}
	return &Binder{
		opts:   opts,
		fields: &fieldCache{tag: opts.TagName},
	}
}

// Options returns the binder options.
func (b *Binder) Options() Options {
	return b.opts
}

type targetKind int

const (
	kindStruct targetKind = iota
	kindMap
	kindRecord
	kindScalar
)

var recordType = reflect.TypeOf((*models.Record)(nil))

// column binds one row column to one field of a struct component.
type column struct {
	ordinal int
	name    string
	field   *fieldInfo
}

// component is the decoding plan of one target type.
type component struct {
	typ      reflect.Type
	kind     targetKind
	ptr      bool // struct target is a pointer
	elem     reflect.Type
	info     *typeInfo
	start    int
	end      int
	columns  []column
	assigned map[string]bool
}

// Plan is an immutable decoding plan for one column list and type tuple.
type Plan struct {
	names      []string
	components []*component
}

// Arity returns the number of components.
func (p *Plan) Arity() int {
	return len(p.components)
}

// Segment returns the half-open column range decoded by component i.
func (p *Plan) Segment(i int) (start, end int) {
	c := p.components[i]
	return c.start, c.end
}

// Bind returns the plan for decoding rows with the given columns into types.
func (b *Binder) Bind(columns []string, types []reflect.Type) (*Plan, error) {
	if len(types) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "at least one component type is required")
	}

	key := planKey(columns, types)
	if v, ok := b.plans.Load(key); ok {
		return v.(*Plan), nil
	}

	plan, err := b.build(columns, types)
	if err != nil {
		return nil, err
	}
	actual, _ := b.plans.LoadOrStore(key, plan)
	return actual.(*Plan), nil
}

func planKey(columns []string, types []reflect.Type) string {
	var sb strings.Builder
	for _, c := range columns {
		sb.WriteString(c)
		sb.WriteByte(0)
	}
	for _, t := range types {
		fmt.Fprintf(&sb, "|%p", t)
	}
	return sb.String()
}

func (b *Binder) build(columns []string, types []reflect.Type) (*Plan, error) {
	plan := &Plan{
		names:      columns,
		components: make([]*component, len(types)),
	}
	for i, t := range types {
		c, err := b.describe(t)
		if err != nil {
			return nil, err.WithDetail(errors.DetailComponent, i)
		}
		plan.components[i] = c
	}

	var err error
	if len(types) > 1 && len(b.opts.SplitOn) > 0 {
		err = b.splitExplicit(plan)
	} else {
		err = b.splitGreedy(plan)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (b *Binder) describe(t reflect.Type) (*component, *errors.Error) {
	if t == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "component type is nil")
	}
	c := &component{typ: t, assigned: map[string]bool{}}
	switch {
	case t == recordType:
		c.kind = kindRecord
	case t.Kind() == reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, errors.New(errors.ErrorTypeValidation, fmt.Sprintf("map component %s needs string keys", t))
		}
		c.kind = kindMap
	case t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(scannerType):
		c.kind = kindStruct
		c.elem = t
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct && t.Elem() != timeType && !t.Implements(scannerType):
		c.kind = kindStruct
		c.ptr = true
		c.elem = t.Elem()
	default:
		c.kind = kindScalar
	}
	if c.kind == kindStruct {
		c.info = b.fields.info(c.elem)
	}
	return c, nil
}

// accepts reports whether component c can take the named column without
// overwriting a column it already holds.
func (c *component) accepts(name string) (*fieldInfo, bool) {
	key := strings.ToLower(name)
	switch c.kind {
	case kindStruct:
		if c.assigned[key] {
			return nil, false
		}
		f, ok := c.info.lookup(name)
		return f, ok
	case kindScalar:
		return nil, len(c.assigned) == 0
	default:
		return nil, !c.assigned[key]
	}
}

func (c *component) take(ordinal int, name string, f *fieldInfo) {
	c.assigned[strings.ToLower(name)] = true
	c.columns = append(c.columns, column{ordinal: ordinal, name: name, field: f})
}

func (b *Binder) splitGreedy(plan *Plan) error {
	comps := plan.components
	for i, c := range comps[:len(comps)-1] {
		if c.kind == kindMap || c.kind == kindRecord {
			return errors.New(errors.ErrorTypeConfig,
				fmt.Sprintf("component %s takes any column and needs split_on when it is not last", c.typ)).
				WithDetail(errors.DetailComponent, i)
		}
	}

	cur := 0
	for ordinal, name := range plan.names {
		if f, ok := comps[cur].accepts(name); ok {
			comps[cur].take(ordinal, name, f)
			continue
		}
		if cur+1 < len(comps) {
			if f, ok := comps[cur+1].accepts(name); ok {
				comps[cur].end = ordinal
				cur++
				comps[cur].start = ordinal
				comps[cur].take(ordinal, name, f)
				continue
			}
		}
		if b.opts.StrictColumns {
			return errors.New(errors.ErrorTypeDecode, "column does not match any field").
				WithDetail(errors.DetailColumn, name).
				WithDetail(errors.DetailComponent, cur)
		}
	}
	comps[cur].end = len(plan.names)

	if cur < len(comps)-1 {
		return errors.New(errors.ErrorTypeDecode, "no columns left for component").
			WithDetail(errors.DetailComponent, cur+1).
			WithDetail(errors.DetailType, comps[cur+1].typ.String())
	}
	return nil
}

func (b *Binder) splitExplicit(plan *Plan) error {
	comps := plan.components
	if len(b.opts.SplitOn) < len(comps)-1 {
		return errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("split_on names %d boundaries, %d components need %d", len(b.opts.SplitOn), len(comps), len(comps)-1))
	}

	bounds := make([]int, len(comps)+1)
	bounds[len(comps)] = len(plan.names)
	for i := 1; i < len(comps); i++ {
		want := b.opts.SplitOn[i-1]
		found := -1
		for j := bounds[i-1] + 1; j < len(plan.names); j++ {
			if strings.EqualFold(plan.names[j], want) {
				found = j
				break
			}
		}
		if found < 0 {
			return errors.New(errors.ErrorTypeConfig, "split column not found").
				WithDetail(errors.DetailColumn, want).
				WithDetail(errors.DetailComponent, i)
		}
		bounds[i] = found
	}

	for i, c := range comps {
		c.start, c.end = bounds[i], bounds[i+1]
		for ordinal := c.start; ordinal < c.end; ordinal++ {
			name := plan.names[ordinal]
			f, ok := c.accepts(name)
			if !ok {
				if b.opts.StrictColumns {
					return errors.New(errors.ErrorTypeDecode, "column does not match any field").
						WithDetail(errors.DetailColumn, name).
						WithDetail(errors.DetailComponent, i)
				}
				continue
			}
			c.take(ordinal, name, f)
		}
	}
	return nil
}

// Decode builds component i from one row's values. values must be the row
// the plan was bound for; it is only read.
func (p *Plan) Decode(values []interface{}, i int) (interface{}, error) {
	if i < 0 || i >= len(p.components) {
		return nil, errors.New(errors.ErrorTypeValidation, "component index out of range").
			WithDetail(errors.DetailComponent, i)
	}
	if len(values) != len(p.names) {
		return nil, errors.New(errors.ErrorTypeDecode,
			fmt.Sprintf("row has %d values, plan expects %d", len(values), len(p.names)))
	}
	c := p.components[i]

	switch c.kind {
	case kindStruct:
		ptr := reflect.New(c.elem)
		elem := ptr.Elem()
		for _, col := range c.columns {
			dst := elem.FieldByIndex(col.field.index)
			if err := assign(dst, values[col.ordinal]); err != nil {
				return nil, columnError(err, col.name, c.typ)
			}
		}
		if c.ptr {
			return ptr.Interface(), nil
		}
		return elem.Interface(), nil

	case kindMap:
		m := reflect.MakeMapWithSize(c.typ, len(c.columns))
		for _, col := range c.columns {
			v := reflect.New(c.typ.Elem()).Elem()
			if err := assign(v, values[col.ordinal]); err != nil {
				return nil, columnError(err, col.name, c.typ)
			}
			m.SetMapIndex(reflect.ValueOf(col.name).Convert(c.typ.Key()), v)
		}
		return m.Interface(), nil

	case kindRecord:
		rec := models.NewRecord(len(c.columns))
		for _, col := range c.columns {
			rec.Set(col.name, values[col.ordinal])
		}
		return rec, nil

	default:
		v := reflect.New(c.typ).Elem()
		if len(c.columns) == 1 {
			col := c.columns[0]
			if err := assign(v, values[col.ordinal]); err != nil {
				return nil, columnError(err, col.name, c.typ)
			}
		}
		return v.Interface(), nil
	}
}

func columnError(err error, col string, t reflect.Type) error {
	return errors.Wrap(err, errors.ErrorTypeDecode, "cannot convert column").
		WithDetail(errors.DetailColumn, col).
		WithDetail(errors.DetailType, t.String())
}
