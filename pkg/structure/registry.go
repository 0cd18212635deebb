package structure

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/metrics"
)

// Registry caches one reader per (contract, type tuple). Reads are lock-free;
// concurrent first requests for a key build a single reader. Entries are
// never replaced.
type Registry struct {
	entries sync.Map // registryKey -> QueryReader
	group   singleflight.Group
	count   atomic.Int64
	gauge   prometheus.Gauge
}

type registryKey struct {
	contract reflect.Type
	adapter  bool
	arity    int
	types    [MaxArity]reflect.Type
}

// String identifies the key for singleflight; type pointers are unique per
// type within a process.
func (k registryKey) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%p/%t/%d", k.contract, k.adapter, k.arity)
	for _, t := range k.types[:k.arity] {
		fmt.Fprintf(&sb, "/%p", t)
	}
	return sb.String()
}

// NewRegistry creates an empty registry reporting its size to gauge, which
// may be nil.
func NewRegistry(gauge prometheus.Gauge) *Registry {
	return &Registry{gauge: gauge}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(metrics.Default().RegistryEntries)
})

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Len returns the number of cached readers.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Lookup returns the cached reader declared as contract for the type tuple,
// without creating one.
func (r *Registry) Lookup(contract reflect.Type, types ...reflect.Type) (QueryReader, bool) {
	if len(types) < 1 || len(types) > MaxArity {
		return nil, false
	}
	for _, adapter := range []bool{false, true} {
		if v, ok := r.entries.Load(newRegistryKey(contract, adapter, types)); ok {
			return v.(QueryReader), true
		}
	}
	return nil, false
}

func newRegistryKey(contract reflect.Type, adapter bool, types []reflect.Type) registryKey {
	k := registryKey{contract: contract, adapter: adapter, arity: len(types)}
	copy(k.types[:], types)
	return k
}

func (r *Registry) load(key registryKey, build func() (QueryReader, error)) (QueryReader, error) {
	if v, ok := r.entries.Load(key); ok {
		return v.(QueryReader), nil
	}
	v, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		if v, ok := r.entries.Load(key); ok {
			return v, nil
		}
		reader, err := build()
		if err != nil {
			return nil, err
		}
		r.entries.Store(key, reader)
		n := r.count.Add(1)
		if r.gauge != nil {
			r.gauge.Set(float64(n))
		}
		return reader, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(QueryReader), nil
}

func tuple[T any](components []reflect.Type) ([]reflect.Type, error) {
	if len(components)+1 > MaxArity {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"arity %d is outside 1..%d", len(components)+1, MaxArity)
	}
	return append([]reflect.Type{TypeOf[T]()}, components...), nil
}

// Default returns the shared reader for primary type T and the given
// secondary component types, creating it on first use. Default readers use
// the struct field decoder and AssignByType.
func Default[T any](components ...reflect.Type) (*ListReader[T], error) {
	return DefaultIn[T](DefaultRegistry(), components...)
}

// DefaultIn is Default on registry r.
func DefaultIn[T any](r *Registry, components ...reflect.Type) (*ListReader[T], error) {
	types, err := tuple[T](components)
	if err != nil {
		return nil, err
	}
	key := newRegistryKey(TypeOf[*List[T]](), false, types)
	v, err := r.load(key, func() (QueryReader, error) {
		return NewListReader[T](WithComponents(components...))
	})
	if err != nil {
		return nil, err
	}
	return v.(*ListReader[T]), nil
}

// DefaultAdapter returns the shared adapter presenting the default reader for
// T and components as C.
func DefaultAdapter[C any, T any](components ...reflect.Type) (*Adapter[C, T], error) {
	return DefaultAdapterIn[C, T](DefaultRegistry(), components...)
}

// DefaultAdapterIn is DefaultAdapter on registry r.
func DefaultAdapterIn[C any, T any](r *Registry, components ...reflect.Type) (*Adapter[C, T], error) {
	types, err := tuple[T](components)
	if err != nil {
		return nil, err
	}
	key := newRegistryKey(TypeOf[C](), true, types)
	v, err := r.load(key, func() (QueryReader, error) {
		reader, err := DefaultIn[T](r, components...)
		if err != nil {
			return nil, err
		}
		return NewAdapter[C, T](reader)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Adapter[C, T]), nil
}
