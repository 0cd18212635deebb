package structure

import (
	"context"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/rowmap/pkg/binder"
	"github.com/ajitpratap0/rowmap/pkg/config"
	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/logger"
	"github.com/ajitpratap0/rowmap/pkg/metrics"
)

// QueryReader is the arity-independent view of a reader, used by
// dispatchers that choose a reader by its declared result type.
type QueryReader interface {
	// ReadAny materializes cur on the calling goroutine.
	ReadAny(cur Cursor) (interface{}, error)
	// ReadAnyAsync materializes cur on a new goroutine, honouring ctx
	// between row fetches.
	ReadAnyAsync(ctx context.Context, cur Cursor) *Future[interface{}]
	// ReturnType is the declared result type. It never invokes the reader.
	ReturnType() reflect.Type
	// Arity is the number of components composed per row.
	Arity() int
}

// Reader materializes a cursor into a result of type C.
type Reader[C any] interface {
	QueryReader
	Read(cur Cursor) (C, error)
	ReadContext(ctx context.Context, cur Cursor) (C, error)
	ReadAsync(ctx context.Context, cur Cursor) *Future[C]
}

// TypeOf returns the reflect.Type of T, interface types included.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// SelectReader returns the first reader whose declared type is want, or
// failing that the first whose declared type is assignable to want.
func SelectReader(readers []QueryReader, want reflect.Type) (QueryReader, bool) {
	for _, r := range readers {
		if r.ReturnType() == want {
			return r, true
		}
	}
	for _, r := range readers {
		if r.ReturnType().AssignableTo(want) {
			return r, true
		}
	}
	return nil, false
}

// Option configures a ListReader.
type Option func(*readerOptions)

type readerOptions struct {
	components []reflect.Type
	merger     Merger
	decoder    Decoder
	capacity   int
	logger     *zap.Logger
	metrics    *metrics.Collector
	name       string
}

// WithComponents declares the component types 2..N composed with the primary.
func WithComponents(types ...reflect.Type) Option {
	return func(o *readerOptions) {
		o.components = append(o.components, types...)
	}
}

// WithMerger sets the merge policy; the default is AssignByType.
func WithMerger(m Merger) Option {
	return func(o *readerOptions) {
		o.merger = m
	}
}

// WithDecoder replaces the struct field decoder.
func WithDecoder(d Decoder) Option {
	return func(o *readerOptions) {
		o.decoder = d
	}
}

// WithCapacity sets the initial capacity of materialized lists.
func WithCapacity(n int) Option {
	return func(o *readerOptions) {
		o.capacity = n
	}
}

// WithLogger sets the logger; by default the global logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(o *readerOptions) {
		o.logger = l
	}
}

// WithMetrics sets the collector; by default one is created on the default
// Prometheus registerer.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *readerOptions) {
		o.metrics = c
	}
}

// WithName sets the reader name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(o *readerOptions) {
		o.name = name
	}
}

// WithConfig applies the reader section of cfg: list capacity and the field
// binder options.
func WithConfig(cfg *config.Config) Option {
	return func(o *readerOptions) {
		if cfg == nil {
			return
		}
		rc := cfg.Reader
		if rc.InitialCapacity > 0 {
			o.capacity = rc.InitialCapacity
		}
		o.decoder = NewStructDecoder(binder.Options{
			TagName:       rc.TagName,
			StrictColumns: rc.StrictColumns,
			SplitOn:       rc.SplitOn,
		})
	}
}

// ListReader composes rows into records of the primary type T and collects
// them into a *List[T]. It holds no per-call state and is safe to share.
type ListReader[T any] struct {
	name     string
	composer *Composer
	decoder  Decoder
	capacity int
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewListReader creates a reader with primary type T.
func NewListReader[T any](opts ...Option) (*ListReader[T], error) {
	o := readerOptions{capacity: config.Default().Reader.InitialCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	types := append([]reflect.Type{TypeOf[T]()}, o.components...)
	composer, err := NewComposer(types, o.merger)
	if err != nil {
		return nil, err
	}

	if o.decoder == nil {
		o.decoder = defaultDecoder
	}
	if o.capacity < 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "negative list capacity %d", o.capacity)
	}
	if o.name == "" {
		o.name = readerName(types)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewCollector(o.name)
	}

	return &ListReader[T]{
		name:     o.name,
		composer: composer,
		decoder:  o.decoder,
		capacity: o.capacity,
		logger:   o.logger,
		metrics:  o.metrics,
	}, nil
}

func readerName(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, "+")
}

// Name returns the reader name.
func (r *ListReader[T]) Name() string {
	return r.name
}

// Arity returns the number of components per row.
func (r *ListReader[T]) Arity() int {
	return r.composer.Arity()
}

// ReturnType returns the type of *List[T].
func (r *ListReader[T]) ReturnType() reflect.Type {
	return TypeOf[*List[T]]()
}

// Read materializes cur on the calling goroutine. It never checks for
// cancellation; any error discards the rows read so far.
func (r *ListReader[T]) Read(cur Cursor) (*List[T], error) {
	return r.materializer().run(context.Background(), cur, false)
}

// ReadContext is Read with ctx checked before every row fetch. When ctx ends
// the rows read so far are returned with a cancelled error.
func (r *ListReader[T]) ReadContext(ctx context.Context, cur Cursor) (*List[T], error) {
	return r.materializer().run(ctx, cur, true)
}

// ReadAsync runs ReadContext on a new goroutine.
func (r *ListReader[T]) ReadAsync(ctx context.Context, cur Cursor) *Future[*List[T]] {
	return runAsync(func() (*List[T], error) {
		return r.ReadContext(ctx, cur)
	})
}

// ReadAny implements QueryReader.
func (r *ListReader[T]) ReadAny(cur Cursor) (interface{}, error) {
	return boxList(r.Read(cur))
}

// ReadAnyAsync implements QueryReader.
func (r *ListReader[T]) ReadAnyAsync(ctx context.Context, cur Cursor) *Future[interface{}] {
	return thenSync(r.ReadAsync(ctx, cur), boxList[T])
}

// boxList keeps a failed read from producing a non-nil interface.
func boxList[T any](l *List[T], err error) (interface{}, error) {
	if l == nil {
		return nil, err
	}
	return l, err
}

func (r *ListReader[T]) materializer() *materializer[T] {
	log := r.logger
	if log == nil {
		log = logger.Get()
	}
	return &materializer[T]{
		name:     r.name,
		composer: r.composer,
		decoder:  r.decoder,
		capacity: r.capacity,
		logger:   log,
		metrics:  r.metrics,
	}
}
