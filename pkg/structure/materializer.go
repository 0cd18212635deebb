package structure

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/metrics"
	"github.com/ajitpratap0/rowmap/pkg/observability"
)

// materializer drives one cursor to exhaustion. It is built per call from
// the immutable reader state.
type materializer[T any] struct {
	name     string
	composer *Composer
	decoder  Decoder
	capacity int
	logger   *zap.Logger
	metrics  *metrics.Collector
}

func (m *materializer[T]) run(ctx context.Context, cur Cursor, cancellable bool) (*List[T], error) {
	timer := metrics.NewTimer()
	ctx, span := observability.StartMaterialize(ctx, m.name, m.composer.Arity())
	log := m.logger.With(zap.String("reader", m.name), zap.Int("arity", m.composer.Arity()))
	log.Debug("materialization started")

	list, err := m.loop(ctx, cur, cancellable)

	rows := list.Len()
	outcome := outcomeOf(err)
	cancelled := outcome == metrics.OutcomeCancelled
	elapsed := timer.Stop()
	span.End(rows, outcome, err, cancelled)
	m.metrics.Observe(outcome, rows, elapsed)

	switch {
	case err == nil:
		log.Debug("materialization finished",
			zap.Int("rows", rows),
			zap.Duration("duration", elapsed))
	case cancelled:
		log.Info("materialization cancelled",
			zap.Int("partial_rows", rows),
			zap.Error(err))
	default:
		log.Warn("materialization failed",
			zap.String("outcome", outcome),
			zap.Error(err))
	}
	return list, err
}

func (m *materializer[T]) loop(ctx context.Context, cur Cursor, cancellable bool) (*List[T], error) {
	list := newListCap[T](m.capacity)

	var (
		binding Binding
		columns []string
	)
	for index := 0; ; index++ {
		if cancellable {
			if err := ctx.Err(); err != nil {
				return list, cancelledError(err, list.Len())
			}
		}

		if !cur.Next() {
			err := cur.Err()
			if err == nil {
				return list, nil
			}
			// a driver aborting the fetch because ctx ended is still cancellation
			if cancellable && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return list, cancelledError(err, list.Len())
			}
			return nil, cursorError(err, index)
		}

		values, err := cur.Values()
		if err != nil {
			return nil, cursorError(err, index)
		}

		if binding == nil {
			if columns, err = cur.Columns(); err != nil {
				return nil, cursorError(err, index)
			}
			if binding, err = m.decoder.Bind(columns, m.composer.types); err != nil {
				return nil, bindError(err, index)
			}
		}

		rec, err := m.composer.Compose(binding, Row{Index: index, Columns: columns, Values: values})
		if err != nil {
			return nil, err
		}
		v, err := record[T](rec, index, m.composer.types[0])
		if err != nil {
			return nil, err
		}
		list.append(v)
	}
}

// record converts the composed primary to T. A nil primary is the zero T.
func record[T any](rec interface{}, index int, t reflect.Type) (T, error) {
	if rec == nil {
		var zero T
		return zero, nil
	}
	v, ok := rec.(T)
	if !ok {
		var zero T
		return zero, errors.Newf(errors.ErrorTypeDecode, "composed record is %T", rec).
			WithDetail(errors.DetailRow, index).
			WithDetail(errors.DetailComponent, 0).
			WithDetail(errors.DetailType, t.String())
	}
	return v, nil
}

func cursorError(err error, index int) error {
	return errors.Wrap(err, errors.ErrorTypeCursor, "cursor fetch failed").
		WithDetail(errors.DetailRow, index)
}

func cancelledError(err error, partial int) error {
	return errors.Wrap(err, errors.ErrorTypeCancelled, "materialization cancelled").
		WithDetail(errors.DetailPartial, partial)
}

// bindError keeps the type of structured binder errors, types the rest as
// decode failures, and adds the row that triggered binding.
func bindError(err error, index int) error {
	var inner *errors.Error
	if errors.As(err, &inner) {
		e := *inner
		e.Details = make(map[string]interface{}, len(inner.Details)+1)
		for k, v := range inner.Details {
			e.Details[k] = v
		}
		return e.WithDetail(errors.DetailRow, index)
	}
	return errors.Wrap(err, errors.ErrorTypeDecode, "cannot bind columns").
		WithDetail(errors.DetailRow, index)
}

func outcomeOf(err error) string {
	var e *errors.Error
	if err == nil {
		return metrics.OutcomeOK
	}
	if !errors.As(err, &e) {
		return metrics.OutcomeError
	}
	switch e.Type {
	case errors.ErrorTypeDecode:
		return metrics.OutcomeDecodeError
	case errors.ErrorTypeCursor:
		return metrics.OutcomeCursorError
	case errors.ErrorTypeMerge:
		return metrics.OutcomeMergeError
	case errors.ErrorTypeCancelled:
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeError
	}
}
