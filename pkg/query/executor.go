// Package query runs statements and materializes their rows with a
// structure reader.
//
// Only the start of a query is retried, and only on connection or timeout
// failures. Once the first row has been consumed a failure is returned as is.
package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/rowmap/pkg/config"
	"github.com/ajitpratap0/rowmap/pkg/cursor"
	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/logger"
	"github.com/ajitpratap0/rowmap/pkg/structure"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// PgxQueryer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type PgxQueryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Executor starts queries with retries and hands their rows to a reader.
type Executor struct {
	retry  *RetryPolicy
	logger *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(rp *RetryPolicy) ExecutorOption {
	return func(e *Executor) {
		e.retry = rp
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates an executor with the default retry policy.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) log(ctx context.Context) *zap.Logger {
	if e.logger != nil {
		return e.logger
	}
	return logger.WithContext(ctx)
}

// Query runs query on db and reads every row with reader. The rows are
// closed before Query returns.
func Query[C any](ctx context.Context, e *Executor, db Queryer, reader structure.Reader[C], query string, args ...interface{}) (C, error) {
	var rows *sql.Rows
	err := e.retry.Execute(ctx, func() error {
		r, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			e.log(ctx).Warn("query failed", zap.Error(err))
			return classify(err)
		}
		rows = r
		return nil
	})
	if err != nil {
		var zero C
		return zero, err
	}
	defer rows.Close()

	return reader.ReadContext(ctx, cursor.FromSQL(rows))
}

// QueryPgx is Query for pgx connections and pools.
func QueryPgx[C any](ctx context.Context, e *Executor, db PgxQueryer, reader structure.Reader[C], query string, args ...interface{}) (C, error) {
	var rows pgx.Rows
	err := e.retry.Execute(ctx, func() error {
		r, err := db.Query(ctx, query, args...)
		if err != nil {
			e.log(ctx).Warn("query failed", zap.Error(err))
			return classify(err)
		}
		rows = r
		return nil
	})
	if err != nil {
		var zero C
		return zero, err
	}
	defer rows.Close()

	return reader.ReadContext(ctx, cursor.FromPgx(rows))
}

// classify types a driver error so the retry policy can judge it.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(err, errors.ErrorTypeQuery, "query aborted")
	case errors.Is(err, driver.ErrBadConn), pgconn.SafeToRetry(err):
		return errors.Wrap(err, errors.ErrorTypeConnection, "connection failed")
	case pgconn.Timeout(err):
		return errors.Wrap(err, errors.ErrorTypeTimeout, "query timed out")
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "query timed out")
		}
		return errors.Wrap(err, errors.ErrorTypeConnection, "connection failed")
	default:
		return errors.Wrap(err, errors.ErrorTypeQuery, "query failed")
	}
}

// OpenDB opens and pings a database/sql handle for a registered driver.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "connection string is required")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open database connection")
	}

	pingCtx, cancel := timeout(ctx, cfg)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "database ping failed")
	}
	return db, nil
}

// OpenPool creates a pgx pool and checks one connection.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "connection string is required")
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse PostgreSQL connection string")
	}
	if cfg.Timeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create PostgreSQL connection pool")
	}

	pingCtx, cancel := timeout(ctx, cfg)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "health check failed")
	}
	return pool, nil
}

func timeout(ctx context.Context, cfg config.DatabaseConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
