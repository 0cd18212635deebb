// Package rowmap composes the flat rows of a query cursor into typed,
// nested records.
//
// A query that joins several tables returns rows whose columns belong to
// more than one entity. rowmap decodes every row into an ordered tuple of up
// to sixteen component types, merges the later components into the first
// one, and materializes the results into a List.
//
// # Packages
//
//   - pkg/structure: readers, composition, merging, adapters and the shared
//     registry of default readers
//   - pkg/binder: column-to-field binding plans and value conversion
//   - pkg/cursor: cursors over database/sql, pgx, MongoDB, Arrow records,
//     JSON lines and in-memory rows
//   - pkg/query: running statements with retries and reading the result
//   - pkg/config, pkg/logger, pkg/metrics, pkg/observability: configuration,
//     structured logging, Prometheus metrics and OpenTelemetry tracing
//
// # Quick Start
//
//	reader, err := structure.Default[*Order](structure.TypeOf[*Customer]())
//	if err != nil {
//		return err
//	}
//	rows, err := db.QueryContext(ctx, `SELECT o.*, c.* FROM orders o JOIN customers c ON c.id = o.customer_id`)
//	if err != nil {
//		return err
//	}
//	defer rows.Close()
//	orders, err := reader.ReadContext(ctx, cursor.FromSQL(rows))
//
// The rowmap command runs the same composition over dynamic records:
//
//	rowmap query --driver pgx --dsn "$DATABASE_URL" --split-on id "SELECT ..."
package rowmap
