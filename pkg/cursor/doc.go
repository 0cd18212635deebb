// Package cursor adapts row sources to the forward-only cursor consumed by
// structure readers: database/sql rows, pgx rows, MongoDB cursors, Arrow
// record batches, newline-delimited JSON and in-memory fixtures.
//
// Adapters never close the source they wrap; the caller owns it.
package cursor
