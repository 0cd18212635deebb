// Package structure materializes query cursors into lists of composite
// records.
//
// A reader declares an ordered tuple of 1..16 component types. For every row
// it decodes one instance of each type from the same row, merges components
// 2..N into the primary component, and appends the primary to a List. Lists
// are built completely before they are returned; they are not lazy streams.
//
// # Basic Usage
//
//	reader, err := structure.Default[*Order](structure.TypeOf[*Customer]())
//	if err != nil {
//		return err
//	}
//	orders, err := reader.ReadContext(ctx, cursor.FromSQL(rows))
//
// With the default AssignByType merger, the *Customer of each row is stored
// in the first free *Customer field of its *Order.
//
// # Cancellation
//
// Read never checks for cancellation. ReadContext and ReadAsync check the
// context before every row fetch, and a fetch already started always
// completes. A cancelled read returns the rows read so far together with an
// error for which errors.IsCancelled and errors.Is(err, context.Canceled)
// both hold. Every other failure returns no list at all.
//
// # Contracts
//
// An Adapter exposes the list through an interface it implements, such as
// ReadOnlyList[T], without copying. ReturnType reports the declared
// contract so a dispatcher can choose among readers with SelectReader.
//
// # Shared readers
//
// Readers are immutable. Default and DefaultAdapter cache one instance per
// type tuple in a process-wide Registry.
package structure
