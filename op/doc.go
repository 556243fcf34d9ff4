// Package op implements table-level operations: the row filtering,
// projection, coercion and schema changes behind each SQL statement.
//
// A TableOp binds a store to one table name. Operations validate and
// coerce everything they are about to do before mutating the store, so
// a statement either applies completely or not at all.
package op
