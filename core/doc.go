// Package core provides core types used throughout AetherDB.
//
// The package defines fundamental types like Table, Column, Row, and the
// Value tagged union, plus the type system used by both the SQL parser's
// literal evaluation and the execution engine's WHERE/SET handling.
//
// # Values
//
// A Value holds exactly one of the runtime kinds a cell can take:
//
//	core.NewInt(42)
//	core.NewText("Ada")
//	core.NewBool(true)
//	core.NewDate(t)   // calendar day, no time component
//	core.Null()
//
// # Column Types
//
// Supported column types:
//   - IntType: Signed integers
//   - TextType: Arbitrary-length text
//   - BoolType: Boolean values
//   - DateType: Calendar dates (YYYY-MM-DD, no time component)
//
// # Coercion
//
// All conversion between literals and declared column types goes through
// Coerce, which only permits lossless conversions:
//
//	v, err := core.Coerce(core.NewText("12"), core.Column{Name: "id", Type: core.IntType})
//	// v is core.NewInt(12)
//
// Comparison across mismatched kinds is a *TypeError, never silently false.
package core
