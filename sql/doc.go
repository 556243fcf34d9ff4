// Package sql lexes and parses the restricted SQL dialect AetherDB
// accepts. The dialect is deliberately small: seven statement kinds,
// one table per statement, conjunction-only WHERE clauses, and typed
// literals only.
//
// # Parsing
//
// Parse compiles one semicolon-terminated statement into a closed set
// of Statement variants, discriminated by Type():
//
//	statement, err := sql.Parse("SELECT * FROM users WHERE id = 1;")
//	if err != nil { ... }
//	switch s := statement.(type) {
//	case sql.SelectStatement:
//		...
//	}
//
// Input that is valid so far but unfinished (no terminating semicolon,
// or an unterminated string literal) returns an error wrapping
// ErrIncomplete, which interactive callers use to prompt for more
// input. Everything else that fails to parse is a *ParseError carrying
// the byte offset and nearby text.
//
// The parser performs no name resolution: table and column existence,
// typing, and permissions are checked at execution time.
package sql
