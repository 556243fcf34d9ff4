// Package db is AetherDB's execution engine. It compiles statements
// through the sql package, runs them through op against the store, and
// wraps the outcome in a Result for display or serialization.
//
// Every call carries an *auth.Session; the engine checks permissions
// before touching any table and writes every decision and outcome to
// the audit log. Statements are atomic: a statement that fails part
// way through leaves no visible change.
//
// Beyond SQL, the engine exposes the operations shells and servers
// need: Authenticate, user and grant management, ReadAudit, and the
// Save/Load snapshot pair.
package db
