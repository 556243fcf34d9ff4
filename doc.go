// Package aetherdb provides a single-process SQL database with
// per-table access control and encrypted snapshot persistence.
//
// Data lives in memory while the process runs; an explicit save writes
// the whole database as one AES-256 encrypted file, and a load
// replaces it from one. Every statement is checked against per-table
// grants and recorded in an append-only audit log.
//
// # Quick Start
//
//	instance := aetherdb.Open("")
//	engine := instance.Engine()
//
//	session, _ := engine.Authenticate("aether", "")
//	engine.Execute("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);", session)
//	engine.Execute("INSERT INTO users VALUES (1, 'Ada');", session)
//
//	result, _ := engine.Execute("SELECT * FROM users;", session)
//	result.Display()
//
//	engine.Save(session, "db.aether", "passphrase")
//
// # Supported SQL
//
// AetherDB implements a deliberately small dialect:
//   - CREATE TABLE with INTEGER, TEXT, BOOLEAN and DATE columns
//   - INSERT (positional or named columns), SELECT, UPDATE, DELETE
//   - WHERE with =, !=, <, <=, >, >= joined by AND
//   - ALTER TABLE ... RENAME TO / ADD COLUMN ... [DEFAULT ...]
//
// Users, roles, grants, the audit trail and snapshots are managed
// through engine methods and the shell's meta-commands rather than
// SQL.
package aetherdb
