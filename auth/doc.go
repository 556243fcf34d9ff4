// Package auth implements AetherDB's users, roles and per-table
// grants.
//
// Every database user has a role (admin, user or readonly) and may
// hold per-table grants at three ordered levels: read, write and admin.
// Access decisions are default-deny; see Manager.Check for the exact
// resolution order. Passwords are stored as bcrypt hashes.
//
// A fresh database always contains the bootstrap user "aether", a
// global admin with no password.
package auth
