package db

import (
	"fmt"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/audit"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
)

// Engine-level operations that live outside the SQL dialect: login,
// user and grant management, the audit trail, and snapshots. Shells
// and servers reach these through meta-commands and protocol verbs.

// Authenticate verifies credentials and opens a session. Both success
// and failure are audited.
func (engine *Engine) Authenticate(username, password string) (*auth.Session, error) {
	session, err := engine.Access.Authenticate(username, password)
	if err != nil {
		engine.Audit.Record(username, "login", "", audit.OutcomeDenied)
		return nil, err
	}
	engine.Audit.Record(username, "login", "", audit.OutcomeOK)
	return session, nil
}

// Resume opens a session for an identity already verified elsewhere,
// such as a validated server token.
func (engine *Engine) Resume(username string) (*auth.Session, error) {
	return engine.Access.Resume(username)
}

// CreateUser adds a user. Global admins only.
func (engine *Engine) CreateUser(session *auth.Session, username, password string, role auth.Role) error {
	if err := engine.Access.RequireAdmin(session); err != nil {
		engine.Audit.Record(userOf(session), "add_user", "user "+username, audit.OutcomeDenied)
		return err
	}
	err := engine.Access.CreateUser(username, password, role)
	return engine.finish(session, "add_user", fmt.Sprintf("user %s role %s", username, role), err)
}

// SetPassword changes a password. Users may change their own; anyone
// else's requires global admin.
func (engine *Engine) SetPassword(session *auth.Session, username, password string) error {
	if session == nil {
		return auth.ErrNotAuthenticated
	}
	if session.User != username {
		if err := engine.Access.RequireAdmin(session); err != nil {
			engine.Audit.Record(session.User, "passwd", "user "+username, audit.OutcomeDenied)
			return err
		}
	}
	err := engine.Access.SetPassword(username, password)
	return engine.finish(session, "passwd", "user "+username, err)
}

// SetRole changes a user's role. Global admins only.
func (engine *Engine) SetRole(session *auth.Session, username string, role auth.Role) error {
	if err := engine.Access.RequireAdmin(session); err != nil {
		engine.Audit.Record(userOf(session), "set_role", "user "+username, audit.OutcomeDenied)
		return err
	}
	err := engine.Access.SetRole(username, role)
	return engine.finish(session, "set_role", fmt.Sprintf("user %s role %s", username, role), err)
}

// Grant gives a user a permission level on a table. Requires table
// admin (or global admin) on that table. The table must exist, so a
// rename can never leave a grant behind on a name nothing owns.
func (engine *Engine) Grant(session *auth.Session, table, username string, level auth.Permission) error {
	if !engine.Store.HasTable(table) {
		return &ps.NoSuchTableError{Table: table}
	}
	if err := engine.Access.Check(session, table, auth.PermAdmin); err != nil {
		engine.Audit.Record(userOf(session), "grant", "table "+table, audit.OutcomeDenied)
		return err
	}
	err := engine.Access.Grant(table, username, level)
	return engine.finish(session, "grant", fmt.Sprintf("%s on table %s to %s", level, table, username), err)
}

// Revoke removes a user's grant on a table. Same requirement as Grant.
func (engine *Engine) Revoke(session *auth.Session, table, username string) error {
	if err := engine.Access.Check(session, table, auth.PermAdmin); err != nil {
		engine.Audit.Record(userOf(session), "revoke", "table "+table, audit.OutcomeDenied)
		return err
	}
	err := engine.Access.Revoke(table, username)
	return engine.finish(session, "revoke", fmt.Sprintf("table %s from %s", table, username), err)
}

// ReadAudit returns the latest audit entries, newest first. Global
// admins only; n <= 0 returns everything.
func (engine *Engine) ReadAudit(session *auth.Session, n int) ([]audit.Entry, error) {
	if err := engine.Access.RequireAdmin(session); err != nil {
		engine.Audit.Record(userOf(session), "read_audit", "", audit.OutcomeDenied)
		return nil, err
	}
	return engine.Audit.ReadLatest(n), nil
}

// Tables lists the tables the session's user can read.
func (engine *Engine) Tables(session *auth.Session) ([]string, error) {
	if session == nil {
		return nil, auth.ErrNotAuthenticated
	}
	var visible []string
	for _, name := range engine.Store.ListTables() {
		if engine.Access.Check(session, name, auth.PermRead) == nil {
			visible = append(visible, name)
		}
	}
	return visible, nil
}

// Save snapshots the whole database to a path or URL, encrypted when a
// passphrase is given. Global admins only. The engine lock keeps the
// snapshot consistent against concurrent statements.
func (engine *Engine) Save(session *auth.Session, path, passphrase string) error {
	if err := engine.Access.RequireAdmin(session); err != nil {
		engine.Audit.Record(userOf(session), "save", "file "+path, audit.OutcomeDenied)
		return err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	snap := ps.Snapshot{
		Tables: engine.Store.Export(),
		Users:  engine.Access.Users(),
		Grants: engine.Access.Grants(),
	}
	err := ps.Save(path, snap, passphrase, engine.Remote)
	return engine.finish(session, "save", "file "+path, err)
}

// Load replaces the whole database from a snapshot. Global admins
// only. Nothing changes if the snapshot cannot be read.
func (engine *Engine) Load(session *auth.Session, path, passphrase string) error {
	if err := engine.Access.RequireAdmin(session); err != nil {
		engine.Audit.Record(userOf(session), "load", "file "+path, audit.OutcomeDenied)
		return err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	snap, err := ps.Load(path, passphrase, engine.Remote)
	if err != nil {
		return engine.finish(session, "load", "file "+path, err)
	}

	engine.Store.Restore(snap.Tables)
	engine.Access.Restore(snap.Users, snap.Grants)
	return engine.finish(session, "load", "file "+path, nil)
}
