package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/audit"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/sql"
)

func newTestEngine(t *testing.T) (*Engine, *auth.Session) {
	t.Helper()
	access := auth.NewManager()
	access.Bootstrap()
	engine := NewEngine(ps.NewStore(), access, audit.NewLog(""))

	admin, err := engine.Authenticate(auth.BootstrapUser, "")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	return engine, admin
}

func mustExecute(t *testing.T, engine *Engine, session *auth.Session, query string) Result {
	t.Helper()
	result, err := engine.Execute(query, session)
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", query, err)
	}
	return result
}

func TestExecuteLifecycle(t *testing.T) {
	engine, admin := newTestEngine(t)

	result := mustExecute(t, engine, admin,
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER);")
	if commit := result.(CommitResult); commit.TablesCreated != 1 {
		t.Errorf("TablesCreated = %d, expected 1", commit.TablesCreated)
	}

	mustExecute(t, engine, admin, "INSERT INTO users VALUES (1, 'Ada', 36);")
	mustExecute(t, engine, admin, "INSERT INTO users (id, name) VALUES (2, 'Grace');")

	result = mustExecute(t, engine, admin, "SELECT name FROM users WHERE id = 2;")
	query := result.(QueryResult)
	if len(query.Rows) != 1 || query.Rows[0][0].Text != "Grace" {
		t.Errorf("Unexpected rows: %v", query.Rows)
	}

	result = mustExecute(t, engine, admin, "UPDATE users SET age = 46 WHERE name = 'Grace';")
	if commit := result.(CommitResult); commit.RecordsUpdated != 1 {
		t.Errorf("RecordsUpdated = %d, expected 1", commit.RecordsUpdated)
	}

	result = mustExecute(t, engine, admin, "DELETE FROM users WHERE id = 1;")
	if commit := result.(CommitResult); commit.RecordsDeleted != 1 {
		t.Errorf("RecordsDeleted = %d, expected 1", commit.RecordsDeleted)
	}

	result = mustExecute(t, engine, admin, "SELECT * FROM users;")
	if rows := result.(QueryResult).Rows; len(rows) != 1 {
		t.Errorf("Expected 1 row left, got %d", len(rows))
	}
}

func TestExecuteAlterTable(t *testing.T) {
	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE users (id INTEGER PRIMARY KEY);")
	mustExecute(t, engine, admin, "INSERT INTO users VALUES (1);")

	result := mustExecute(t, engine, admin, "ALTER TABLE users ADD COLUMN active BOOLEAN DEFAULT TRUE;")
	if commit := result.(CommitResult); commit.ColumnsAdded != 1 {
		t.Errorf("ColumnsAdded = %d, expected 1", commit.ColumnsAdded)
	}
	query := mustExecute(t, engine, admin, "SELECT active FROM users;").(QueryResult)
	if !query.Rows[0][0].Equal(core.NewBool(true)) {
		t.Errorf("Existing row not backfilled: %v", query.Rows[0])
	}

	mustExecute(t, engine, admin, "ALTER TABLE users RENAME TO people;")
	if _, err := engine.Execute("SELECT * FROM users;", admin); err == nil {
		t.Error("Expected old table name to be gone")
	}
	mustExecute(t, engine, admin, "SELECT * FROM people;")
}

func TestExecuteParseErrors(t *testing.T) {
	engine, admin := newTestEngine(t)

	_, err := engine.Execute("SELECT * FROM users", admin)
	if !errors.Is(err, sql.ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete, got %v", err)
	}

	_, err = engine.Execute("SELEC * FROM users;", admin)
	var parseErr *sql.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *sql.ParseError, got %v", err)
	}
}

func TestDefaultDeny(t *testing.T) {
	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE secrets (id INTEGER);")

	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	ada, err := engine.Authenticate("ada", "pw")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	_, err = engine.Execute("SELECT * FROM secrets;", ada)
	var denied *auth.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Expected *PermissionDeniedError, got %v", err)
	}

	// A denial changes nothing and repeats identically
	_, err2 := engine.Execute("SELECT * FROM secrets;", ada)
	if !errors.As(err2, &denied) {
		t.Errorf("Expected identical denial, got %v", err2)
	}

	// A read grant opens exactly read
	if err := engine.Grant(admin, "secrets", "ada", auth.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	mustExecute(t, engine, ada, "SELECT * FROM secrets;")
	if _, err := engine.Execute("INSERT INTO secrets VALUES (1);", ada); !errors.As(err, &denied) {
		t.Errorf("Expected insert denied with read grant, got %v", err)
	}
}

func TestMissingTableResolvedBeforePermissions(t *testing.T) {
	engine, admin := newTestEngine(t)
	if err := engine.CreateUser(admin, "bob", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	bob, _ := engine.Authenticate("bob", "pw")

	// A user with no grants querying an absent table learns the table
	// is missing, not that they lack access to it
	queries := []string{
		"SELECT * FROM missing;",
		"INSERT INTO missing VALUES (1);",
		"UPDATE missing SET id = 2;",
		"DELETE FROM missing;",
		"ALTER TABLE missing RENAME TO elsewhere;",
		"ALTER TABLE missing ADD COLUMN extra TEXT;",
	}
	for _, query := range queries {
		_, err := engine.Execute(query, bob)
		var noTable *ps.NoSuchTableError
		if !errors.As(err, &noTable) || noTable.Table != "missing" {
			t.Errorf("Execute(%q) = %v, expected *ps.NoSuchTableError", query, err)
		}
	}

	// And no access decision was recorded for a table that was never there
	for _, entry := range engine.Audit.ReadLatest(0) {
		if entry.Detail == "table missing" {
			t.Errorf("Unexpected audit entry for an absent table: %+v", entry)
		}
	}
}

func TestGrantRequiresTable(t *testing.T) {
	engine, admin := newTestEngine(t)
	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	var noTable *ps.NoSuchTableError
	if err := engine.Grant(admin, "phantom", "ada", auth.PermRead); !errors.As(err, &noTable) {
		t.Fatalf("Expected *ps.NoSuchTableError granting on an absent table, got %v", err)
	}
	if grants := engine.Access.GrantsFor("phantom"); len(grants) != 0 {
		t.Errorf("Orphan grant recorded: %v", grants)
	}
}

func TestCreateTableGrantsCreatorAdmin(t *testing.T) {
	engine, admin := newTestEngine(t)
	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := engine.CreateUser(admin, "grace", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	ada, _ := engine.Authenticate("ada", "pw")
	grace, _ := engine.Authenticate("grace", "pw")

	mustExecute(t, engine, ada, "CREATE TABLE notes (id INTEGER, body TEXT);")
	mustExecute(t, engine, ada, "INSERT INTO notes VALUES (1, 'mine');")

	// The creator holds table admin: they can grant others in
	if err := engine.Grant(ada, "notes", "grace", auth.PermRead); err != nil {
		t.Fatalf("Grant by creator failed: %v", err)
	}
	mustExecute(t, engine, grace, "SELECT * FROM notes;")

	// And manage schema
	mustExecute(t, engine, ada, "ALTER TABLE notes ADD COLUMN pinned BOOLEAN DEFAULT FALSE;")
}

func TestReadonlyRole(t *testing.T) {
	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE facts (id INTEGER);")
	mustExecute(t, engine, admin, "INSERT INTO facts VALUES (1);")

	if err := engine.CreateUser(admin, "viewer", "pw", auth.RoleReadonly); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	// Even a write grant cannot lift the readonly ceiling
	if err := engine.Grant(admin, "facts", "viewer", auth.PermWrite); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	viewer, _ := engine.Authenticate("viewer", "pw")

	mustExecute(t, engine, viewer, "SELECT * FROM facts;")

	var denied *auth.PermissionDeniedError
	if _, err := engine.Execute("INSERT INTO facts VALUES (2);", viewer); !errors.As(err, &denied) {
		t.Errorf("Expected insert denied, got %v", err)
	}
	if _, err := engine.Execute("CREATE TABLE own (id INTEGER);", viewer); !errors.As(err, &denied) {
		t.Errorf("Expected create denied, got %v", err)
	}
}

func TestRenameMigratesGrants(t *testing.T) {
	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE old_name (id INTEGER);")

	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := engine.Grant(admin, "old_name", "ada", auth.PermWrite); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	mustExecute(t, engine, admin, "ALTER TABLE old_name RENAME TO new_name;")

	ada, _ := engine.Authenticate("ada", "pw")
	mustExecute(t, engine, ada, "INSERT INTO new_name VALUES (1);")
}

func TestAdminBoundary(t *testing.T) {
	engine, admin := newTestEngine(t)
	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	ada, _ := engine.Authenticate("ada", "pw")

	var denied *auth.PermissionDeniedError
	if err := engine.CreateUser(ada, "eve", "pw", auth.RoleUser); !errors.As(err, &denied) {
		t.Errorf("Expected CreateUser denied for non-admin, got %v", err)
	}
	if err := engine.SetRole(ada, "ada", auth.RoleAdmin); !errors.As(err, &denied) {
		t.Errorf("Expected SetRole denied, got %v", err)
	}
	if _, err := engine.ReadAudit(ada, 10); !errors.As(err, &denied) {
		t.Errorf("Expected ReadAudit denied, got %v", err)
	}

	// Users change their own password but not others'
	if err := engine.SetPassword(ada, "ada", "new"); err != nil {
		t.Errorf("Self SetPassword failed: %v", err)
	}
	if err := engine.SetPassword(ada, auth.BootstrapUser, "x"); !errors.As(err, &denied) {
		t.Errorf("Expected SetPassword on another user denied, got %v", err)
	}
	if _, err := engine.Authenticate("ada", "new"); err != nil {
		t.Errorf("Authenticate with new password failed: %v", err)
	}
}

func TestAuditTrail(t *testing.T) {
	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE t (id INTEGER);")

	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	ada, _ := engine.Authenticate("ada", "pw")
	if _, err := engine.Execute("SELECT * FROM t;", ada); err == nil {
		t.Fatal("Expected denial")
	}

	entries, err := engine.ReadAudit(admin, 1)
	if err != nil {
		t.Fatalf("ReadAudit failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, expected 1", len(entries))
	}
	latest := entries[0]
	if latest.User != "ada" || latest.Action != "select" || latest.Outcome != audit.OutcomeDenied {
		t.Errorf("Unexpected latest entry: %+v", latest)
	}

	// Failed logins are recorded too
	if _, err := engine.Authenticate("ada", "wrong"); err == nil {
		t.Fatal("Expected failed login")
	}
	entries, _ = engine.ReadAudit(admin, 1)
	if entries[0].Action != "login" || entries[0].Outcome != audit.OutcomeDenied {
		t.Errorf("Unexpected entry for failed login: %+v", entries[0])
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.aether")

	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, born DATE);")
	mustExecute(t, engine, admin, "INSERT INTO users VALUES (1, 'Ada', '1815-12-10');")
	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := engine.Grant(admin, "users", "ada", auth.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	if err := engine.Save(admin, path, "hunter2"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored, restoredAdmin := newTestEngine(t)
	if err := restored.Load(restoredAdmin, path, "hunter2"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	query := mustExecute(t, restored, restoredAdmin, "SELECT * FROM users;").(QueryResult)
	if len(query.Rows) != 1 || query.Rows[0][2].String() != "1815-12-10" {
		t.Errorf("Unexpected rows after load: %v", query.Rows)
	}

	// Users and grants survive the round trip
	ada, err := restored.Authenticate("ada", "pw")
	if err != nil {
		t.Fatalf("Authenticate after load failed: %v", err)
	}
	mustExecute(t, restored, ada, "SELECT * FROM users;")

	// Wrong passphrase leaves the running database untouched
	badEngine, badAdmin := newTestEngine(t)
	mustExecute(t, badEngine, badAdmin, "CREATE TABLE keepme (id INTEGER);")
	if err := badEngine.Load(badAdmin, path, "wrong"); !errors.Is(err, ps.ErrDecrypt) {
		t.Fatalf("Expected ErrDecrypt, got %v", err)
	}
	mustExecute(t, badEngine, badAdmin, "SELECT * FROM keepme;")
}

func TestSaveRequiresAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.aether")
	engine, admin := newTestEngine(t)
	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	ada, _ := engine.Authenticate("ada", "pw")

	var denied *auth.PermissionDeniedError
	if err := engine.Save(ada, path, "pw"); !errors.As(err, &denied) {
		t.Errorf("Expected Save denied, got %v", err)
	}
	if err := engine.Load(ada, path, "pw"); !errors.As(err, &denied) {
		t.Errorf("Expected Load denied, got %v", err)
	}
}

func TestTablesVisibility(t *testing.T) {
	engine, admin := newTestEngine(t)
	mustExecute(t, engine, admin, "CREATE TABLE a (id INTEGER);")
	mustExecute(t, engine, admin, "CREATE TABLE b (id INTEGER);")

	if err := engine.CreateUser(admin, "ada", "pw", auth.RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := engine.Grant(admin, "b", "ada", auth.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	ada, _ := engine.Authenticate("ada", "pw")

	all, err := engine.Tables(admin)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Admin sees %d tables, expected 2", len(all))
	}

	visible, err := engine.Tables(ada)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if len(visible) != 1 || visible[0] != "b" {
		t.Errorf("ada sees %v, expected [b]", visible)
	}
}
