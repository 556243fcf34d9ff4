package db

import (
	"fmt"
	"sync"
	"time"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/audit"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/op"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/sql"
)

// Engine executes statements against the store, with every access
// decided by the auth manager and every action written to the audit
// log. The mutex makes check-execute-audit atomic per statement and
// gives Save and Load an exclusive view of the database.
type Engine struct {
	Store  *ps.Store
	Access *auth.Manager
	Audit  *audit.Log
	Remote *ps.RemoteConfig

	mu sync.Mutex
}

func NewEngine(store *ps.Store, access *auth.Manager, auditLog *audit.Log) *Engine {
	return &Engine{Store: store, Access: access, Audit: auditLog}
}

// Execute parses and runs one statement on behalf of the session.
func (engine *Engine) Execute(query string, session *auth.Session) (Result, error) {
	statement, err := sql.Parse(query)
	if err != nil {
		return nil, err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	switch statement.Type() {
	case sql.SelectType:
		return engine.executeSelect(statement.(sql.SelectStatement), session)
	case sql.InsertType:
		return engine.executeInsert(statement.(sql.InsertStatement), session)
	case sql.UpdateType:
		return engine.executeUpdate(statement.(sql.UpdateStatement), session)
	case sql.DeleteType:
		return engine.executeDelete(statement.(sql.DeleteStatement), session)
	case sql.CreateTableType:
		return engine.executeCreateTable(statement.(sql.CreateTableStatement), session)
	case sql.RenameTableType:
		return engine.executeRenameTable(statement.(sql.RenameTableStatement), session)
	case sql.AddColumnType:
		return engine.executeAddColumn(statement.(sql.AddColumnStatement), session)
	default:
		return nil, fmt.Errorf("unsupported statement type: %v", statement.Type())
	}
}

func userOf(session *auth.Session) string {
	if session == nil {
		return ""
	}
	return session.User
}

// check resolves the target table, then runs the access decision and
// audits it. A missing table fails before permissions are consulted,
// so the caller gets NoSuchTableError rather than a denial and no
// audit entry is written for a table that was never there. Callers
// must hold the engine lock.
func (engine *Engine) check(session *auth.Session, action, table string, level auth.Permission) error {
	if !engine.Store.HasTable(table) {
		return &ps.NoSuchTableError{Table: table}
	}
	if err := engine.Access.Check(session, table, level); err != nil {
		engine.Audit.Record(userOf(session), action, "table "+table, audit.OutcomeDenied)
		return err
	}
	engine.Audit.Record(userOf(session), action, "table "+table, audit.OutcomeGranted)
	return nil
}

// finish audits the operation outcome and passes the error through.
func (engine *Engine) finish(session *auth.Session, action, detail string, err error) error {
	if err != nil {
		engine.Audit.Record(userOf(session), action, detail+": "+err.Error(), audit.OutcomeError)
		return err
	}
	engine.Audit.Record(userOf(session), action, detail, audit.OutcomeOK)
	return nil
}

func (engine *Engine) executeSelect(statement sql.SelectStatement, session *auth.Session) (Result, error) {
	start := time.Now()
	if err := engine.check(session, "select", statement.TableName, auth.PermRead); err != nil {
		return nil, err
	}

	table := op.NewTableOp(engine.Store, statement.TableName)
	header, rows, err := table.Select(statement.Columns, statement.Where)
	if err := engine.finish(session, "select", "table "+statement.TableName, err); err != nil {
		return nil, err
	}

	return QueryResult{
		Columns:          header,
		Rows:             rows,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

func (engine *Engine) executeInsert(statement sql.InsertStatement, session *auth.Session) (Result, error) {
	start := time.Now()
	if err := engine.check(session, "insert", statement.TableName, auth.PermWrite); err != nil {
		return nil, err
	}

	table := op.NewTableOp(engine.Store, statement.TableName)
	err := table.Insert(statement.Columns, statement.Values)
	if err := engine.finish(session, "insert", "table "+statement.TableName, err); err != nil {
		return nil, err
	}

	return CommitResult{
		RecordsWritten:   1,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

func (engine *Engine) executeUpdate(statement sql.UpdateStatement, session *auth.Session) (Result, error) {
	start := time.Now()
	if err := engine.check(session, "update", statement.TableName, auth.PermWrite); err != nil {
		return nil, err
	}

	columns := make([]string, len(statement.Set))
	for i, assignment := range statement.Set {
		columns[i] = assignment.Column
	}

	table := op.NewTableOp(engine.Store, statement.TableName)
	updated, err := table.Update(columns, assignmentValues(statement.Set), statement.Where)
	if err := engine.finish(session, "update", "table "+statement.TableName, err); err != nil {
		return nil, err
	}

	return CommitResult{
		RecordsUpdated:   updated,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

func (engine *Engine) executeDelete(statement sql.DeleteStatement, session *auth.Session) (Result, error) {
	start := time.Now()
	if err := engine.check(session, "delete", statement.TableName, auth.PermWrite); err != nil {
		return nil, err
	}

	table := op.NewTableOp(engine.Store, statement.TableName)
	deleted, err := table.Delete(statement.Where)
	if err := engine.finish(session, "delete", "table "+statement.TableName, err); err != nil {
		return nil, err
	}

	return CommitResult{
		RecordsDeleted:   deleted,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

// executeCreateTable needs no table grant, only a role above readonly.
// The creator receives a table-admin grant on the new table so they
// can manage it without global admin help.
func (engine *Engine) executeCreateTable(statement sql.CreateTableStatement, session *auth.Session) (Result, error) {
	start := time.Now()

	if session == nil {
		return nil, auth.ErrNotAuthenticated
	}
	role, err := engine.Access.Role(session.User)
	if err != nil {
		return nil, err
	}
	if role == auth.RoleReadonly {
		engine.Audit.Record(session.User, "create_table", "table "+statement.TableName, audit.OutcomeDenied)
		return nil, &auth.PermissionDeniedError{User: session.User, Table: statement.TableName, Level: auth.PermWrite}
	}
	engine.Audit.Record(session.User, "create_table", "table "+statement.TableName, audit.OutcomeGranted)

	table := op.NewTableOp(engine.Store, statement.TableName)
	err = table.Create(statement.Columns)
	if err := engine.finish(session, "create_table", "table "+statement.TableName, err); err != nil {
		return nil, err
	}

	if err := engine.Access.Grant(statement.TableName, session.User, auth.PermAdmin); err != nil {
		return nil, err
	}

	return CommitResult{
		TablesCreated:    1,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

func (engine *Engine) executeRenameTable(statement sql.RenameTableStatement, session *auth.Session) (Result, error) {
	start := time.Now()
	if err := engine.check(session, "rename_table", statement.TableName, auth.PermAdmin); err != nil {
		return nil, err
	}

	table := op.NewTableOp(engine.Store, statement.TableName)
	detail := fmt.Sprintf("table %s to %s", statement.TableName, statement.NewName)
	err := table.Rename(statement.NewName)
	if err := engine.finish(session, "rename_table", detail, err); err != nil {
		return nil, err
	}

	// Grants follow the table to its new name
	engine.Access.MigrateGrants(statement.TableName, statement.NewName)

	return CommitResult{
		TablesRenamed:    1,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

func (engine *Engine) executeAddColumn(statement sql.AddColumnStatement, session *auth.Session) (Result, error) {
	start := time.Now()
	if err := engine.check(session, "add_column", statement.TableName, auth.PermAdmin); err != nil {
		return nil, err
	}

	table := op.NewTableOp(engine.Store, statement.TableName)
	detail := fmt.Sprintf("table %s column %s", statement.TableName, statement.Column.Name)
	err := table.AddColumn(statement.Column, statement.Default, statement.HasDefault)
	if err := engine.finish(session, "add_column", detail, err); err != nil {
		return nil, err
	}

	return CommitResult{
		ColumnsAdded:     1,
		ExecutionTimeSec: time.Since(start).Seconds(),
	}, nil
}

func assignmentValues(set []sql.Assignment) []core.Value {
	values := make([]core.Value, len(set))
	for i, assignment := range set {
		values[i] = assignment.Value
	}
	return values
}
