package ps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
)

type NoSuchTableError struct {
	Table string
}

func (e *NoSuchTableError) Error() string {
	return fmt.Sprintf("no such table %q", e.Table)
}

type TableExistsError struct {
	Table string
}

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("table %q already exists", e.Table)
}

type tableData struct {
	schema core.Table
	rows   []core.Row
}

// Store holds all live table data. Everything lives in memory until a
// snapshot is saved; durability is explicit, not per-statement.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*tableData
}

func NewStore() *Store {
	return &Store{tables: make(map[string]*tableData)}
}

func (s *Store) CreateTable(schema core.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[schema.Name]; ok {
		return &TableExistsError{Table: schema.Name}
	}
	s.tables[schema.Name] = &tableData{schema: schema}
	return nil
}

func (s *Store) DropTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		return &NoSuchTableError{Table: name}
	}
	delete(s.tables, name)
	return nil
}

func (s *Store) HasTable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[name]
	return ok
}

// Schema returns a copy of the table's schema.
func (s *Store) Schema(name string) (core.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tables[name]
	if !ok {
		return core.Table{}, &NoSuchTableError{Table: name}
	}
	schema := data.schema
	schema.Columns = append([]core.Column(nil), data.schema.Columns...)
	return schema, nil
}

// Rows returns a deep copy of the table's rows. Callers mutate the
// copy freely and commit changes back with ReplaceRows.
func (s *Store) Rows(name string) ([]core.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tables[name]
	if !ok {
		return nil, &NoSuchTableError{Table: name}
	}
	rows := make([]core.Row, len(data.rows))
	for i, row := range data.rows {
		rows[i] = row.Clone()
	}
	return rows, nil
}

func (s *Store) RowCount(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tables[name]
	if !ok {
		return 0, &NoSuchTableError{Table: name}
	}
	return len(data.rows), nil
}

func (s *Store) AppendRow(name string, row core.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.tables[name]
	if !ok {
		return &NoSuchTableError{Table: name}
	}
	data.rows = append(data.rows, row)
	return nil
}

// ReplaceRows swaps in a full new row set. Used by UPDATE and DELETE,
// which build the complete result before committing it, so a failure
// mid-statement never leaves partial changes visible.
func (s *Store) ReplaceRows(name string, rows []core.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.tables[name]
	if !ok {
		return &NoSuchTableError{Table: name}
	}
	data.rows = rows
	return nil
}

func (s *Store) RenameTable(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.tables[oldName]
	if !ok {
		return &NoSuchTableError{Table: oldName}
	}
	if _, ok := s.tables[newName]; ok {
		return &TableExistsError{Table: newName}
	}
	delete(s.tables, oldName)
	data.schema.Name = newName
	s.tables[newName] = data
	return nil
}

// AddColumn appends a column to the schema and fills the new cell of
// every existing row with the given value.
func (s *Store) AddColumn(name string, column core.Column, fill core.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.tables[name]
	if !ok {
		return &NoSuchTableError{Table: name}
	}
	data.schema.Columns = append(data.schema.Columns, column)
	for i := range data.rows {
		data.rows[i] = append(data.rows[i], fill)
	}
	return nil
}

// ListTables returns all table names in sorted order.
func (s *Store) ListTables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export copies every table into snapshot form.
func (s *Store) Export() []TableSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TableSnapshot, 0, len(names))
	for _, name := range names {
		data := s.tables[name]
		rows := make([]core.Row, len(data.rows))
		for i, row := range data.rows {
			rows[i] = row.Clone()
		}
		schema := data.schema
		schema.Columns = append([]core.Column(nil), data.schema.Columns...)
		out = append(out, TableSnapshot{Schema: schema, Rows: rows})
	}
	return out
}

// Restore replaces the store's entire contents from snapshot form.
func (s *Store) Restore(tables []TableSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*tableData, len(tables))
	for _, table := range tables {
		s.tables[table.Schema.Name] = &tableData{schema: table.Schema, rows: table.Rows}
	}
}
