package op

import (
	"fmt"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
)

// ColumnError reports a reference to a column the table does not have.
type ColumnError struct {
	Table  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("no such column %q in table %q", e.Column, e.Table)
}

// TableOp executes statement-level operations against one table. Every
// mutating operation validates and coerces completely before touching
// the store, so a failure never leaves a partial change behind.
type TableOp struct {
	Store *ps.Store
	Name  string
}

func NewTableOp(store *ps.Store, name string) *TableOp {
	return &TableOp{Store: store, Name: name}
}

func (t *TableOp) Create(columns []core.Column) error {
	if len(columns) == 0 {
		return fmt.Errorf("table %q needs at least one column", t.Name)
	}
	return t.Store.CreateTable(core.Table{Name: t.Name, Columns: columns})
}

func (t *TableOp) Schema() (core.Table, error) {
	return t.Store.Schema(t.Name)
}

func (t *TableOp) Count() (int, error) {
	return t.Store.RowCount(t.Name)
}

// Insert appends one row. With named columns, values map by name and
// unmentioned columns get NULL; without, values are positional and
// must cover every column. All values are coerced before the append.
func (t *TableOp) Insert(columns []string, values []core.Value) error {
	schema, err := t.Store.Schema(t.Name)
	if err != nil {
		return err
	}

	var row core.Row
	if len(columns) == 0 {
		if len(values) != len(schema.Columns) {
			return fmt.Errorf("table %q has %d columns but %d values were supplied",
				t.Name, len(schema.Columns), len(values))
		}
		row = append(row, values...)
	} else {
		supplied := make(map[string]core.Value, len(columns))
		for i, name := range columns {
			if schema.ColumnIndex(name) < 0 {
				return &ColumnError{Table: t.Name, Column: name}
			}
			if _, dup := supplied[name]; dup {
				return fmt.Errorf("column %q named more than once", name)
			}
			supplied[name] = values[i]
		}
		row = make(core.Row, len(schema.Columns))
		for i, column := range schema.Columns {
			if v, ok := supplied[column.Name]; ok {
				row[i] = v
			} else {
				row[i] = core.Null()
			}
		}
	}

	for i, column := range schema.Columns {
		coerced, err := core.Coerce(row[i], column)
		if err != nil {
			return err
		}
		row[i] = coerced
	}

	return t.Store.AppendRow(t.Name, row)
}

// Select returns the projected column names and the matching rows.
// An empty columns slice selects every column in declared order.
func (t *TableOp) Select(columns []string, where []core.Predicate) ([]string, []core.Row, error) {
	schema, err := t.Store.Schema(t.Name)
	if err != nil {
		return nil, nil, err
	}
	rows, err := t.Store.Rows(t.Name)
	if err != nil {
		return nil, nil, err
	}

	indices := make([]int, 0, len(schema.Columns))
	var header []string
	if len(columns) == 0 {
		for i, column := range schema.Columns {
			indices = append(indices, i)
			header = append(header, column.Name)
		}
	} else {
		for _, name := range columns {
			idx := schema.ColumnIndex(name)
			if idx < 0 {
				return nil, nil, &ColumnError{Table: t.Name, Column: name}
			}
			indices = append(indices, idx)
			header = append(header, name)
		}
	}

	var out []core.Row
	for _, row := range rows {
		match, err := t.matches(schema, row, where)
		if err != nil {
			return nil, nil, err
		}
		if !match {
			continue
		}
		projected := make(core.Row, len(indices))
		for i, idx := range indices {
			projected[i] = row[idx]
		}
		out = append(out, projected)
	}
	return header, out, nil
}

// Update coerces the new values, applies them to every matching row
// and commits the whole row set at once. Returns the number of rows
// changed.
func (t *TableOp) Update(columns []string, values []core.Value, where []core.Predicate) (int, error) {
	schema, err := t.Store.Schema(t.Name)
	if err != nil {
		return 0, err
	}

	indices := make([]int, len(columns))
	coerced := make([]core.Value, len(columns))
	for i, name := range columns {
		idx := schema.ColumnIndex(name)
		if idx < 0 {
			return 0, &ColumnError{Table: t.Name, Column: name}
		}
		v, err := core.Coerce(values[i], schema.Columns[idx])
		if err != nil {
			return 0, err
		}
		indices[i] = idx
		coerced[i] = v
	}

	rows, err := t.Store.Rows(t.Name)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		match, err := t.matches(schema, row, where)
		if err != nil {
			return 0, err
		}
		if !match {
			continue
		}
		for i, idx := range indices {
			row[idx] = coerced[i]
		}
		updated++
	}

	if err := t.Store.ReplaceRows(t.Name, rows); err != nil {
		return 0, err
	}
	return updated, nil
}

// Delete removes every matching row and returns how many went. No
// WHERE clause clears the table.
func (t *TableOp) Delete(where []core.Predicate) (int, error) {
	schema, err := t.Store.Schema(t.Name)
	if err != nil {
		return 0, err
	}
	rows, err := t.Store.Rows(t.Name)
	if err != nil {
		return 0, err
	}

	kept := rows[:0]
	deleted := 0
	for _, row := range rows {
		match, err := t.matches(schema, row, where)
		if err != nil {
			return 0, err
		}
		if match {
			deleted++
		} else {
			kept = append(kept, row)
		}
	}

	if err := t.Store.ReplaceRows(t.Name, kept); err != nil {
		return 0, err
	}
	return deleted, nil
}

func (t *TableOp) Rename(newName string) error {
	return t.Store.RenameTable(t.Name, newName)
}

// AddColumn extends the schema. Existing rows are filled with the
// coerced default, or NULL; a column that is NOT NULL therefore
// requires a default when the table already has rows.
func (t *TableOp) AddColumn(column core.Column, def core.Value, hasDefault bool) error {
	schema, err := t.Store.Schema(t.Name)
	if err != nil {
		return err
	}
	if schema.ColumnIndex(column.Name) >= 0 {
		return fmt.Errorf("table %q already has a column %q", t.Name, column.Name)
	}
	if column.PrimaryKey {
		return fmt.Errorf("cannot add a primary key column to table %q", t.Name)
	}

	fill := core.Null()
	if hasDefault {
		fill, err = core.Coerce(def, column)
		if err != nil {
			return err
		}
	}
	if fill.IsNull() && !column.Nullable {
		count, err := t.Store.RowCount(t.Name)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("column %q is NOT NULL and table %q has rows: a DEFAULT is required",
				column.Name, t.Name)
		}
	}

	return t.Store.AddColumn(t.Name, column, fill)
}

// matches evaluates a conjunction of predicates against one row,
// left to right. A type error in any predicate fails the statement.
func (t *TableOp) matches(schema core.Table, row core.Row, where []core.Predicate) (bool, error) {
	for _, pred := range where {
		idx := schema.ColumnIndex(pred.Column)
		if idx < 0 {
			return false, &ColumnError{Table: t.Name, Column: pred.Column}
		}

		literal := pred.Value
		if !literal.IsNull() {
			v, err := core.Coerce(literal, schema.Columns[idx])
			if err != nil {
				return false, err
			}
			literal = v
		}

		ok, err := core.Compare(row[idx], literal, pred.Op)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
