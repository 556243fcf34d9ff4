package core

type ColumnType int

const (
	IntType ColumnType = iota
	TextType
	BoolType
	DateType
)

func (t ColumnType) String() string {
	switch t {
	case IntType:
		return "INTEGER"
	case TextType:
		return "TEXT"
	case BoolType:
		return "BOOLEAN"
	case DateType:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

type Column struct {
	Name       string     `json:"name" cbor:"name"`
	Type       ColumnType `json:"type" cbor:"type"`
	PrimaryKey bool       `json:"primaryKey,omitempty" cbor:"pk,omitempty"`
	Nullable   bool       `json:"nullable" cbor:"nullable"`
}

// Table describes a table schema. Row data lives in the store, keyed by
// table name; a Row's values align with Columns by position.
type Table struct {
	Name    string   `json:"name" cbor:"name"`
	Columns []Column `json:"columns" cbor:"columns"`
}

type Row []Value

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
