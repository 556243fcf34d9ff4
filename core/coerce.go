package core

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeError reports a value that cannot be used where a declared type is
// required: failed coercion, a NULL in a non-nullable column, or a
// comparison across mismatched kinds.
type TypeError struct {
	Column string
	Want   ColumnType
	Got    ValueKind
	Reason string
}

func (e *TypeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("column %s: %s", e.Column, e.Reason)
	}
	return e.Reason
}

// Coerce validates and converts a value against a column's declared type.
// Conversions must be lossless: "12" coerces to integer 12, "12a" does not.
// NULL passes only if the column is nullable.
func Coerce(v Value, col Column) (Value, error) {
	if v.IsNull() {
		if !col.Nullable {
			return Null(), &TypeError{
				Column: col.Name,
				Want:   col.Type,
				Got:    NullKind,
				Reason: "NULL not allowed in non-nullable column",
			}
		}
		return Null(), nil
	}

	switch col.Type {
	case IntType:
		switch v.Kind {
		case IntKind:
			return v, nil
		case TextKind:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
			if err != nil {
				return Null(), coerceError(col, v.Kind, v.String())
			}
			return NewInt(n), nil
		}

	case TextType:
		switch v.Kind {
		case TextKind:
			return v, nil
		case IntKind:
			return NewText(strconv.FormatInt(v.Int, 10)), nil
		}

	case BoolType:
		switch v.Kind {
		case BoolKind:
			return v, nil
		case TextKind:
			switch strings.ToLower(strings.TrimSpace(v.Text)) {
			case "true":
				return NewBool(true), nil
			case "false":
				return NewBool(false), nil
			}
			return Null(), coerceError(col, v.Kind, v.String())
		}

	case DateType:
		switch v.Kind {
		case DateKind:
			return v, nil
		case TextKind:
			d, err := ParseDate(v.Text)
			if err != nil {
				return Null(), coerceError(col, v.Kind, v.String())
			}
			return d, nil
		}
	}

	return Null(), coerceError(col, v.Kind, v.String())
}

func coerceError(col Column, got ValueKind, literal string) error {
	return &TypeError{
		Column: col.Name,
		Want:   col.Type,
		Got:    got,
		Reason: fmt.Sprintf("cannot coerce %s value %q to %s", got, literal, col.Type),
	}
}

type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CompareOp) String() string {
	switch op {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return "?"
	}
}

// Predicate is a single WHERE condition: column OP literal.
type Predicate struct {
	Column string
	Op     CompareOp
	Value  Value
}

// Compare evaluates a OP b. Comparing values of different kinds is a type
// error, not false. NULL compares equal only to NULL; ordering operators
// against NULL are a type error.
func Compare(a, b Value, op CompareOp) (bool, error) {
	if a.IsNull() || b.IsNull() {
		switch op {
		case Eq:
			return a.IsNull() && b.IsNull(), nil
		case Ne:
			return a.IsNull() != b.IsNull(), nil
		default:
			return false, &TypeError{Reason: fmt.Sprintf("cannot order NULL with %s", op)}
		}
	}

	if a.Kind != b.Kind {
		return false, &TypeError{
			Got:    b.Kind,
			Reason: fmt.Sprintf("cannot compare %s to %s", a.Kind, b.Kind),
		}
	}

	var cmp int
	switch a.Kind {
	case IntKind:
		switch {
		case a.Int < b.Int:
			cmp = -1
		case a.Int > b.Int:
			cmp = 1
		}
	case TextKind:
		cmp = strings.Compare(a.Text, b.Text)
	case DateKind:
		switch {
		case a.Date.Before(b.Date):
			cmp = -1
		case a.Date.After(b.Date):
			cmp = 1
		}
	case BoolKind:
		if op != Eq && op != Ne {
			return false, &TypeError{Reason: fmt.Sprintf("cannot order booleans with %s", op)}
		}
		if a.Bool == b.Bool {
			cmp = 0
		} else {
			cmp = 1
		}
	default:
		return false, &TypeError{Reason: fmt.Sprintf("cannot compare %s values", a.Kind)}
	}

	switch op {
	case Eq:
		return cmp == 0, nil
	case Ne:
		return cmp != 0, nil
	case Lt:
		return cmp < 0, nil
	case Le:
		return cmp <= 0, nil
	case Gt:
		return cmp > 0, nil
	case Ge:
		return cmp >= 0, nil
	default:
		return false, &TypeError{Reason: fmt.Sprintf("unknown comparison operator %d", op)}
	}
}
