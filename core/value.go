package core

import (
	"fmt"
	"strconv"
	"time"
)

type ValueKind int

const (
	NullKind ValueKind = iota
	IntKind
	TextKind
	BoolKind
	DateKind
)

func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "NULL"
	case IntKind:
		return "INTEGER"
	case TextKind:
		return "TEXT"
	case BoolKind:
		return "BOOLEAN"
	case DateKind:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

// DateLayout is the only accepted textual form for DATE values.
const DateLayout = "2006-01-02"

// Value is a tagged union over the runtime kinds a cell can hold.
// Exactly one of the payload fields is meaningful, selected by Kind;
// the zero Value is NULL. Serialization goes through the custom codec
// methods in codec.go.
type Value struct {
	Kind ValueKind
	Int  int64
	Text string
	Bool bool
	Date time.Time
}

func Null() Value {
	return Value{Kind: NullKind}
}

func NewInt(v int64) Value {
	return Value{Kind: IntKind, Int: v}
}

func NewText(v string) Value {
	return Value{Kind: TextKind, Text: v}
}

func NewBool(v bool) Value {
	return Value{Kind: BoolKind, Bool: v}
}

// NewDate truncates t to a calendar day in UTC.
func NewDate(t time.Time) Value {
	y, m, d := t.Date()
	return Value{Kind: DateKind, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Null(), fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return NewDate(t), nil
}

func (v Value) IsNull() bool {
	return v.Kind == NullKind
}

// String renders the value for display. NULL renders as "NULL".
func (v Value) String() string {
	switch v.Kind {
	case NullKind:
		return "NULL"
	case IntKind:
		return strconv.FormatInt(v.Int, 10)
	case TextKind:
		return v.Text
	case BoolKind:
		return strconv.FormatBool(v.Bool)
	case DateKind:
		return v.Date.Format(DateLayout)
	default:
		return fmt.Sprintf("Unknown(%d)", v.Kind)
	}
}

// Equal reports exact equality: same kind, same payload.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case NullKind:
		return true
	case IntKind:
		return v.Int == other.Int
	case TextKind:
		return v.Text == other.Text
	case BoolKind:
		return v.Bool == other.Bool
	case DateKind:
		return v.Date.Equal(other.Date)
	default:
		return false
	}
}
