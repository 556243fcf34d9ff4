package core

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// valueWire is the serialized form of a Value. Dates travel as
// YYYY-MM-DD strings so that a decoded Value is bit-for-bit identical
// to the one encoded, which plain time.Time round trips do not
// guarantee.
type valueWire struct {
	Kind ValueKind `json:"k" cbor:"k"`
	Int  *int64    `json:"i,omitempty" cbor:"i,omitempty"`
	Text *string   `json:"t,omitempty" cbor:"t,omitempty"`
	Bool *bool     `json:"b,omitempty" cbor:"b,omitempty"`
	Date *string   `json:"d,omitempty" cbor:"d,omitempty"`
}

func (v Value) wire() valueWire {
	w := valueWire{Kind: v.Kind}
	switch v.Kind {
	case IntKind:
		w.Int = &v.Int
	case TextKind:
		w.Text = &v.Text
	case BoolKind:
		w.Bool = &v.Bool
	case DateKind:
		s := v.Date.Format(DateLayout)
		w.Date = &s
	}
	return w
}

func (v *Value) fromWire(w valueWire) error {
	switch w.Kind {
	case NullKind:
		*v = Null()
	case IntKind:
		if w.Int == nil {
			return fmt.Errorf("integer value missing payload")
		}
		*v = NewInt(*w.Int)
	case TextKind:
		if w.Text == nil {
			return fmt.Errorf("text value missing payload")
		}
		*v = NewText(*w.Text)
	case BoolKind:
		if w.Bool == nil {
			return fmt.Errorf("boolean value missing payload")
		}
		*v = NewBool(*w.Bool)
	case DateKind:
		if w.Date == nil {
			return fmt.Errorf("date value missing payload")
		}
		parsed, err := ParseDate(*w.Date)
		if err != nil {
			return err
		}
		*v = parsed
	default:
		return fmt.Errorf("unknown value kind %d", w.Kind)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return v.fromWire(w)
}

func (v Value) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(v.wire())
}

func (v *Value) UnmarshalCBOR(data []byte) error {
	var w valueWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	return v.fromWire(w)
}
