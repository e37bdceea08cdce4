package domain

import (
	"strconv"
	"time"
)

// ValueKind enumerates the closed set of cell representations. Cells are
// only ever one of these; loosely-typed input is normalized at the decoding
// boundary.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindText
	KindTime
)

// Value is a single cell. The zero Value is Null.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  float64
	Text string
	Time time.Time
}

func Null() Value                 { return Value{} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func TextValue(s string) Value    { return Value{Kind: KindText, Text: s} }
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the cell the way it would appear in a spreadsheet column:
// numbers without a trailing ".0", times as RFC 3339.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Text
	}
}
