// Package table holds the in-memory dataset that flows through the ETL
// stages. The table is row-oriented with an ordered column list; cells are
// nullable tagged values so that a column can hold mixed types before
// cleaning and a single type after.
package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindFloat
	KindBool
	KindTime
)

// Value is a nullable cell. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	flag bool
	ts   time.Time
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Float returns a numeric Value.
func Float(f float64) Value { return Value{kind: KindFloat, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Time returns a datetime Value.
func Time(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// FromAny converts a decoded JSON value into a Value. Unsupported types
// (nested objects, arrays) collapse to null.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case float64:
		return Float(x)
	case int:
		return Float(float64(x))
	case int64:
		return Float(float64(x))
	case bool:
		return Bool(x)
	case time.Time:
		return Time(x)
	default:
		return Null()
	}
}

// Kind reports the type tag of the cell.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string content and whether the cell holds a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Float returns the numeric content and whether the cell holds a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.num, true
}

// Bool returns the boolean content and whether the cell holds a bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Time returns the datetime content and whether the cell holds a datetime.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// TimeLayout is the canonical timestamp format used across the pipeline.
const TimeLayout = "2006-01-02 15:04:05"

// Text renders the cell for delimited-text output. Null renders empty.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindFloat:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindTime:
		return v.ts.Format(TimeLayout)
	default:
		return ""
	}
}

// JSON returns the cell as a value suitable for encoding/json. Null maps
// to nil, datetimes to their canonical string form.
func (v Value) JSON() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindFloat:
		return v.num
	case KindBool:
		return v.flag
	case KindTime:
		return v.ts.Format(TimeLayout)
	default:
		return nil
	}
}

// Equal reports whether two cells hold the same type and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindFloat:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindTime:
		return v.ts.Equal(o.ts)
	default:
		return true
	}
}

// keyPart renders the cell for row-key construction. The kind prefix keeps
// null distinct from the empty string and "1" distinct from 1.0.
func (v Value) keyPart() string {
	switch v.kind {
	case KindString:
		return "s:" + v.str
	case KindFloat:
		return "f:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return "b:" + strconv.FormatBool(v.flag)
	case KindTime:
		return "t:" + v.ts.Format(time.RFC3339Nano)
	default:
		return "n"
	}
}

// Row is one record. A missing key and an explicit null cell are treated
// the same by every pipeline stage.
type Row map[string]Value

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of rows sharing a common column set. Stages
// mutate it in place; ownership transfers stage to stage.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given column order.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends the column to the order if it is not already present.
func (t *Table) EnsureColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Filter removes rows for which keep returns false, preserving order, and
// returns the number of rows removed.
func (t *Table) Filter(keep func(Row) bool) int {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	removed := len(t.Rows) - len(kept)
	// Release the tail so dropped rows can be collected.
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// RowKey builds a deterministic key over every column, used for exact
// duplicate detection.
func (t *Table) RowKey(r Row) string {
	return KeyOver(r, t.Columns...)
}

// KeyOver builds a deterministic key over the named columns. Cells key by
// kind and content, so a numeric 101 and the string "101" stay distinct, as
// do null and the empty string.
func KeyOver(r Row, cols ...string) string {
	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(r[col].keyPart())
	}
	return b.String()
}
