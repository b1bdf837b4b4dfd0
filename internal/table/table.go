// Package table is a small immutable row-oriented table with just enough
// operations to load, join, filter and aggregate the rental datasets.
//
// Cells hold one of int64, float64, string or time.Time depending on the
// column Kind. Every operation returns a new *Table and never mutates its
// receiver.
package table

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// DateLayout is the calendar date format of every date column.
const DateLayout = "2006-01-02"

// Kind is the value type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Column names a column and its kind.
type Column struct {
	Name string
	Kind Kind
}

// Table is an immutable set of typed rows.
type Table struct {
	columns []Column
	pos     map[string]int
	rows    [][]any
	dateCol string
}

// New builds a table from columns and rows. dateCol names the date key column
// and may be empty for a table without one. Rows are copied.
func New(columns []Column, rows [][]any, dateCol string) (*Table, error) {
	t := &Table{
		columns: slices.Clone(columns),
		pos:     make(map[string]int, len(columns)),
		rows:    make([][]any, 0, len(rows)),
		dateCol: dateCol,
	}
	for i, c := range columns {
		if _, dup := t.pos[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		t.pos[c.Name] = i
	}
	if dateCol != "" {
		i, ok := t.pos[dateCol]
		if !ok {
			return nil, columnNotFound(dateCol)
		}
		if columns[i].Kind != KindDate {
			return nil, fmt.Errorf("%w: date column %q is %s", ErrKindMismatch, dateCol, columns[i].Kind)
		}
	}
	for n, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", n, len(row), len(columns))
		}
		for i, v := range row {
			if !kindOf(columns[i].Kind, v) {
				return nil, fmt.Errorf("%w: row %d column %q holds %T, want %s",
					ErrKindMismatch, n, columns[i].Name, v, columns[i].Kind)
			}
		}
		t.rows = append(t.rows, slices.Clone(row))
	}
	return t, nil
}

func kindOf(k Kind, v any) bool {
	switch v.(type) {
	case int64:
		return k == KindInt
	case float64:
		return k == KindFloat
	case string:
		return k == KindString
	case time.Time:
		return k == KindDate
	}
	return false
}

// derive shares the receiver's schema with a new row set. Rows are not copied,
// which is safe because nothing mutates a row after construction.
func (t *Table) derive(rows [][]any) *Table {
	return &Table{columns: t.columns, pos: t.pos, rows: rows, dateCol: t.dateCol}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the schema.
func (t *Table) Columns() []Column { return slices.Clone(t.columns) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// DateColumn returns the name of the date key column, or "".
func (t *Table) DateColumn() string { return t.dateCol }

// HasColumn reports whether name is a column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Column returns the schema entry for name.
func (t *Table) Column(name string) (Column, error) {
	i, ok := t.pos[name]
	if !ok {
		return Column{}, columnNotFound(name)
	}
	return t.columns[i], nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []any { return slices.Clone(t.rows[i]) }

// Value returns the cell of row i in column name.
func (t *Table) Value(i int, name string) (any, error) {
	c, ok := t.pos[name]
	if !ok {
		return nil, columnNotFound(name)
	}
	return t.rows[i][c], nil
}

// Floats returns a numeric column as float64 values.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.numericIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		out[i] = toFloat(row[c])
	}
	return out, nil
}

// Dates returns the date key column.
func (t *Table) Dates() ([]time.Time, error) {
	if t.dateCol == "" {
		return nil, fmt.Errorf("%w: table has no date column", ErrColumnNotFound)
	}
	c := t.pos[t.dateCol]
	out := make([]time.Time, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[c].(time.Time)
	}
	return out, nil
}

func (t *Table) numericIndex(name string) (int, error) {
	c, ok := t.pos[name]
	if !ok {
		return 0, columnNotFound(name)
	}
	if k := t.columns[c].Kind; k != KindInt && k != KindFloat {
		return 0, fmt.Errorf("%w: column %q is %s, want numeric", ErrKindMismatch, name, k)
	}
	return c, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}

// Filter returns the rows for which keep reports true.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	rows := make([][]any, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return t.derive(rows)
}

// WithColumn returns a copy of the table with a derived column appended. fn
// computes the new cell from each existing row and must return a value of kind.
func (t *Table) WithColumn(col Column, fn func(row []any) any) (*Table, error) {
	if t.HasColumn(col.Name) {
		return nil, fmt.Errorf("duplicate column name %q", col.Name)
	}
	columns := append(slices.Clone(t.columns), col)
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		v := fn(row)
		if !kindOf(col.Kind, v) {
			return nil, fmt.Errorf("%w: derived column %q got %T, want %s", ErrKindMismatch, col.Name, v, col.Kind)
		}
		rows[i] = append(slices.Clone(row), v)
	}
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c.Name] = i
	}
	return &Table{columns: columns, pos: pos, rows: rows, dateCol: t.dateCol}, nil
}

// Equal reports whether both tables have the same schema, date column and rows
// in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.dateCol != o.dateCol || !slices.Equal(t.columns, o.columns) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if compareValues(t.rows[i][j], o.rows[i][j]) != 0 {
				return false
			}
		}
	}
	return true
}

// compareValues orders two cells of the same kind.
func compareValues(a, b any) int {
	switch va := a.(type) {
	case int64:
		if vb, ok := b.(int64); ok {
			return cmpOrdered(va, vb)
		}
		if vb, ok := b.(float64); ok {
			return cmpOrdered(float64(va), vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return cmpOrdered(va, vb)
		}
		if vb, ok := b.(int64); ok {
			return cmpOrdered(va, float64(vb))
		}
	case string:
		if vb, ok := b.(string); ok {
			return cmpOrdered(va, vb)
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	}
	return 0
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
