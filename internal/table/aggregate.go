package table

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Reducer folds a numeric column into a single value.
type Reducer int

const (
	Sum Reducer = iota
	Mean
	Max
)

func (r Reducer) String() string {
	switch r {
	case Mean:
		return "mean"
	case Max:
		return "max"
	default:
		return "sum"
	}
}

// ParseReducer maps "sum", "mean" or "max" to a Reducer.
func ParseReducer(s string) (Reducer, error) {
	switch strings.ToLower(s) {
	case "sum":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	case "max":
		return Max, nil
	}
	return 0, fmt.Errorf("unknown reducer %q", s)
}

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month d falls in.
func PeriodOf(d time.Time) Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Period) compare(o Period) int {
	if p.Year != o.Year {
		return cmpOrdered(int64(p.Year), int64(o.Year))
	}
	return cmpOrdered(int64(p.Month), int64(o.Month))
}

// Date is a civil calendar day, the group key of a date column.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of d.
func DateOf(d time.Time) Date {
	y, m, day := d.Date()
	return Date{Year: y, Month: m, Day: day}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Date) compare(o Date) int {
	if c := (Period{d.Year, d.Month}).compare(Period{o.Year, o.Month}); c != 0 {
		return c
	}
	return cmpOrdered(int64(d.Day), int64(o.Day))
}

// Grouping selects the key rows are partitioned by: the calendar month of the
// date column, or the value of any column treated as a category.
type Grouping struct {
	column string
	month  bool
}

// ByColumn groups by the raw values of a column.
func ByColumn(name string) Grouping { return Grouping{column: name} }

// ByMonth groups by the calendar month of the table's date column.
func ByMonth() Grouping { return Grouping{month: true} }

func (g Grouping) String() string {
	if g.month {
		return "month"
	}
	return g.column
}

func (g Grouping) keyFunc(t *Table) (func(row []any) any, error) {
	if g.month {
		c, err := t.dateIndex()
		if err != nil {
			return nil, err
		}
		return func(row []any) any { return PeriodOf(row[c].(time.Time)) }, nil
	}
	c, ok := t.pos[g.column]
	if !ok {
		return nil, columnNotFound(g.column)
	}
	if t.columns[c].Kind == KindDate {
		return func(row []any) any { return DateOf(row[c].(time.Time)) }, nil
	}
	return func(row []any) any { return row[c] }, nil
}

// Partition is the subset of rows sharing one group key.
type Partition struct {
	Key   any
	Table *Table
}

// GroupBy splits the table into partitions ordered by key.
func (t *Table) GroupBy(g Grouping) ([]Partition, error) {
	keyOf, err := g.keyFunc(t)
	if err != nil {
		return nil, err
	}
	groups := make(map[any][][]any)
	var keys []any
	for _, row := range t.rows {
		k := keyOf(row)
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], row)
	}
	sortKeys(keys)

	parts := make([]Partition, len(keys))
	for i, k := range keys {
		parts[i] = Partition{Key: k, Table: t.derive(groups[k])}
	}
	return parts, nil
}

// Group is one reduced value of an aggregation.
type Group struct {
	Key   any     `json:"key"`
	Value float64 `json:"value"`
	Rows  int     `json:"rows"`
}

type aggregateConfig struct {
	byValueDesc bool
}

// AggregateOption tunes Aggregate.
type AggregateOption func(*aggregateConfig)

// SortByValueDesc orders groups by reduced value, largest first, instead of
// by key. Ties keep key order.
func SortByValueDesc() AggregateOption {
	return func(c *aggregateConfig) {
		c.byValueDesc = true
	}
}

// Aggregate reduces column within each group of g. Groups come back in key
// order unless SortByValueDesc is given. An empty table yields an empty slice.
func (t *Table) Aggregate(g Grouping, column string, r Reducer, options ...AggregateOption) ([]Group, error) {
	config := &aggregateConfig{}
	for _, option := range options {
		option(config)
	}

	keyOf, err := g.keyFunc(t)
	if err != nil {
		return nil, err
	}
	c, err := t.numericIndex(column)
	if err != nil {
		return nil, err
	}

	accs := make(map[any]*accumulator)
	var keys []any
	for _, row := range t.rows {
		k := keyOf(row)
		acc, ok := accs[k]
		if !ok {
			acc = &accumulator{}
			accs[k] = acc
			keys = append(keys, k)
		}
		acc.add(toFloat(row[c]))
	}
	sortKeys(keys)

	out := make([]Group, len(keys))
	for i, k := range keys {
		acc := accs[k]
		out[i] = Group{Key: k, Value: acc.result(r), Rows: acc.n}
	}
	if config.byValueDesc {
		slices.SortStableFunc(out, func(a, b Group) int {
			return cmpOrdered(b.Value, a.Value)
		})
	}
	return out, nil
}

// Reduce folds an entire column. Every reducer yields 0 on an empty table;
// callers that must tell "no rows" apart check Len.
func (t *Table) Reduce(column string, r Reducer) (float64, error) {
	c, err := t.numericIndex(column)
	if err != nil {
		return 0, err
	}
	var acc accumulator
	for _, row := range t.rows {
		acc.add(toFloat(row[c]))
	}
	return acc.result(r), nil
}

// PivotTable is a two-key aggregation. Values[i][j] is the reduction for
// RowKeys[i] and ColKeys[j]; combinations with no rows hold 0.
type PivotTable struct {
	RowKeys []any       `json:"rowKeys"`
	ColKeys []any       `json:"colKeys"`
	Values  [][]float64 `json:"values"`
}

// Pivot reduces column over every (rows, cols) key combination.
func (t *Table) Pivot(rows, cols Grouping, column string, r Reducer) (*PivotTable, error) {
	rowOf, err := rows.keyFunc(t)
	if err != nil {
		return nil, err
	}
	colOf, err := cols.keyFunc(t)
	if err != nil {
		return nil, err
	}
	c, err := t.numericIndex(column)
	if err != nil {
		return nil, err
	}

	type cell struct{ row, col any }
	accs := make(map[cell]*accumulator)
	rowSeen := make(map[any]bool)
	colSeen := make(map[any]bool)
	p := &PivotTable{}
	for _, row := range t.rows {
		k := cell{rowOf(row), colOf(row)}
		if !rowSeen[k.row] {
			rowSeen[k.row] = true
			p.RowKeys = append(p.RowKeys, k.row)
		}
		if !colSeen[k.col] {
			colSeen[k.col] = true
			p.ColKeys = append(p.ColKeys, k.col)
		}
		acc, ok := accs[k]
		if !ok {
			acc = &accumulator{}
			accs[k] = acc
		}
		acc.add(toFloat(row[c]))
	}
	sortKeys(p.RowKeys)
	sortKeys(p.ColKeys)

	p.Values = make([][]float64, len(p.RowKeys))
	for i, rk := range p.RowKeys {
		p.Values[i] = make([]float64, len(p.ColKeys))
		for j, ck := range p.ColKeys {
			if acc, ok := accs[cell{rk, ck}]; ok {
				p.Values[i][j] = acc.result(r)
			}
		}
	}
	return p, nil
}

type accumulator struct {
	n   int
	sum float64
	max float64
}

func (a *accumulator) add(v float64) {
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

func (a *accumulator) result(r Reducer) float64 {
	if a.n == 0 {
		return 0
	}
	switch r {
	case Mean:
		return a.sum / float64(a.n)
	case Max:
		return a.max
	default:
		return a.sum
	}
}

func sortKeys(keys []any) {
	slices.SortStableFunc(keys, compareKeys)
}

func compareKeys(a, b any) int {
	if pa, ok := a.(Period); ok {
		if pb, ok := b.(Period); ok {
			return pa.compare(pb)
		}
	}
	if da, ok := a.(Date); ok {
		if db, ok := b.(Date); ok {
			return da.compare(db)
		}
	}
	return compareValues(a, b)
}
