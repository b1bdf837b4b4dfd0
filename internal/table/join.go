package table

import (
	"fmt"
	"slices"
	"time"
)

// Suffixes disambiguate column names present on both sides of a join.
type Suffixes struct {
	Left  string
	Right string
}

// JoinStats reports how many left rows found a partner.
type JoinStats struct {
	Matched int
	Dropped int
}

// InnerJoin joins left and right on the column on, which both tables must
// hold with the same kind. Each left row is paired with the single right row
// sharing its key; left rows with no partner are dropped and counted in
// JoinStats.Dropped. A key repeated in right fails with ErrDuplicateKey since
// it would duplicate left rows.
//
// Output columns are the left columns in order, then the right columns except
// the key. Names present in both inputs, other than the key, get the matching
// suffix. The result's date column is on when on is a date column.
func InnerJoin(left, right *Table, on string, suffixes Suffixes) (*Table, JoinStats, error) {
	li, ok := left.pos[on]
	if !ok {
		return nil, JoinStats{}, fmt.Errorf("left: %w", columnNotFound(on))
	}
	ri, ok := right.pos[on]
	if !ok {
		return nil, JoinStats{}, fmt.Errorf("right: %w", columnNotFound(on))
	}
	if lk, rk := left.columns[li].Kind, right.columns[ri].Kind; lk != rk {
		return nil, JoinStats{}, fmt.Errorf("%w: join key %q is %s on the left and %s on the right", ErrKindMismatch, on, lk, rk)
	}

	index := make(map[any]int, len(right.rows))
	for n, row := range right.rows {
		k := joinKey(row[ri])
		if _, dup := index[k]; dup {
			return nil, JoinStats{}, fmt.Errorf("%w: %q value %s", ErrDuplicateKey, on, formatCell(row[ri], DateLayout))
		}
		index[k] = n
	}

	columns := make([]Column, 0, len(left.columns)+len(right.columns)-1)
	for _, c := range left.columns {
		if c.Name != on && right.HasColumn(c.Name) {
			c.Name += suffixes.Left
		}
		columns = append(columns, c)
	}
	rightCols := make([]int, 0, len(right.columns)-1)
	for i, c := range right.columns {
		if i == ri {
			continue
		}
		if left.HasColumn(c.Name) {
			c.Name += suffixes.Right
		}
		columns = append(columns, c)
		rightCols = append(rightCols, i)
	}

	var stats JoinStats
	rows := make([][]any, 0, len(left.rows))
	for _, lrow := range left.rows {
		n, ok := index[joinKey(lrow[li])]
		if !ok {
			stats.Dropped++
			continue
		}
		row := slices.Grow(slices.Clone(lrow), len(rightCols))
		for _, i := range rightCols {
			row = append(row, right.rows[n][i])
		}
		rows = append(rows, row)
		stats.Matched++
	}

	dateCol := ""
	if left.columns[li].Kind == KindDate {
		dateCol = on
	}
	joined, err := New(columns, nil, dateCol)
	if err != nil {
		return nil, JoinStats{}, fmt.Errorf("join schema: %w", err)
	}
	return joined.derive(rows), stats, nil
}

// joinKey normalizes a cell for use as a map key. time.Time carries a
// location pointer, so dates are keyed by their Unix seconds.
func joinKey(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Unix()
	}
	return v
}
