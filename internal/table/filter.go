package table

import (
	"fmt"
	"slices"
	"time"
)

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to calendar dates and fails with a
// *RangeError when start is after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: civil(start), End: civil(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate fails with a *RangeError when Start is after End.
func (r DateRange) Validate() error {
	if civil(r.Start).After(civil(r.End)) {
		return &RangeError{Start: r.Start, End: r.End}
	}
	return nil
}

// Contains reports whether d falls on a date inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = civil(d)
	return !d.Before(civil(r.Start)) && !d.After(civil(r.End))
}

// civil drops the clock portion of t, keeping its calendar date in UTC.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterDates returns the rows whose date falls inside r. An empty result is
// not an error.
func (t *Table) FilterDates(r DateRange) (*Table, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	c, err := t.dateIndex()
	if err != nil {
		return nil, err
	}
	return t.Filter(func(row []any) bool {
		return r.Contains(row[c].(time.Time))
	}), nil
}

// FilterYear returns the rows dated in the given calendar year.
func (t *Table) FilterYear(year int) (*Table, error) {
	c, err := t.dateIndex()
	if err != nil {
		return nil, err
	}
	return t.Filter(func(row []any) bool {
		return row[c].(time.Time).Year() == year
	}), nil
}

// DateBounds returns the earliest and latest date. ok is false for an empty
// table.
func (t *Table) DateBounds() (first, last time.Time, ok bool, err error) {
	c, err := t.dateIndex()
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	for i, row := range t.rows {
		d := row[c].(time.Time)
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}
	return first, last, len(t.rows) > 0, nil
}

// Years returns the distinct calendar years present, ascending.
func (t *Table) Years() ([]int, error) {
	c, err := t.dateIndex()
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var years []int
	for _, row := range t.rows {
		y := row[c].(time.Time).Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years, nil
}

func (t *Table) dateIndex() (int, error) {
	if t.dateCol == "" {
		return 0, fmt.Errorf("%w: table has no date column", ErrColumnNotFound)
	}
	return t.pos[t.dateCol], nil
}
