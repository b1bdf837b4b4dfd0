package rides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// Canonical column names of the daily and hourly tables.
const (
	ColInstant    = "instant"
	ColDate       = "dteday"
	ColSeason     = "season"
	ColYear       = "yr"
	ColMonth      = "mnth"
	ColHour       = "hr"
	ColHoliday    = "holiday"
	ColWeekday    = "weekday"
	ColWorkingDay = "workingday"
	ColWeather    = "weathersit"
	ColTemp       = "temp"
	ColFeelsLike  = "atemp"
	ColHumidity   = "hum"
	ColWindSpeed  = "windspeed"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColCount      = "cnt"
)

// Suffixes applied to colliding names when the hourly table is joined with
// the daily one.
const (
	SuffixHour = "_hour"
	SuffixDay  = "_day"
)

// requiredDaily lists the columns every daily table must carry. Hourly tables
// additionally carry ColHour.
var requiredDaily = []string{
	ColDate, ColSeason, ColWeekday, ColWeather, ColTemp, ColHumidity,
	ColWindSpeed, ColCasual, ColRegistered, ColCount,
}

// ColumnKinds maps every canonical column, and its merged "_hour" and "_day"
// variants, to the kind it is read as. Pinning the kinds keeps a header-only
// table, or a written empty merge, typed the same as a populated one.
func ColumnKinds() map[string]table.Kind {
	kinds := make(map[string]table.Kind)
	for _, name := range []string{
		ColInstant, ColSeason, ColYear, ColMonth, ColHour, ColHoliday, ColWeekday,
		ColWorkingDay, ColWeather, ColCasual, ColRegistered, ColCount,
	} {
		kinds[name] = table.KindInt
	}
	for _, name := range []string{ColTemp, ColFeelsLike, ColHumidity, ColWindSpeed} {
		kinds[name] = table.KindFloat
	}
	for name, kind := range kinds {
		kinds[name+SuffixHour] = kind
		kinds[name+SuffixDay] = kind
	}
	return kinds
}

// ReadOptions are the CSV options every rides table is read and written with.
func ReadOptions() []table.CSVOption {
	return []table.CSVOption{
		table.WithDateColumn(ColDate),
		table.WithColumnKinds(ColumnKinds()),
	}
}

// codeRanges bounds the categorical columns.
var codeRanges = []struct {
	column   string
	min, max float64
}{
	{ColSeason, 1, 4},
	{ColWeekday, 0, 6},
	{ColWeather, 1, 4},
}

// Opener yields the raw bytes of a named table.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LoadTable reads a table through src with dteday as its date column and the
// canonical column kinds. Daily and hourly tables are recognized by their
// columns and validated; any other table, such as the merged one, is returned
// as read.
func LoadTable(ctx context.Context, src Opener, name string) (*table.Table, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := table.Read(rc, name, ReadOptions()...)
	if err != nil {
		return nil, err
	}

	switch {
	case t.HasColumn(ColCount) && t.HasColumn(ColHour):
		err = validate(t, true, name)
	case t.HasColumn(ColCount):
		err = validate(t, false, name)
	}
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	return t, nil
}

// ValidateDaily checks the required columns, the season, weekday and weather
// codes, total = casual + registered, and that each date occurs once.
func ValidateDaily(t *table.Table) error {
	return validate(t, false, "")
}

// ValidateHourly checks what ValidateDaily does, that hours lie in 0..23, and
// that each (date, hour) pair occurs once.
func ValidateHourly(t *table.Table) error {
	return validate(t, true, "")
}

func validate(t *table.Table, hourly bool, path string) error {
	required := requiredDaily
	if hourly {
		required = append([]string{ColHour}, requiredDaily...)
	}
	for _, name := range required {
		c, err := t.Column(name)
		if err != nil {
			return &table.ParseError{Path: path, Column: name, Err: err}
		}
		// Kinds inferred from zero rows say nothing about the column.
		if t.Len() > 0 && name != ColDate && c.Kind != table.KindInt && c.Kind != table.KindFloat {
			return &table.ParseError{Path: path, Column: name, Err: fmt.Errorf("%w: want numeric, got %s", table.ErrKindMismatch, c.Kind)}
		}
	}

	dates, err := t.Dates()
	if err != nil {
		return err
	}
	casual, _ := t.Floats(ColCasual)
	registered, _ := t.Floats(ColRegistered)
	count, _ := t.Floats(ColCount)
	var hours []float64
	if hourly {
		hours, _ = t.Floats(ColHour)
	}
	codes := make([][]float64, len(codeRanges))
	for j, r := range codeRanges {
		codes[j], _ = t.Floats(r.column)
	}

	type key struct {
		day  int64
		hour float64
	}
	seen := make(map[key]bool, t.Len())
	for i := 0; i < t.Len(); i++ {
		line := i + 2
		if casual[i]+registered[i] != count[i] {
			return &table.ParseError{Path: path, Line: line, Column: ColCount,
				Value: fmt.Sprint(count[i]), Err: errors.New("total differs from casual + registered")}
		}
		for j, r := range codeRanges {
			if v := codes[j][i]; v < r.min || v > r.max {
				return &table.ParseError{Path: path, Line: line, Column: r.column,
					Value: fmt.Sprint(v), Err: fmt.Errorf("code out of range %v..%v", r.min, r.max)}
			}
		}
		k := key{day: dates[i].Unix()}
		if hourly {
			k.hour = hours[i]
			if hours[i] < 0 || hours[i] > 23 {
				return &table.ParseError{Path: path, Line: line, Column: ColHour,
					Value: fmt.Sprint(hours[i]), Err: errors.New("hour out of range")}
			}
		}
		if seen[k] {
			return &table.ParseError{Path: path, Line: line, Column: ColDate,
				Value: dates[i].Format(table.DateLayout), Err: table.ErrDuplicateKey}
		}
		seen[k] = true
	}
	return nil
}

// row reads typed cells of one table row, remembering the first failure.
type row struct {
	t   *table.Table
	i   int
	err error
}

func (r *row) num(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.t.Value(r.i, name)
	if err != nil {
		r.err = err
		return 0
	}
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	r.err = fmt.Errorf("%w: column %q is not numeric", table.ErrKindMismatch, name)
	return 0
}

func (r *row) whole(name string) int { return int(r.num(name)) }

// opt reads a column that may be absent, yielding 0.
func (r *row) opt(name string) float64 {
	if !r.t.HasColumn(name) {
		return 0
	}
	return r.num(name)
}

func (r *row) date() time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, err := r.t.Value(r.i, ColDate)
	if err != nil {
		r.err = err
		return time.Time{}
	}
	d, _ := v.(time.Time)
	return d
}

func dailyAt(r *row) DailyRecord {
	return DailyRecord{
		Instant:    int(r.opt(ColInstant)),
		Date:       r.date(),
		Season:     Season(r.whole(ColSeason)),
		Year:       int(r.opt(ColYear)),
		Month:      int(r.opt(ColMonth)),
		Holiday:    r.opt(ColHoliday) != 0,
		Weekday:    time.Weekday(r.whole(ColWeekday)),
		WorkingDay: r.opt(ColWorkingDay) != 0,
		Weather:    WeatherSituation(r.whole(ColWeather)),
		Temp:       r.num(ColTemp),
		FeelsLike:  r.opt(ColFeelsLike),
		Humidity:   r.num(ColHumidity),
		WindSpeed:  r.num(ColWindSpeed),
		Casual:     r.whole(ColCasual),
		Registered: r.whole(ColRegistered),
		Count:      r.whole(ColCount),
	}
}

// DailyRecords converts a daily table into records.
func DailyRecords(t *table.Table) ([]DailyRecord, error) {
	out := make([]DailyRecord, t.Len())
	for i := range out {
		r := &row{t: t, i: i}
		out[i] = dailyAt(r)
		if r.err != nil {
			return nil, fmt.Errorf("row %d: %w", i, r.err)
		}
	}
	return out, nil
}

// HourlyRecords converts an hourly table into records.
func HourlyRecords(t *table.Table) ([]HourlyRecord, error) {
	out := make([]HourlyRecord, t.Len())
	for i := range out {
		r := &row{t: t, i: i}
		out[i] = HourlyRecord{DailyRecord: dailyAt(r), Hour: r.whole(ColHour)}
		if r.err != nil {
			return nil, fmt.Errorf("row %d: %w", i, r.err)
		}
	}
	return out, nil
}
