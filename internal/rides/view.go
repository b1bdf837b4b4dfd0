package rides

import (
	"fmt"
	"time"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// FilterState is the user's current selection. Nil fields are unset: a
// missing bound defaults to the daily table's first or last date, and a nil
// Year keeps every year.
type FilterState struct {
	Start *time.Time
	End   *time.Time
	Year  *int
}

// DateSpan is the resolved date range of a view.
type DateSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary holds the headline metrics of a view.
type Summary struct {
	Days       int     `json:"days"`
	Casual     float64 `json:"casual"`
	Registered float64 `json:"registered"`
	Total      float64 `json:"total"`
	MeanDaily  float64 `json:"meanDaily"`
	MaxDaily   float64 `json:"maxDaily"`
}

type MonthlyPoint struct {
	Month string  `json:"month"`
	Count float64 `json:"count"`
}

type WeekdayUsage struct {
	Weekday int     `json:"weekday"`
	Label   string  `json:"label"`
	Count   float64 `json:"count"`
}

type SeasonUsage struct {
	Season     int     `json:"season"`
	Label      string  `json:"label"`
	Casual     float64 `json:"casual"`
	Registered float64 `json:"registered"`
	Total      float64 `json:"total"`
}

type WindPoint struct {
	WindSpeed float64 `json:"windspeed"`
	Count     float64 `json:"count"`
}

type WeatherUsage struct {
	Weather   int     `json:"weathersit"`
	Label     string  `json:"label"`
	MeanDaily float64 `json:"meanDaily"`
	Days      int     `json:"days"`
}

// Heatmap is the hourly rental sum by weekday (rows) and hour (columns).
type Heatmap struct {
	Weekdays []string    `json:"weekdays"`
	Hours    []int       `json:"hours"`
	Values   [][]float64 `json:"values"`
}

// View is everything the rendering layer draws for one FilterState. Empty is
// set when the selection matches no day; the other fields are then zero or
// empty rather than an error.
type View struct {
	Range           DateSpan       `json:"range"`
	Year            *int           `json:"year,omitempty"`
	Empty           bool           `json:"empty"`
	Summary         Summary        `json:"summary"`
	MonthlyTrend    []MonthlyPoint `json:"monthlyTrend"`
	WeekdayUsage    []WeekdayUsage `json:"weekdayUsage"`
	SeasonalUsage   []SeasonUsage  `json:"seasonalUsage"`
	WindspeedEffect []WindPoint    `json:"windspeedEffect"`
	WeatherUsage    []WeatherUsage `json:"weatherUsage"`
	HourlyHeatmap   Heatmap        `json:"hourlyHeatmap"`
}

// Resolve turns the state into a concrete range using the bounds of t. ok is
// false when t is empty and the state leaves a bound open, in which case no
// date filter applies. Only an explicit start after an explicit end is a
// *table.RangeError; an open bound that would fall on the wrong side of the
// given one is clamped to it, selecting no rows.
func (s FilterState) Resolve(t *table.Table) (r table.DateRange, ok bool, err error) {
	first, last, nonEmpty, err := t.DateBounds()
	if err != nil {
		return table.DateRange{}, false, err
	}
	if s.Start != nil {
		first = *s.Start
	}
	if s.End != nil {
		last = *s.End
	}
	if !nonEmpty && (s.Start == nil || s.End == nil) {
		return table.DateRange{}, false, nil
	}
	// An open bound never inverts the range: it collapses onto the given one.
	if first.After(last) {
		switch {
		case s.End == nil:
			last = first
		case s.Start == nil:
			first = last
		}
	}
	r, err = table.NewDateRange(first, last)
	if err != nil {
		return table.DateRange{}, false, err
	}
	return r, true, nil
}

// apply narrows t to the state's year and, when ok, to r.
func (s FilterState) apply(t *table.Table, r table.DateRange, ok bool) (*table.Table, error) {
	out := t
	var err error
	if s.Year != nil {
		if out, err = out.FilterYear(*s.Year); err != nil {
			return nil, err
		}
	}
	if ok {
		if out, err = out.FilterDates(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter applies the state to daily and hourly alike. Open bounds resolve
// against the daily table.
func (s FilterState) Filter(daily, hourly *table.Table) (d, h *table.Table, r table.DateRange, err error) {
	r, ok, err := s.Resolve(daily)
	if err != nil {
		return nil, nil, table.DateRange{}, err
	}
	if d, err = s.apply(daily, r, ok); err != nil {
		return nil, nil, table.DateRange{}, fmt.Errorf("filter daily: %w", err)
	}
	if h, err = s.apply(hourly, r, ok); err != nil {
		return nil, nil, table.DateRange{}, fmt.Errorf("filter hourly: %w", err)
	}
	return d, h, r, nil
}

// BuildView computes the view of state over the daily and hourly tables. It
// has no side effects: the same inputs always yield the same view.
func BuildView(daily, hourly *table.Table, state FilterState) (View, error) {
	d, h, r, err := state.Filter(daily, hourly)
	if err != nil {
		return View{}, err
	}

	v := View{Year: state.Year, Empty: d.Len() == 0}
	if !r.Start.IsZero() {
		v.Range = DateSpan{Start: r.Start.Format(table.DateLayout), End: r.End.Format(table.DateLayout)}
	}

	if v.Summary, err = Summarize(d); err != nil {
		return View{}, err
	}
	if v.MonthlyTrend, err = monthlyTrend(d); err != nil {
		return View{}, err
	}
	if v.WeekdayUsage, err = weekdayUsage(d); err != nil {
		return View{}, err
	}
	if v.SeasonalUsage, err = seasonalUsage(h); err != nil {
		return View{}, err
	}
	if v.WindspeedEffect, err = windspeedEffect(h); err != nil {
		return View{}, err
	}
	if v.WeatherUsage, err = weatherUsage(d); err != nil {
		return View{}, err
	}
	if v.HourlyHeatmap, err = hourlyHeatmap(h); err != nil {
		return View{}, err
	}
	return v, nil
}

// Summarize computes the headline metrics of a daily table.
func Summarize(daily *table.Table) (Summary, error) {
	s := Summary{Days: daily.Len()}
	var err error
	reductions := []struct {
		dst    *float64
		column string
		r      table.Reducer
	}{
		{&s.Casual, ColCasual, table.Sum},
		{&s.Registered, ColRegistered, table.Sum},
		{&s.Total, ColCount, table.Sum},
		{&s.MeanDaily, ColCount, table.Mean},
		{&s.MaxDaily, ColCount, table.Max},
	}
	for _, red := range reductions {
		if *red.dst, err = daily.Reduce(red.column, red.r); err != nil {
			return Summary{}, fmt.Errorf("summary %s(%s): %w", red.r, red.column, err)
		}
	}
	return s, nil
}

func monthlyTrend(daily *table.Table) ([]MonthlyPoint, error) {
	groups, err := daily.Aggregate(table.ByMonth(), ColCount, table.Sum)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	out := make([]MonthlyPoint, len(groups))
	for i, g := range groups {
		out[i] = MonthlyPoint{Month: g.Key.(table.Period).String(), Count: g.Value}
	}
	return out, nil
}

func weekdayUsage(daily *table.Table) ([]WeekdayUsage, error) {
	groups, err := daily.Aggregate(table.ByColumn(ColWeekday), ColCount, table.Sum)
	if err != nil {
		return nil, fmt.Errorf("weekday usage: %w", err)
	}
	out := make([]WeekdayUsage, len(groups))
	for i, g := range groups {
		wd := intKey(g.Key)
		out[i] = WeekdayUsage{Weekday: wd, Label: time.Weekday(wd).String(), Count: g.Value}
	}
	return out, nil
}

// seasonalUsage ranks seasons by total rentals, split by user type.
func seasonalUsage(hourly *table.Table) ([]SeasonUsage, error) {
	casual, err := hourly.Aggregate(table.ByColumn(ColSeason), ColCasual, table.Sum)
	if err != nil {
		return nil, fmt.Errorf("seasonal usage: %w", err)
	}
	registered, err := hourly.Aggregate(table.ByColumn(ColSeason), ColRegistered, table.Sum)
	if err != nil {
		return nil, fmt.Errorf("seasonal usage: %w", err)
	}
	total, err := hourly.Aggregate(table.ByColumn(ColSeason), ColCount, table.Sum, table.SortByValueDesc())
	if err != nil {
		return nil, fmt.Errorf("seasonal usage: %w", err)
	}

	byKey := func(groups []table.Group) map[int]float64 {
		m := make(map[int]float64, len(groups))
		for _, g := range groups {
			m[intKey(g.Key)] = g.Value
		}
		return m
	}
	c, r := byKey(casual), byKey(registered)

	out := make([]SeasonUsage, len(total))
	for i, g := range total {
		s := intKey(g.Key)
		out[i] = SeasonUsage{
			Season:     s,
			Label:      Season(s).String(),
			Casual:     c[s],
			Registered: r[s],
			Total:      g.Value,
		}
	}
	return out, nil
}

func windspeedEffect(hourly *table.Table) ([]WindPoint, error) {
	groups, err := hourly.Aggregate(table.ByColumn(ColWindSpeed), ColCount, table.Sum)
	if err != nil {
		return nil, fmt.Errorf("windspeed effect: %w", err)
	}
	out := make([]WindPoint, len(groups))
	for i, g := range groups {
		out[i] = WindPoint{WindSpeed: floatKey(g.Key), Count: g.Value}
	}
	return out, nil
}

func weatherUsage(daily *table.Table) ([]WeatherUsage, error) {
	groups, err := daily.Aggregate(table.ByColumn(ColWeather), ColCount, table.Mean)
	if err != nil {
		return nil, fmt.Errorf("weather usage: %w", err)
	}
	out := make([]WeatherUsage, len(groups))
	for i, g := range groups {
		w := intKey(g.Key)
		out[i] = WeatherUsage{Weather: w, Label: WeatherSituation(w).String(), MeanDaily: g.Value, Days: g.Rows}
	}
	return out, nil
}

func hourlyHeatmap(hourly *table.Table) (Heatmap, error) {
	p, err := hourly.Pivot(table.ByColumn(ColWeekday), table.ByColumn(ColHour), ColCount, table.Sum)
	if err != nil {
		return Heatmap{}, fmt.Errorf("hourly heatmap: %w", err)
	}
	hm := Heatmap{
		Weekdays: make([]string, len(p.RowKeys)),
		Hours:    make([]int, len(p.ColKeys)),
		Values:   p.Values,
	}
	for i, k := range p.RowKeys {
		hm.Weekdays[i] = time.Weekday(intKey(k)).String()
	}
	for i, k := range p.ColKeys {
		hm.Hours[i] = intKey(k)
	}
	return hm, nil
}

func intKey(k any) int {
	return int(floatKey(k))
}

func floatKey(k any) float64 {
	switch v := k.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
